package store

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ReservedPrefixes are table name prefixes owned by the engine or its
// replication tooling. Tables with these prefixes are never listed.
var ReservedPrefixes = []string{
	"sqlite_",
	"_litestream_",
	"libsql_",
	"_cf_",
}

// IsReservedTable reports whether name starts with a reserved prefix.
func IsReservedTable(name string) bool {
	for _, prefix := range ReservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// QuoteIdent quotes a table name for use in a SQL statement.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CheckExists verifies if a local database file exists at the given path.
// Returns true if the file exists, false otherwise.
func CheckExists(dbPath string) (bool, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check store existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("datastore path is a directory, expected file: %s", dbPath)
	}
	return true, nil
}

// LocalPath extracts the file path from a database URL.
// Accepted forms are a bare path, "file:path" and "file:path?query".
// It returns false for URLs naming a remote store.
func LocalPath(dbURL string) (string, bool) {
	if dbURL == "" {
		return "", false
	}
	if strings.HasPrefix(dbURL, "file:") {
		p := strings.TrimPrefix(dbURL, "file:")
		if i := strings.IndexByte(p, '?'); i >= 0 {
			p = p[:i]
		}
		p = strings.TrimPrefix(p, "//")
		return p, p != ""
	}
	if u, err := url.Parse(dbURL); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return "", false
	}
	return dbURL, true
}

// RemoteSchemes are the URL schemes served by the libsql driver.
var RemoteSchemes = []string{"libsql", "https", "http", "wss", "ws"}

// IsRemoteURL reports whether dbURL names a remote SQLite-compatible store.
func IsRemoteURL(dbURL string) bool {
	u, err := url.Parse(dbURL)
	if err != nil || u.Host == "" {
		return false
	}
	for _, scheme := range RemoteSchemes {
		if strings.EqualFold(u.Scheme, scheme) {
			return true
		}
	}
	return false
}

// RedactURL removes credentials and query parameters from a database URL.
// Use this before logging any connection string.
func RedactURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.Scheme == "" {
		if i := strings.IndexByte(dbURL, '?'); i >= 0 {
			return dbURL[:i]
		}
		return dbURL
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
	}
	u.RawQuery = ""
	return u.String()
}
