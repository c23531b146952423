package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/maloquacious/dbmaint/internal/store"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	localDriver  = "sqlite"
	remoteDriver = "libsql"
)

// SQLiteStore implements the Store interface over a local SQLite file
// (modernc.org/sqlite) or a remote libsql server (libsql-client-go).
type SQLiteStore struct {
	driver string
	dsn    string
	dbPath string // empty for remote stores
	token  string
	db     *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLiteStore for the database file at dbPath.
func New(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		driver: localDriver,
		dsn:    localDSN(dbPath),
		dbPath: dbPath,
	}
}

// NewRemote creates a SQLiteStore for a libsql URL. authToken may be empty.
func NewRemote(dbURL, authToken string) *SQLiteStore {
	return &SQLiteStore{
		driver: remoteDriver,
		dsn:    remoteDSN(dbURL, authToken),
		token:  authToken,
	}
}

// FromURL picks a local or remote store for dbURL.
func FromURL(dbURL, authToken string) *SQLiteStore {
	if p, ok := store.LocalPath(dbURL); ok {
		return New(p)
	}
	return NewRemote(dbURL, authToken)
}

func localDSN(dbPath string) string {
	params := make([]string, 0, len(localPragmas))
	for _, pragma := range localPragmas {
		params = append(params, "_pragma="+pragma)
	}
	return dbPath + "?" + strings.Join(params, "&")
}

func remoteDSN(dbURL, authToken string) string {
	if authToken == "" {
		return dbURL
	}
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}
	q := u.Query()
	if q.Get("authToken") == "" {
		q.Set("authToken", authToken)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted returns the connection target without credentials.
func (s *SQLiteStore) Redacted() string {
	if s.dbPath != "" {
		return s.dbPath
	}
	return store.RedactURL(s.dsn)
}

// scrub removes the auth token from driver errors, which may echo the DSN.
func (s *SQLiteStore) scrub(err error) string {
	msg := err.Error()
	if s.token == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(s.token), "REDACTED")
	return strings.ReplaceAll(msg, s.token, "REDACTED")
}

// Open opens the database with safe defaults.
// A local store refuses to create a database file that does not exist yet.
func (s *SQLiteStore) Open(ctx context.Context) error {
	if s.dbPath != "" {
		exists, err := store.CheckExists(s.dbPath)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("database file not found: %s", s.dbPath)
		}
	}

	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %s", s.Redacted(), s.scrub(err))
	}

	// foreign_keys is per connection; SetForeignKeys must hit the same session
	// as the statements that follow it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if s.driver == remoteDriver {
		for _, pragma := range remotePragmas {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return fmt.Errorf("failed to set pragma %q on %s: %s", pragma, s.Redacted(), s.scrub(err))
			}
		}
	} else if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to open database %s: %w", s.Redacted(), err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ListTables returns user tables ordered by name.
func (s *SQLiteStore) ListTables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if store.IsReservedTable(name) {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// CountRows returns the number of rows in table.
func (s *SQLiteStore) CountRows(ctx context.Context, table string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+store.QuoteIdent(table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// DeleteRows deletes every row in table.
func (s *SQLiteStore) DeleteRows(ctx context.Context, table string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+store.QuoteIdent(table))
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows for %s: %w", table, err)
	}
	return n, nil
}

// DropTable drops table if it exists.
func (s *SQLiteStore) DropTable(ctx context.Context, table string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+store.QuoteIdent(table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}

// ResetSequences removes the sqlite_sequence entries for tables.
// Databases without AUTOINCREMENT tables have no sqlite_sequence and are left alone.
func (s *SQLiteStore) ResetSequences(ctx context.Context, tables []string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, sequenceTableExistsQuery).Scan(&count); err != nil {
		return fmt.Errorf("failed to check sqlite_sequence table: %w", err)
	}
	if count == 0 {
		return nil
	}

	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, resetSequenceStmt, table); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

// SetForeignKeys toggles foreign key enforcement on the session.
func (s *SQLiteStore) SetForeignKeys(ctx context.Context, enabled bool) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	pragma := "PRAGMA foreign_keys=OFF"
	if enabled {
		pragma = "PRAGMA foreign_keys=ON"
	}
	if _, err := s.db.ExecContext(ctx, pragma); err != nil {
		return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
	}
	return nil
}

// ForeignKeysEnabled reports the current session setting.
func (s *SQLiteStore) ForeignKeysEnabled(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("database not opened")
	}

	var on int
	if err := s.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
		return false, fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}
	return on == 1, nil
}
