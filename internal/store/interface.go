package store

import "context"

// Store defines the table maintenance contract over a SQLite-compatible database.
// Statements run sequentially on a single session so that session-level
// pragmas such as foreign_keys apply to every following statement.
type Store interface {
	// ListTables returns user table names ordered by name, excluding reserved tables
	ListTables(ctx context.Context) ([]string, error)

	// CountRows returns the number of rows in table
	CountRows(ctx context.Context, table string) (int64, error)

	// DeleteRows removes every row from table and returns the affected row count
	DeleteRows(ctx context.Context, table string) (int64, error)

	// DropTable removes table; a missing table is not an error
	DropTable(ctx context.Context, table string) error

	// ResetSequences clears autoincrement counters for the given tables
	ResetSequences(ctx context.Context, tables []string) error

	// SetForeignKeys toggles foreign key enforcement for the session
	SetForeignKeys(ctx context.Context, enabled bool) error

	// Close closes the datastore connection
	Close() error
}
