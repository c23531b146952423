package sqlite

const (
	listTablesQuery = `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`

	sequenceTableExistsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'`

	resetSequenceStmt = `DELETE FROM sqlite_sequence WHERE name = ?`
)

// localPragmas are passed in the modernc DSN so every new connection gets them.
var localPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

// remotePragmas are executed on the pinned remote connection after opening.
var remotePragmas = []string{
	"PRAGMA foreign_keys=ON",
}
