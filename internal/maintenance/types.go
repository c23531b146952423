// Package maintenance implements bulk table cleanup for a SQLite-compatible store.
//
// A run discovers user tables, narrows them to a selection, reports row
// counts, asks for confirmation and then either deletes every row
// (resetting autoincrement counters) or drops the tables. Foreign key
// enforcement is switched off for the destructive phase and is always
// switched back on afterwards, including on failure and on interrupt.
//
// Tables are processed one at a time. The destructive phase is not
// transactional across tables: a failure part way leaves earlier tables
// already cleaned or dropped.
package maintenance

import "time"

// Operation selects what the destructive phase does to each table.
type Operation int

const (
	OpClean Operation = iota // delete all rows and reset sequences
	OpDrop                   // drop the table
)

func (o Operation) String() string {
	if o == OpDrop {
		return "drop"
	}
	return "clean"
}

// Table describes a user table. Rows is only meaningful when Counted is set.
type Table struct {
	Name    string
	Rows    int64
	Counted bool
}

// Outcome describes how a run ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeDryRun
	OutcomeCancelled
	OutcomeNothingToDo
	OutcomeSubsetUnsupported
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeDryRun:
		return "dry-run"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNothingToDo:
		return "nothing-to-do"
	case OutcomeSubsetUnsupported:
		return "subset-unsupported"
	}
	return "unknown"
}

// Result summarizes a run. RowsDeleted is always zero for OpDrop.
type Result struct {
	Outcome         Outcome
	Operation       Operation
	Tables          []Table
	TablesProcessed int
	RowsDeleted     int64
	Duration        time.Duration
}

// TotalRows sums the counted rows of the selected tables.
func (r *Result) TotalRows() int64 {
	return totalRows(r.Tables)
}

func totalRows(tables []Table) int64 {
	var n int64
	for _, t := range tables {
		n += t.Rows
	}
	return n
}

// Options control a single run.
type Options struct {
	Operation   Operation
	Tables      []string // explicit selection; empty means all tables
	Confirm     bool     // skip the confirmation prompt
	DryRun      bool     // stop after reporting statistics
	Interactive bool     // show the banner and the scope menu
}
