package maintenance

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	ansiBold   = "\x1b[1m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiReset  = "\x1b[0m"
)

// Reporter writes operator-facing output. Diagnostics go to the logger instead.
type Reporter struct {
	w       io.Writer
	version string
	color   bool
}

// NewReporter returns a Reporter writing to w. color enables ANSI emphasis.
func NewReporter(w io.Writer, version string, color bool) *Reporter {
	return &Reporter{w: w, version: version, color: color}
}

func (r *Reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

func (r *Reporter) Line(msg string) {
	fmt.Fprintln(r.w, msg)
}

func (r *Reporter) Warning(msg string) {
	fmt.Fprintln(r.w, r.paint(ansiYellow, "warning: "+msg))
}

func (r *Reporter) Progress(msg string) {
	fmt.Fprintln(r.w, "  "+msg)
}

func (r *Reporter) Banner(op Operation) {
	title := fmt.Sprintf("dbmaint %s - database %s", r.version, op)
	fmt.Fprintln(r.w, r.paint(ansiBold, title))
	fmt.Fprintln(r.w, strings.Repeat("=", len(title)))
}

func (r *Reporter) Menu(discovered int) {
	fmt.Fprintf(r.w, "Found %s %s.\n", formatCount(int64(discovered)), plural(int64(discovered), "table", "tables"))
	fmt.Fprintln(r.w, "  1) All tables")
	fmt.Fprintln(r.w, "  2) Select tables")
	fmt.Fprintln(r.w, "  3) Cancel")
}

// Tables prints the selection with per-table counts and the aggregate.
func (r *Reporter) Tables(tables []Table) {
	width := 0
	for _, t := range tables {
		width = max(width, len(t.Name))
	}

	fmt.Fprintf(r.w, "Tables (%d):\n", len(tables))
	for _, t := range tables {
		count := "unknown"
		if t.Counted {
			count = formatCount(t.Rows) + " " + plural(t.Rows, "row", "rows")
		}
		fmt.Fprintf(r.w, "  %-*s  %s\n", width, t.Name, count)
	}
	total := totalRows(tables)
	fmt.Fprintf(r.w, "Total: %s %s\n", formatCount(total), plural(total, "row", "rows"))
}

func (r *Reporter) ConfirmWarning(op Operation, tables []Table) {
	var msg string
	if op == OpDrop {
		msg = fmt.Sprintf("This will permanently DROP %d %s and all of their data.",
			len(tables), plural(int64(len(tables)), "table", "tables"))
	} else {
		total := totalRows(tables)
		msg = fmt.Sprintf("This will permanently DELETE %s %s from %d %s.",
			formatCount(total), plural(total, "row", "rows"),
			len(tables), plural(int64(len(tables)), "table", "tables"))
	}
	fmt.Fprintln(r.w, r.paint(ansiRed, msg))
	fmt.Fprintln(r.w, r.paint(ansiRed, "This action cannot be undone."))
}

func (r *Reporter) Summary(res *Result) {
	fmt.Fprintln(r.w, r.paint(ansiBold, "Done."))
	fmt.Fprintf(r.w, "  Tables processed: %d\n", res.TablesProcessed)
	if res.Operation == OpClean {
		fmt.Fprintf(r.w, "  Rows deleted:     %s\n", formatCount(res.RowsDeleted))
	}
	fmt.Fprintf(r.w, "  Duration:         %s\n", res.Duration.Round(time.Millisecond))
}

func formatCount(n int64) string {
	return humanize.Comma(n)
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
