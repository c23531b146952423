package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/maloquacious/dbmaint/internal/logger"
	"github.com/maloquacious/dbmaint/internal/store"
)

// RestoreTimeout bounds the best-effort restore after a failed destructive phase.
const RestoreTimeout = 5 * time.Second

// menuAttempts is how many invalid menu answers are tolerated before cancelling.
const menuAttempts = 3

// Tool runs one maintenance pass against a store.
type Tool struct {
	store    store.Store
	opts     Options
	prompter Prompter
	report   *Reporter
	log      logger.Logger
	guard    *integrityGuard
	phase    phaseMarker
	now      func() time.Time
}

// New creates a Tool. The store must already be open and stays owned by the caller.
func New(s store.Store, opts Options, p Prompter, r *Reporter, log logger.Logger) *Tool {
	return &Tool{
		store:    s,
		opts:     opts,
		prompter: p,
		report:   r,
		log:      log,
		guard:    &integrityGuard{store: s},
		now:      time.Now,
	}
}

// InFlight returns a channel closed when the running destructive phase ends.
// ok is false when no destructive phase is running.
func (t *Tool) InFlight() (done <-chan struct{}, ok bool) {
	return t.phase.inFlight()
}

// RestoreIntegrity re-enables foreign key enforcement if this tool disabled it.
func (t *Tool) RestoreIntegrity(ctx context.Context) error {
	return t.guard.Restore(ctx)
}

// Run executes discovery, selection, statistics, confirmation and the
// destructive phase. Cancellation and empty selections are reported through
// Result.Outcome, not as errors.
func (t *Tool) Run(ctx context.Context) (*Result, error) {
	started := t.now()
	res := &Result{Operation: t.opts.Operation}

	useMenu := t.opts.Interactive && len(t.opts.Tables) == 0 && !t.opts.Confirm
	if useMenu {
		t.report.Banner(t.opts.Operation)
	}

	discovered, err := t.discover(ctx)
	if err != nil {
		return nil, err
	}

	names := t.filter(discovered)
	if useMenu && len(discovered) > 0 {
		choice, err := t.chooseScope(ctx, len(discovered))
		if err != nil {
			return nil, err
		}
		switch choice {
		case ChoiceSubset:
			t.report.Line("Selecting individual tables is not supported yet. Use --tables=a,b instead.")
			res.Outcome = OutcomeSubsetUnsupported
			return t.finish(res, started), nil
		case ChoiceCancel:
			t.report.Line("Cancelled. No changes were made.")
			res.Outcome = OutcomeCancelled
			return t.finish(res, started), nil
		}
	}

	if len(names) == 0 {
		t.report.Line("No tables to process.")
		res.Outcome = OutcomeNothingToDo
		return t.finish(res, started), nil
	}

	res.Tables = t.collectStats(ctx, names)
	t.report.Tables(res.Tables)

	if t.opts.DryRun {
		t.report.Line(fmt.Sprintf("Dry run: no tables were %s.", pastTense(t.opts.Operation)))
		res.Outcome = OutcomeDryRun
		return t.finish(res, started), nil
	}

	if !t.opts.Confirm {
		ok, err := t.confirm(ctx, res.Tables)
		if err != nil {
			return nil, err
		}
		if !ok {
			t.report.Line("Cancelled. No changes were made.")
			res.Outcome = OutcomeCancelled
			return t.finish(res, started), nil
		}
	}

	processed, deleted, err := t.destroy(ctx, res.Tables)
	if err != nil {
		return nil, err
	}

	res.Outcome = OutcomeCompleted
	res.TablesProcessed = processed
	res.RowsDeleted = deleted
	t.finish(res, started)
	t.report.Summary(res)
	t.log.Info("%s completed: tables=%d rows=%d duration=%s", t.opts.Operation, processed, deleted, res.Duration)
	return res, nil
}

// Inspect returns the selected tables with row counts. It never prompts or mutates.
func (t *Tool) Inspect(ctx context.Context) ([]Table, error) {
	discovered, err := t.discover(ctx)
	if err != nil {
		return nil, err
	}
	tables := t.collectStats(ctx, t.filter(discovered))
	t.report.Tables(tables)
	return tables, nil
}

func (t *Tool) discover(ctx context.Context) ([]string, error) {
	discovered, err := t.store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover tables: %w", err)
	}
	t.log.Debug("discovered %d tables", len(discovered))
	return discovered, nil
}

// filter applies the explicit table list, warning about names that do not exist.
func (t *Tool) filter(discovered []string) []string {
	if len(t.opts.Tables) == 0 {
		return discovered
	}
	selected, missing := SelectTables(discovered, t.opts.Tables)
	for _, name := range missing {
		t.log.Warn("table %q not found, skipping", name)
		t.report.Warning(fmt.Sprintf("Table %q not found, skipping", name))
	}
	return selected
}

func (t *Tool) finish(res *Result, started time.Time) *Result {
	res.Duration = t.now().Sub(started)
	return res
}

// collectStats counts rows per table. A failed count degrades to zero.
func (t *Tool) collectStats(ctx context.Context, names []string) []Table {
	tables := make([]Table, 0, len(names))
	for _, name := range names {
		n, err := t.store.CountRows(ctx, name)
		if err != nil {
			t.log.Warn("could not count rows in %q: %v", name, err)
			tables = append(tables, Table{Name: name})
			continue
		}
		tables = append(tables, Table{Name: name, Rows: n, Counted: true})
	}
	return tables
}

func (t *Tool) chooseScope(ctx context.Context, discovered int) (Choice, error) {
	for attempt := 0; attempt < menuAttempts; attempt++ {
		t.report.Menu(discovered)
		answer, err := t.prompter.Prompt(ctx, "Choose an option [1-3]: ")
		if err != nil {
			return ChoiceCancel, fmt.Errorf("failed to read menu choice: %w", err)
		}
		if choice := ResolveMenuChoice(answer); choice != ChoiceInvalid {
			return choice, nil
		}
		t.report.Warning(fmt.Sprintf("Invalid choice %q", answer))
	}
	return ChoiceCancel, nil
}

func (t *Tool) confirm(ctx context.Context, tables []Table) (bool, error) {
	t.report.ConfirmWarning(t.opts.Operation, tables)
	answer, err := t.prompter.Prompt(ctx, "Are you sure you want to continue? [y/N]: ")
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return IsAffirmative(answer, false), nil
}

// destroy runs the destructive phase with foreign keys disabled.
func (t *Tool) destroy(ctx context.Context, tables []Table) (processed int, deleted int64, err error) {
	t.phase.begin()
	defer t.phase.end()

	fail := func(err error) (int, int64, error) {
		t.log.Error("%s failed after %d tables: %v", t.opts.Operation, processed, err)
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RestoreTimeout)
		defer cancel()
		if rerr := t.guard.Restore(rctx); rerr != nil {
			t.log.Error("%v", rerr)
		}
		return processed, deleted, err
	}

	if err := t.guard.Disable(ctx); err != nil {
		return fail(err)
	}

	names := make([]string, 0, len(tables))
	for _, tbl := range tables {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("interrupted before %q: %w", tbl.Name, err))
		}

		switch t.opts.Operation {
		case OpDrop:
			if err := t.store.DropTable(ctx, tbl.Name); err != nil {
				return fail(err)
			}
			t.report.Progress(fmt.Sprintf("Dropped %s", tbl.Name))
		default:
			before, err := t.store.CountRows(ctx, tbl.Name)
			if err != nil {
				return fail(err)
			}
			affected, err := t.store.DeleteRows(ctx, tbl.Name)
			if err != nil {
				return fail(err)
			}
			if affected != before {
				t.log.Debug("table %q: counted %d rows, driver reported %d deleted", tbl.Name, before, affected)
			}
			deleted += before
			t.report.Progress(fmt.Sprintf("Cleaned %s (%s rows)", tbl.Name, formatCount(before)))
		}
		names = append(names, tbl.Name)
		processed++
	}

	if t.opts.Operation == OpClean {
		if err := t.store.ResetSequences(ctx, names); err != nil {
			return fail(err)
		}
	}

	if err := t.guard.Restore(ctx); err != nil {
		return fail(err)
	}
	return processed, deleted, nil
}

func pastTense(op Operation) string {
	if op == OpDrop {
		return "dropped"
	}
	return "cleaned"
}
