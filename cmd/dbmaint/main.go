package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/maloquacious/semver"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/maloquacious/dbmaint/internal/config"
	"github.com/maloquacious/dbmaint/internal/logger"
	"github.com/maloquacious/dbmaint/internal/maintenance"
	"github.com/maloquacious/dbmaint/internal/store/sqlite"
)

var (
	version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	envFiles []string
	logLevel string
}

// runFlags select tables and gate the destructive phase.
type runFlags struct {
	confirm     bool
	tables      string
	dryRun      bool
	drop        bool
	interactive bool
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Logs are written to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	gf := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "dbmaint",
		Short:        "Clean or drop tables in the application database",
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringSliceVar(&gf.envFiles, "env-file", []string{".env.local", ".env"}, "dotenv files to load; earlier files win")
	rootCmd.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	// clean command
	cleanFlags := &runFlags{}
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete all rows from user tables and reset autoincrement counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			op := maintenance.OpClean
			if cleanFlags.drop {
				op = maintenance.OpDrop
			}
			return runMaintenance(cmd, gf, cleanFlags, op, logOut)
		},
	}
	addRunFlags(cleanCmd, cleanFlags, true)

	// drop command
	dropFlags := &runFlags{}
	dropCmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop user tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintenance(cmd, gf, dropFlags, maintenance.OpDrop, logOut)
		},
	}
	addRunFlags(dropCmd, dropFlags, false)

	// tables command
	var tablesFilter string
	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "List user tables with row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd, gf, tablesFilter, logOut)
		},
	}
	tablesCmd.Flags().StringVar(&tablesFilter, "tables", "", "comma-separated table names to include")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Describe the environment variables dbmaint reads",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
		},
	}

	rootCmd.AddCommand(cleanCmd, dropCmd, tablesCmd, versionCmd, envCmd)
	return rootCmd
}

func addRunFlags(cmd *cobra.Command, f *runFlags, withDrop bool) {
	cmd.Flags().BoolVar(&f.confirm, "confirm", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&f.tables, "tables", "", "comma-separated table names; unknown names are skipped")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "show what would be affected without changing anything")
	cmd.Flags().BoolVar(&f.interactive, "interactive", true, "show the banner and scope menu when no tables are given")
	if withDrop {
		cmd.Flags().BoolVar(&f.drop, "drop", false, "drop tables instead of deleting rows")
	}
}

// session holds what every database command needs.
type session struct {
	cfg   *config.Config
	log   *logger.ZapLogger
	store *sqlite.SQLiteStore
	once  sync.Once
}

// Close closes the store and flushes the log. It is safe to call more than once.
func (s *session) Close() {
	s.once.Do(func() {
		if err := s.store.Close(); err != nil {
			s.log.Warn("failed to close database: %v", err)
		}
		_ = s.log.Sync()
	})
}

// openSession loads configuration, builds the logger and opens the store.
func openSession(ctx context.Context, gf *globalFlags, logOut io.Writer, fields ...any) (*session, error) {
	cfg, err := config.Load(gf.envFiles...)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if gf.logLevel != "" {
		level = gf.logLevel
	}
	log := logger.New(level, zapcore.Lock(zapcore.AddSync(logOut))).With(append([]any{"run_id", uuid.NewString()}, fields...)...)
	log.Debug("using database %s", cfg.Database.Redacted())

	st := sqlite.FromURL(cfg.Database.URL, cfg.Database.AuthToken)
	if err := st.Open(ctx); err != nil {
		log.Error("failed to connect: %v", err)
		_ = log.Sync()
		return nil, err
	}
	return &session{cfg: cfg, log: log, store: st}, nil
}

func newReporter(w io.Writer) *maintenance.Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return maintenance.NewReporter(w, version.String(), color)
}

func runMaintenance(cmd *cobra.Command, gf *globalFlags, f *runFlags, op maintenance.Operation, logOut io.Writer) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, err := openSession(ctx, gf, logOut, "op", op.String())
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := maintenance.Options{
		Operation:   op,
		Tables:      maintenance.ParseTableList(f.tables),
		Confirm:     f.confirm,
		DryRun:      f.dryRun,
		Interactive: f.interactive,
	}
	out := cmd.OutOrStdout()
	tool := maintenance.New(sess.store, opts, maintenance.NewLinePrompter(cmd.InOrStdin(), out), newReporter(out), sess.log)

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	interrupts := maintenance.NewInterruptHandler(tool, cancel, sess.cfg.Maintenance.InterruptTimeout, cmd.ErrOrStderr(), sess.log)
	interrupts.OnExit(sess.Close)
	interrupts.Watch(sigs)

	res, err := tool.Run(ctx)
	if interrupts.Handling() {
		// cancel is only reachable through the handler, so a cancelled run
		// always lands here; the handler decides the exit status
		interrupts.Wait()
	}
	if err != nil {
		return err
	}
	sess.log.Debug("run finished: outcome=%s duration=%s", res.Outcome, res.Duration)
	return nil
}

func runTables(cmd *cobra.Command, gf *globalFlags, filter string, logOut io.Writer) error {
	sess, err := openSession(cmd.Context(), gf, logOut, "op", "tables")
	if err != nil {
		return err
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	opts := maintenance.Options{Tables: maintenance.ParseTableList(filter), DryRun: true}
	tool := maintenance.New(sess.store, opts, nil, newReporter(out), sess.log)
	if _, err := tool.Inspect(cmd.Context()); err != nil {
		return err
	}

	on, err := sess.store.ForeignKeysEnabled(cmd.Context())
	if err != nil {
		return err
	}
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintf(out, "Foreign key enforcement: %s\n", state)
	return nil
}
