// Package cli wires configuration, storage and reminders into the todo
// command tree. Running todo without a subcommand opens the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nissyi-gh/todo/internal/clock"
	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/config"
	"github.com/nissyi-gh/todo/internal/logger"
	"github.com/nissyi-gh/todo/internal/query"
	"github.com/nissyi-gh/todo/internal/reminder"
	"github.com/nissyi-gh/todo/internal/storage"
	"github.com/nissyi-gh/todo/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitUsage    = 2
	ExitNotFound = 3
)

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.As(err, &ue), errors.Is(err, store.ErrValidation), errors.Is(err, codec.ErrFormat):
		return ExitUsage
	}
	return ExitInternal
}

// app holds what PersistentPreRunE resolves for the command being run.
type app struct {
	cfgFile string
	dbPath  string
	driver  string

	clock clock.Clock
	cfg   *config.Config
	kv    storage.KV
}

type Option func(*app)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(a *app) {
		a.clock = c
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "todo - a terminal task list with due-time reminders",
		Long: `todo keeps a personal task list with optional due times, tags and notes.

Without a subcommand it opens the interactive UI, which also delivers a
reminder 10 minutes before each open task is due.`,
		Args:              noArgs,
		RunE:              a.runTUI,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/todo/config.yaml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "storage path: sqlite file or directory for the file driver")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "storage driver: sqlite, file or memory")

	root.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.doneCmd(),
		a.editCmd(),
		a.rmCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.promptCmd(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	a := &app{clock: clock.System{}}
	for _, opt := range opts {
		opt(a)
	}
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return ExitCode(err)
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	v := config.New()
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("storage.path", flags.Lookup("db")); err != nil {
		return fmt.Errorf("bind flag: %w", err)
	}
	if err := v.BindPFlag("storage.driver", flags.Lookup("driver")); err != nil {
		return fmt.Errorf("bind flag: %w", err)
	}

	cfg, err := config.Load(v, a.cfgFile)
	if err != nil {
		return usageError{err}
	}
	a.cfg = cfg

	if err := logger.Init(logger.Options{
		File:        cfg.Log.File,
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		logger.Error("CLI: open storage", err, zap.String("driver", cfg.Storage.Driver))
		return err
	}
	a.kv = kv
	logger.Debug("CLI: ready", zap.String("command", cmd.Name()), zap.String("driver", cfg.Storage.Driver))
	return nil
}

func (a *app) teardown() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			logger.Error("CLI: close storage", err)
		}
		a.kv = nil
	}
	logger.Sync()
}

// headlessStore loads the task store without live reminders: timers would not
// outlive the command, so every reminder is re-derived when the TUI next starts.
func (a *app) headlessStore(ctx context.Context) *store.TaskStore {
	sched := reminder.New(reminder.Disabled{}, a.clock, reminder.WithLead(a.cfg.Reminders.Lead))
	sched.Init(ctx)
	s := store.New(a.kv, sched, a.clock)
	s.Load(ctx)
	return s
}

func (a *app) engine() query.Engine {
	return query.NewEngine(a.clock)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(min, max)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
