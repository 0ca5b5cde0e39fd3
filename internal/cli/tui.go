package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nissyi-gh/todo/internal/logger"
	"github.com/nissyi-gh/todo/internal/query"
	"github.com/nissyi-gh/todo/internal/reminder"
	"github.com/nissyi-gh/todo/internal/reminder/local"
	"github.com/nissyi-gh/todo/internal/store"
	"github.com/nissyi-gh/todo/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var platform reminder.Platform = reminder.Disabled{}
	if a.cfg.Reminders.Enabled {
		lp := local.New()
		defer lp.Close()
		platform = lp
	}
	sched := reminder.New(platform, a.clock, reminder.WithLead(a.cfg.Reminders.Lead))
	sched.Init(ctx)

	s := store.New(a.kv, sched, a.clock)
	tasks := s.Load(ctx)
	logger.Info("TUI: starting", zap.Int("tasks", len(tasks)), zap.Bool("reminders", sched.Enabled()))

	m := ui.NewModel(ctx, s, query.NewEngine(a.clock), ui.WithQuery(query.Options{
		Filter:        a.cfg.Filter(),
		ShowCompleted: a.cfg.UI.ShowCompleted,
	}))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// the store must drop the handle before the UI re-derives its rows
	sched.OnFire(func(alert reminder.Alert) {
		s.ReminderFired(ctx, alert)
		p.Send(ui.ReminderMsg(alert))
	})
	go sched.Run(ctx)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
