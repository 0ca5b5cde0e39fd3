package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/model"
	"github.com/nissyi-gh/todo/internal/query"
	"github.com/nissyi-gh/todo/internal/store"
	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var (
		filter        string
		showCompleted bool
		search        string
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks: completion filter, then date range, then search",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("filter") {
				filter = a.cfg.UI.Filter
			}
			if !cmd.Flags().Changed("show-completed") {
				showCompleted = a.cfg.UI.ShowCompleted
			}
			kind, err := model.ParseFilterKind(filter)
			if err != nil {
				return usageError{err}
			}

			s := a.headlessStore(cmd.Context())
			engine := a.engine()
			tasks := engine.Derive(s.All(), query.Options{Filter: kind, ShowCompleted: showCompleted, Search: search})

			if asJSON {
				b, err := codec.Export(tasks, codec.JSON)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}

			loc := engine.Location
			now := engine.Clock.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDONE\tDUE\tTITLE\tTAGS")
			for _, t := range tasks {
				check := "[ ]"
				if t.Done {
					check = "[x]"
				}
				due := "-"
				if t.DueAt != nil {
					due = t.DueAt.In(loc).Format("2006-01-02 15:04")
					if t.IsOverdue(now) {
						due += " !"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, check, due, t.Title, strings.Join(t.Tags, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "date range: all, today or week")
	cmd.Flags().BoolVarP(&showCompleted, "show-completed", "c", true, "include completed tasks")
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive text in title, note or tags")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var (
		due  string
		tags []string
		note string
	)
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Create a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine := a.engine()

			var dueAt *time.Time
			if due != "" {
				t, err := parseDue(due, engine.Location)
				if err != nil {
					return err
				}
				dueAt = &t
			}

			s := a.headlessStore(ctx)
			t, err := s.Create(ctx, strings.Join(args, " "), dueAt, model.SplitTags(strings.Join(tags, ",")))
			if err != nil {
				return err
			}
			if note != "" {
				if t, err = s.Update(ctx, t.ID, model.WithNote(note)); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", t.ID, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "due time, e.g. 2026-10-18 or \"2026-10-18 14:30\"")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable or comma separated)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "free-form note")
	return cmd
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle a task between open and done",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := a.headlessStore(ctx)
			id, err := resolveID(s, args[0])
			if err != nil {
				return err
			}
			t, err := s.ToggleDone(ctx, id)
			if err != nil {
				return err
			}
			state := "Reopened"
			if t.Done {
				state = "Done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", state, t.ID, t.Title)
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var (
		title    string
		note     string
		due      string
		clearDue bool
		tags     string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's title, note, tags or due time",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var opts []model.Option
			if flags.Changed("title") {
				opts = append(opts, model.WithTitle(title))
			}
			if flags.Changed("note") {
				opts = append(opts, model.WithNote(note))
			}
			if flags.Changed("tags") {
				opts = append(opts, model.WithTags(model.SplitTags(tags)))
			}
			if flags.Changed("due") && clearDue {
				return usageError{errors.New("--due and --clear-due are mutually exclusive")}
			}
			if flags.Changed("due") {
				t, err := parseDue(due, a.engine().Location)
				if err != nil {
					return err
				}
				opts = append(opts, model.WithDueAt(t))
			}
			if clearDue {
				opts = append(opts, model.WithoutDueAt())
			}
			if len(opts) == 0 {
				return usageError{errors.New("nothing to change: pass --title, --note, --tags, --due or --clear-due")}
			}

			ctx := cmd.Context()
			s := a.headlessStore(ctx)
			id, err := resolveID(s, args[0])
			if err != nil {
				return err
			}
			t, err := s.Update(ctx, id, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", t.ID, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&note, "note", "", "new note (empty clears)")
	cmd.Flags().StringVar(&due, "due", "", "new due time")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due time")
	cmd.Flags().StringVar(&tags, "tags", "", "replace tags (comma separated, empty clears)")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task; an unknown id is ignored",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := a.headlessStore(ctx)
			id, err := resolveID(s, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			t, _ := s.Get(id)
			if err := s.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", t.ID, t.Title)
			return nil
		},
	}
}
