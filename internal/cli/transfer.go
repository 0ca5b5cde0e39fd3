package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/nissyi-gh/todo/internal/codec"
	"github.com/nissyi-gh/todo/internal/prompt"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write every task as JSON or YAML (stdout when FILE is omitted or -)",
		Args:  rangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 && args[0] != "-" {
				path = args[0]
			}
			f, err := pickFormat(cmd, format, path)
			if err != nil {
				return err
			}

			s := a.headlessStore(cmd.Context())
			tasks := s.All()
			b, err := codec.Export(tasks, f)
			if err != nil {
				return err
			}
			if path == "" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(path, b, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(tasks), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension, else json)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every task with the contents of FILE (- for stdin)",
		Long: `Replace every task with the contents of FILE (- for stdin).

The whole document is validated first; on any error nothing is changed.
Reminder handles in the input are ignored and reminders are derived again.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
				path string
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				path = args[0]
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}

			f := codec.Sniff(data)
			if format != "" || path != "" {
				if f, err = pickFormat(cmd, format, path); err != nil {
					return err
				}
			}
			tasks, err := codec.Import(data, f)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s := a.headlessStore(ctx)
			if err := s.ReplaceAll(ctx, tasks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", len(tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from the file extension or content)")
	return cmd
}

func (a *app) promptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print an assistant prompt that returns an importable task list",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.headlessStore(cmd.Context())
			p, err := prompt.GenerateFromTasks(s.All())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), p)
			return err
		},
	}
}

// pickFormat prefers an explicit --format, then the file extension.
func pickFormat(cmd *cobra.Command, format, path string) (codec.Format, error) {
	if cmd.Flags().Changed("format") {
		f, err := codec.ParseFormat(format)
		if err != nil {
			return "", usageError{err}
		}
		return f, nil
	}
	return codec.FormatFromPath(path), nil
}
