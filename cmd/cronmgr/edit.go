package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/t77yq/cronmgr/internal/crontab"
	"github.com/t77yq/cronmgr/internal/manager"
)

// NewAddCommand creates the add command
func NewAddCommand(a *app) *cobra.Command {
	var (
		line      string
		schedule  string
		outputLog string
		errorLog  string
		comment   string
		suspended bool
	)

	cmd := &cobra.Command{
		Use:   "add [flags] -- <command...>",
		Short: "Append a record and save the table",
		Example: `  cronmgr add --schedule "*/5 * * * *" --output /var/log/job.log -- /usr/local/bin/job --quiet
  cronmgr add --line "0 3 * * * backup.sh 2> /tmp/backup.err #nightly"`,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var rec *crontab.Record
			var err error

			if line != "" {
				if len(args) > 0 {
					return fmt.Errorf("--line cannot be combined with a command")
				}
				rec, err = a.parser().ParseLine(line)
			} else {
				if len(args) == 0 {
					return fmt.Errorf("a command or --line is required")
				}
				b := crontab.NewBuilder().
					Schedule(schedule).
					Command(strings.Join(args, " ")).
					Comment(comment).
					Suspended(suspended)
				if outputLog != "" {
					b.OutputLog(outputLog)
				}
				if errorLog != "" {
					b.ErrorLog(errorLog)
				}
				rec, err = b.Build()
			}
			if err != nil {
				return err
			}

			return a.edit(cmd, func(m *manager.Manager) error {
				return m.Add(rec)
			})
		}),
	}

	cmd.Flags().StringVarP(&line, "line", "l", "", "Complete task line to add")
	cmd.Flags().StringVarP(&schedule, "schedule", "s", "* * * * *", "Five field schedule expression")
	cmd.Flags().StringVarP(&outputLog, "output", "o", "", "Redirect standard output to this file")
	cmd.Flags().StringVarP(&errorLog, "error", "e", "", "Redirect standard error to this file")
	cmd.Flags().StringVar(&comment, "comment", "", "Trailing comment")
	cmd.Flags().BoolVar(&suspended, "suspended", false, "Add the record suspended")

	return cmd
}

// NewRemoveCommand creates the remove command
func NewRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove a record and save the table",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return a.edit(cmd, func(m *manager.Manager) error {
				removed, err := m.Remove(index)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed: %s\n", removed)
				return nil
			})
		}),
	}
}

// NewSuspendCommand creates the suspend command
func NewSuspendCommand(a *app) *cobra.Command {
	return newIndexCommand(a, "suspend", "Suspend a record and save the table", (*manager.Manager).Suspend)
}

// NewResumeCommand creates the resume command
func NewResumeCommand(a *app) *cobra.Command {
	return newIndexCommand(a, "resume", "Resume a suspended record and save the table", (*manager.Manager).Resume)
}

func newIndexCommand(a *app, use, short string, fn func(*manager.Manager, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <index>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return a.edit(cmd, func(m *manager.Manager) error {
				return fn(m, index)
			})
		}),
	}
}

// edit loads the table, applies fn and saves the result
func (a *app) edit(cmd *cobra.Command, fn func(*manager.Manager) error) error {
	ctx := cmd.Context()
	m, err := a.loadManager(ctx)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), m.Warnings())

	if err := fn(m); err != nil {
		return err
	}

	res, err := m.Save(ctx)
	if err != nil {
		return err
	}

	if res.SnapshotID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d records (snapshot %s)\n", res.Records, res.SnapshotID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d records\n", res.Records)
	}
	return nil
}
