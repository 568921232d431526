package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/t77yq/cronmgr/internal/manager"
	"github.com/t77yq/cronmgr/internal/storage"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and restore saved table snapshots",
	}

	cmd.AddCommand(
		newHistoryListCommand(a),
		newHistoryShowCommand(a),
		newHistoryRestoreCommand(a),
		newHistoryPruneCommand(a),
	)

	return cmd
}

func (a *app) requireHistory() (storage.TableHistoryStorage, error) {
	history, err := a.openHistory()
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, manager.ErrHistoryDisabled
	}
	return history, nil
}

func newHistoryListCommand(a *app) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			history, err := a.requireHistory()
			if err != nil {
				return err
			}
			snapshots, err := history.List(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tACTION\tSOURCE\tRECORDS\tRESULT")
			for _, s := range snapshots {
				result := "ok"
				if s.Failed() {
					result = "failed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Action, s.Source, s.Records, result)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Number of snapshots to skip")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of snapshots")

	return cmd
}

func newHistoryShowCommand(a *app) *cobra.Command {
	var previous bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the table text written by a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			history, err := a.requireHistory()
			if err != nil {
				return err
			}
			s, err := history.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s %s %s\n", s.Action, s.Source, s.CreatedAt.Local().Format(time.RFC3339))
			if s.Failed() {
				fmt.Fprintf(out, "# failed: %s\n", s.Error)
			}
			if previous {
				fmt.Fprint(out, s.Previous)
			} else {
				fmt.Fprint(out, s.Current)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&previous, "previous", false, "Print the text the snapshot replaced")

	return cmd
}

func newHistoryRestoreCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Write back the table text a snapshot replaced",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManager(cmd.Context())
			if err != nil {
				return err
			}
			res, err := m.Restore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d records (snapshot %s)\n", res.Records, res.SnapshotID)
			return nil
		}),
	}
}

func newHistoryPruneCommand(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old snapshots",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			history, err := a.requireHistory()
			if err != nil {
				return err
			}
			age := olderThan
			if age <= 0 {
				age = a.cfg.History.Retention
			}
			deleted, err := history.DeleteBefore(cmd.Context(), time.Now().Add(-age))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d snapshots\n", deleted)
			return nil
		}),
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age of snapshots to delete (default history.retention)")

	return cmd
}
