package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/t77yq/cronmgr/internal/model"
	"github.com/t77yq/cronmgr/internal/monitor"
)

// NewDaemonCommand creates the daemon command
func NewDaemonCommand(a *app) *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Check that a cron daemon is running",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			probe := monitor.NewDaemonProbe(a.cfg.Daemon.Names, a.logger)
			out := cmd.OutOrStdout()

			if watch > 0 {
				probe.Watch(cmd.Context(), watch, func(status *model.DaemonStatus) {
					printDaemonStatus(out, status)
				})
				return nil
			}

			status, err := probe.Check(cmd.Context())
			if err != nil {
				return err
			}
			printDaemonStatus(out, status)
			if !status.Running {
				return fmt.Errorf("no cron daemon found (looked for %v)", a.cfg.Daemon.Names)
			}
			return nil
		}),
	}

	cmd.Flags().DurationVarP(&watch, "watch", "w", 0, "Check repeatedly at this interval")

	return cmd
}

func printDaemonStatus(w io.Writer, status *model.DaemonStatus) {
	if !status.Running {
		fmt.Fprintf(w, "%s cron daemon not running\n", status.CheckedAt.Format(time.DateTime))
		return
	}
	for _, p := range status.Processes {
		started := "-"
		if !p.StartedAt.IsZero() {
			started = p.StartedAt.Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s %s running (pid %d, started %s)\n", status.CheckedAt.Format(time.DateTime), p.Name, p.PID, started)
	}
}
