package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the cronmgr command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "cronmgr",
		Short:         "Inspect and edit crontab tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Config file (default ./config/cronmgr.yaml)")

	cmd.AddCommand(
		NewListCommand(a),
		NewAddCommand(a),
		NewRemoveCommand(a),
		NewSuspendCommand(a),
		NewResumeCommand(a),
		NewLintCommand(a),
		NewCheckCommand(a),
		NewHistoryCommand(a),
		NewDaemonCommand(a),
		NewLogsCommand(a),
		NewWatchCommand(a),
	)

	return cmd
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", arg, err)
	}
	return index, nil
}
