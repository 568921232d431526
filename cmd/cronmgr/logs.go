package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t77yq/cronmgr/internal/inspect"
)

// NewLogsCommand creates the logs command
func NewLogsCommand(a *app) *cobra.Command {
	var (
		lines    int
		errorLog bool
	)

	cmd := &cobra.Command{
		Use:   "logs <index>",
		Short: "Print the end of a record's output or error log",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			m, err := a.loadManager(cmd.Context())
			if err != nil {
				return err
			}
			table, err := m.Table()
			if err != nil {
				return err
			}
			rec, err := table.At(index)
			if err != nil {
				return err
			}

			path, ok := rec.OutputLog()
			kind := "output"
			if errorLog {
				path, ok = rec.ErrorLog()
				kind = "error"
			}
			if !ok || path == "" {
				return fmt.Errorf("record %d has no %s log", index, kind)
			}

			tail, err := inspect.Tail(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		}),
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to print")
	cmd.Flags().BoolVarP(&errorLog, "error", "e", false, "Read the error log instead of the output log")

	return cmd
}
