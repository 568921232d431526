package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command
func NewCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Parse crontab text from a file or stdin and report bad lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			table, warnings := a.parser().ParseTable(string(data))
			printWarnings(cmd.OutOrStdout(), warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "%d records, %d skipped lines\n", table.Len(), len(warnings))

			if len(warnings) > 0 {
				return fmt.Errorf("%d lines could not be parsed", len(warnings))
			}
			return nil
		}),
	}
}
