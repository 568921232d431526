package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLintCommand creates the lint command
func NewLintCommand(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report schedules that are valid but suspicious",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManager(cmd.Context())
			if err != nil {
				return err
			}
			findings, err := m.Lint()
			if err != nil {
				return err
			}

			for _, f := range findings {
				fmt.Fprintln(cmd.OutOrStdout(), f.String())
			}
			if strict && len(findings) > 0 {
				return fmt.Errorf("%d lint findings", len(findings))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when there are findings")

	return cmd
}
