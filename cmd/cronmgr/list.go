package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/t77yq/cronmgr/internal/crontab"
)

type warningJSON struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

type listJSON struct {
	Records  []*crontab.Record `json:"records"`
	Warnings []warningJSON     `json:"warnings,omitempty"`
}

// NewListCommand creates the list command
func NewListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of the table",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManager(cmd.Context())
			if err != nil {
				return err
			}
			records, err := m.Records()
			if err != nil {
				return err
			}
			warnings := m.Warnings()

			if asJSON {
				out := listJSON{Records: records}
				if out.Records == nil {
					out.Records = []*crontab.Record{}
				}
				for _, w := range warnings {
					out.Warnings = append(out.Warnings, warningJSON{Line: w.Line, Raw: w.Raw, Reason: w.Reason()})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			printRecords(cmd.OutOrStdout(), records)
			printWarnings(cmd.ErrOrStderr(), warnings)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}

func printRecords(w io.Writer, records []*crontab.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tSTATE\tSTATUS\tSCHEDULE\tCOMMAND\tLAST RUN")
	for i, r := range records {
		state := "active"
		if r.Suspended() {
			state = "suspended"
		}
		lastRun := "-"
		if t, ok := r.LastRunTime(); ok {
			lastRun = t.Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i, state, r.Status(), r.Expression(), r.Command(), lastRun)
	}
	tw.Flush()
}

func printWarnings(w io.Writer, warnings []*crontab.LineError) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: line %d skipped: %s\n", warning.Line, warning.Reason())
	}
}
