package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t77yq/cronmgr/internal/model"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream table events from NATS as JSON lines",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			publisher, err := a.connectEvents(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			events := make(chan *model.TableEvent, 16)
			if err := publisher.Subscribe(cmd.Context(), func(e *model.TableEvent) {
				events <- e
			}); err != nil {
				return err
			}

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case e := <-events:
					if err := enc.Encode(e); err != nil {
						return fmt.Errorf("failed to write event: %w", err)
					}
				}
			}
		}),
	}
}
