package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/facilityclient"
	"github.com/teampro-ai/teampro/tools/teampro/internal/history"
)

func cancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel one of your bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			b, err := newClient().CancelBooking(ctx, args[0])
			if err != nil {
				var apiErr *facilityclient.APIError
				if errors.As(err, &apiErr) && apiErr.Message != "" {
					return errors.New(apiErr.Message)
				}
				return err
			}

			store, err := openHistory()
			if err == nil {
				if err := store.SetStatus(ctx, b.ID, b.Status); err != nil && !errors.Is(err, history.ErrNotFound) {
					logger.Warn("could not update booking history", "err", err)
				}
				_ = store.Close()
			}

			if outputJSON {
				return writeJSON(b)
			}
			fmt.Fprintf(stdout, "Cancelled %s (%s)\n", b.ID, b.Title)
			return nil
		},
	}
	return cmd
}
