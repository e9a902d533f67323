package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/tools/teampro/internal/history"
)

func historyCmd() *cobra.Command {
	var facilityID string
	var upcoming bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List bookings made from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(context.Background(), history.Filter{
				FacilityID: facilityID,
				Upcoming:   upcoming,
				Now:        time.Now(),
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(entries)
			}
			renderHistory(entries, resolveLocation(""))
			return nil
		},
	}
	cmd.Flags().StringVar(&facilityID, "facility", "", "Only this facility")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only bookings that have not ended")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries")
	return cmd
}

func renderHistory(entries []history.Entry, loc *time.Location) {
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No bookings recorded.")
		return
	}
	if outputCompact {
		for _, e := range entries {
			fmt.Fprintf(stdout, "%s %s %s %s\n", e.BookingID, e.Status, e.FacilityID, e.StartTime.In(loc).Format("2006-01-02T15:04"))
		}
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tFACILITY\tTITLE\tSTATUS\tID")
	for _, e := range entries {
		name := e.FacilityName
		if name == "" {
			name = e.FacilityID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", formatSpan(e.StartTime, e.EndTime, loc), name, e.Title, e.Status, e.BookingID)
	}
	_ = w.Flush()
}
