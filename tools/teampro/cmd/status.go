package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/facility"
)

func statusCmd() *cobra.Command {
	var facilityID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a facility is free right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveFacility(facilityID)
			if err != nil {
				return err
			}
			ctx := context.Background()
			client := newClient()
			f, err := client.GetFacility(ctx, id)
			if err != nil {
				return err
			}
			st, err := client.RealTimeStatus(ctx, id)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(st)
			}
			renderStatus(f, st)
			return nil
		},
	}
	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility id")
	return cmd
}

func renderStatus(f facility.Facility, st facility.RealTimeStatus) {
	loc := resolveLocation(f.Timezone)
	if outputCompact {
		state := "busy"
		if st.IsCurrentlyAvailable {
			state = "free"
		}
		fmt.Fprintf(stdout, "%s %s conflicts=%d\n", f.ID, state, st.ConflictsDetected)
		return
	}

	if st.IsCurrentlyAvailable {
		fmt.Fprintf(stdout, "%s is available", f.Name)
		if st.AvailableUntil != nil {
			fmt.Fprintf(stdout, " until %s", st.AvailableUntil.In(loc).Format("Mon 15:04"))
		}
		fmt.Fprintln(stdout)
	} else {
		fmt.Fprintf(stdout, "%s is in use", f.Name)
		if st.CurrentBooking != nil {
			fmt.Fprintf(stdout, ": %q", st.CurrentBooking.Title)
		}
		if st.AvailableFrom != nil {
			fmt.Fprintf(stdout, ", free from %s", st.AvailableFrom.In(loc).Format("Mon 15:04"))
		}
		fmt.Fprintln(stdout)
	}
	if st.NextBooking != nil {
		fmt.Fprintf(stdout, "Next: %q %s\n", st.NextBooking.Title, formatSpan(st.NextBooking.StartTime, st.NextBooking.EndTime, loc))
	}
	if st.ConflictsDetected > 0 {
		fmt.Fprintf(stdout, "Conflicts: %d\n", st.ConflictsDetected)
	}
}
