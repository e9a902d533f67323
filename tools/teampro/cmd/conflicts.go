package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/facility"
)

func conflictsCmd() *cobra.Command {
	var facilityID string

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List a facility's current booking conflicts",
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
			conflicts, err := client.FetchConflicts(ctx, id)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(facility.CheckConflictsResponse{Conflicts: nonNilConflicts(conflicts)})
			}
			renderConflicts(conflicts, resolveLocation(f.Timezone), "No conflicts.")
			return nil
		},
	}
	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility id")
	return cmd
}

func checkCmd() *cobra.Command {
	var facilityID string
	var date string
	var start string
	var end string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a time range for conflicts without booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveFacility(facilityID)
			if err != nil {
				return err
			}
			if start == "" || end == "" {
				return fmt.Errorf("--start and --end are required")
			}
			ctx := context.Background()
			client := newClient()
			f, err := client.GetFacility(ctx, id)
			if err != nil {
				return err
			}
			loc := resolveLocation(f.Timezone)
			day, err := parseDateInput(date, loc, time.Now())
			if err != nil {
				return err
			}
			from, err := parseClock(start)
			if err != nil {
				return err
			}
			to, err := parseClock(end)
			if err != nil {
				return err
			}
			if to <= from {
				return fmt.Errorf("--end must be after --start")
			}

			conflicts, err := client.CheckConflicts(ctx, id, at(day, from), at(day, to))
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(facility.CheckConflictsResponse{Conflicts: nonNilConflicts(conflicts)})
			}
			renderConflicts(conflicts, loc, "No conflicts; the range is free.")
			return nil
		},
	}
	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility id")
	cmd.Flags().StringVar(&date, "date", "today", "Date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&start, "start", "", "Start time HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "End time HH:MM")
	return cmd
}

func nonNilConflicts(in []facility.Conflict) []facility.Conflict {
	if in == nil {
		return []facility.Conflict{}
	}
	return in
}

func renderConflicts(conflicts []facility.Conflict, loc *time.Location, empty string) {
	if len(conflicts) == 0 {
		fmt.Fprintln(stdout, empty)
		return
	}
	for _, c := range conflicts {
		if outputCompact {
			fmt.Fprintf(stdout, "%s %s %s %s\n", c.ID, c.Kind, c.Booking.ID, c.PartnerID())
			continue
		}
		fmt.Fprintf(stdout, "[%s] %s\n", c.Kind, describeConflict(c, loc))
	}
}
