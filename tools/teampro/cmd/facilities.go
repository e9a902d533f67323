package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/facility"
)

func facilitiesCmd() *cobra.Command {
	var includeInactive bool

	cmd := &cobra.Command{
		Use:   "facilities",
		Short: "List facilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := newClient().ListFacilities(context.Background(), includeInactive)
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(list)
			}
			renderFacilities(list, outputCompact)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeInactive, "all", false, "Include inactive facilities (admins only)")
	return cmd
}

func renderFacilities(list []facility.Facility, compact bool) {
	if len(list) == 0 {
		fmt.Fprintln(stdout, "No facilities.")
		return
	}
	if compact {
		for _, f := range list {
			fmt.Fprintf(stdout, "%s %s\n", f.ID, f.Name)
		}
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tCAPACITY\tRATE\tTIMEZONE\tAMENITIES")
	for _, f := range list {
		name := f.Name
		if !f.IsActive {
			name += " (inactive)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			f.ID, name, f.Type, f.Capacity, formatRate(f), f.Timezone, strings.Join(f.Amenities, ", "))
	}
	_ = w.Flush()
}

func formatRate(f facility.Facility) string {
	if f.HourlyRateCents <= 0 {
		return "free"
	}
	return fmt.Sprintf("%d.%02d %s/h", f.HourlyRateCents/100, f.HourlyRateCents%100, strings.ToUpper(f.Currency))
}
