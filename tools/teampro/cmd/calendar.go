package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/calendar"
	"github.com/teampro-ai/teampro/libs/facility"
	"golang.org/x/term"
)

type calendarDay struct {
	Date  string                  `json:"date"`
	Slots []availability.TimeSlot `json:"slots"`
}

type calendarOutput struct {
	FacilityID   string              `json:"facility_id"`
	FacilityName string              `json:"facility_name"`
	View         string              `json:"view"`
	Timezone     string              `json:"timezone"`
	Days         []calendarDay       `json:"days"`
	Conflicts    []facility.Conflict `json:"conflicts"`
	FetchError   string              `json:"fetch_error,omitempty"`
	FetchedAt    *time.Time          `json:"fetched_at,omitempty"`
}

func calendarCmd() *cobra.Command {
	var facilityID string
	var date string
	var mode string
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a facility's calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveFacility(facilityID)
			if err != nil {
				return err
			}
			client := newClient()
			f, err := client.GetFacility(context.Background(), id)
			if err != nil {
				return err
			}
			loc := resolveLocation(f.Timezone)
			day, err := parseDateInput(date, loc, time.Now())
			if err != nil {
				return err
			}

			changes := make(chan struct{}, 1)
			view := calendar.New(client, calendar.Options{
				FacilityID:   id,
				Location:     loc,
				Date:         day,
				Mode:         availability.ParseViewMode(mode),
				PollInterval: interval,
				Logger:       logger,
				OnChange: func() {
					select {
					case changes <- struct{}{}:
					default:
					}
				},
			})
			defer view.Close()

			if !watch {
				_ = view.Refresh(context.Background())
				return printCalendar(stdout, f, view, false)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchCalendar(ctx, f, view, changes)
		},
	}

	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility id")
	cmd.Flags().StringVar(&date, "date", "today", "Date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&mode, "view", "day", "day or week")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling and redraw on changes")
	cmd.Flags().DurationVar(&interval, "interval", calendar.DefaultPollInterval, "Polling interval with --watch")
	return cmd
}

// watchCalendar redraws on every view change until ctx is cancelled, then
// tears the view down.
func watchCalendar(ctx context.Context, f facility.Facility, view *calendar.View, changes <-chan struct{}) error {
	redraw := term.IsTerminal(int(os.Stdout.Fd())) && !outputJSON
	_ = view.Refresh(ctx)
	view.StartRealtime(ctx)
	defer view.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := printCalendar(stdout, f, view, redraw); err != nil {
				return err
			}
		}
	}
}

func printCalendar(w io.Writer, f facility.Facility, view *calendar.View, clearScreen bool) error {
	date, mode := view.Selection()
	days := view.Days()
	out := calendarOutput{
		FacilityID:   f.ID,
		FacilityName: f.Name,
		View:         string(mode),
		Timezone:     view.Location().String(),
		Conflicts:    view.Conflicts(),
	}
	for _, d := range days {
		out.Days = append(out.Days, calendarDay{Date: d.Date.Format(time.DateOnly), Slots: d.Slots})
	}
	if err := view.FetchErr(); err != nil {
		out.FetchError = err.Error()
	}
	if t := view.LastFetched(); !t.IsZero() {
		out.FetchedAt = &t
	}

	if outputJSON {
		return writeJSON(out)
	}
	if clearScreen {
		fmt.Fprint(w, "\033[H\033[2J")
	}
	title := fmt.Sprintf("%s, %s of %s (%s)", f.Name, mode, date.In(view.Location()).Format(time.DateOnly), out.Timezone)
	renderCalendar(w, title, days, out.FetchError, outputCompact)
	return nil
}

// slotGlyph is the compact rendering of a slot state.
func slotGlyph(s availability.State) byte {
	switch s {
	case availability.StateAvailable:
		return '.'
	case availability.StateBooked:
		return '#'
	case availability.StateConflict:
		return '!'
	default:
		return '-'
	}
}

func renderCalendar(w io.Writer, title string, days []availability.Day, fetchErr string, compact bool) {
	fmt.Fprintln(w, title)
	if fetchErr != "" {
		fmt.Fprintf(w, "warning: facility data unavailable (%s); showing future slots as available\n", fetchErr)
	}
	if compact {
		for _, d := range days {
			row := make([]byte, 0, len(d.Slots))
			for _, s := range d.Slots {
				row = append(row, slotGlyph(s.State))
			}
			fmt.Fprintf(w, "%s %s\n", d.Date.Format("Mon 01-02"), row)
		}
		fmt.Fprintf(w, "%02d:00-%02d:00  . available  # booked  ! conflict  - past\n", availability.FirstHour, availability.EndHour)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range days {
		fmt.Fprintf(tw, "%s\n", d.Date.Format("Mon 2006-01-02"))
		for _, s := range d.Slots {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Start.Format("15:04"), stateLabel(s.State), slotDetail(s))
		}
	}
	_ = tw.Flush()
}

func stateLabel(s availability.State) string {
	if s == availability.StateConflict {
		return "CONFLICT"
	}
	return string(s)
}

func slotDetail(s availability.TimeSlot) string {
	titles := make([]string, 0, len(s.Bookings))
	for _, b := range s.Bookings {
		t := b.Title
		if b.Status == facility.StatusPending {
			t += " (pending)"
		}
		titles = append(titles, t)
	}
	if len(titles) == 0 && len(s.Conflicts) > 0 {
		for _, c := range s.Conflicts {
			if c.Blackout != nil {
				titles = append(titles, "blackout: "+c.Blackout.Reason)
			}
		}
	}
	return strings.Join(titles, " / ")
}
