package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/calendar"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/tools/teampro/internal/history"
)

func bookCmd() *cobra.Command {
	var facilityID string
	var date string
	var start string
	var hours int
	var form calendar.Form
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an available slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveFacility(facilityID)
			if err != nil {
				return err
			}
			if err := form.Validate(); err != nil {
				return err
			}
			if start == "" {
				return fmt.Errorf("--start is required")
			}
			if hours < 1 {
				return fmt.Errorf("--hours must be at least 1")
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
			offset, err := parseClock(start)
			if err != nil {
				return err
			}

			view := calendar.New(client, calendar.Options{
				FacilityID: id,
				Location:   loc,
				Date:       day,
				Mode:       availability.ViewDay,
				Logger:     logger,
			})
			defer view.Close()
			_ = view.Refresh(ctx)

			slot, err := selectRange(view.Slots(), at(day, offset), hours)
			if err != nil {
				return err
			}
			if !view.SelectSlot(slot) {
				return fmt.Errorf("slot is not available")
			}
			view.SetForm(form)

			if !skipCheck {
				conflicts, err := view.PreCheck(ctx)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					for _, c := range conflicts {
						fmt.Fprintln(stdout, "conflict:", describeConflict(c, loc))
					}
					return fmt.Errorf("slot has %d conflict(s); booking not submitted", len(conflicts))
				}
			}

			res, err := view.Submit(ctx)
			if err != nil {
				if errors.Is(err, calendar.ErrTitleRequired) {
					return err
				}
				return errors.New(calendar.SubmitErrorMessage(err))
			}

			if err := recordHistory(ctx, f, res); err != nil {
				logger.Warn("could not save booking history", "err", err)
			}
			if outputJSON {
				return writeJSON(res)
			}
			printBooking(res, f, loc)
			return nil
		},
	}

	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility id")
	cmd.Flags().StringVar(&date, "date", "today", "Date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&start, "start", "", "Start time HH:00")
	cmd.Flags().IntVar(&hours, "hours", 1, "Number of hourly slots")
	cmd.Flags().StringVar(&form.Title, "title", "", "Booking title")
	cmd.Flags().StringVar(&form.Description, "description", "", "Description")
	cmd.Flags().StringVar(&form.AttendeeCount, "attendees", "", "Expected attendees")
	cmd.Flags().StringVar(&form.EquipmentNeeded, "equipment", "", "Comma separated equipment")
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "Skip the conflict pre-check")
	return cmd
}

// selectRange joins hours consecutive slots starting at start into one
// selection. Every slot must be available.
func selectRange(slots []availability.TimeSlot, start time.Time, hours int) (availability.TimeSlot, error) {
	first := -1
	for i, s := range slots {
		if s.Start.Equal(start) {
			first = i
			break
		}
	}
	if first < 0 {
		return availability.TimeSlot{}, fmt.Errorf("%s is not a bookable slot start (%02d:00-%02d:00, on the hour)",
			start.Format("15:04"), availability.FirstHour, availability.EndHour)
	}
	if first+hours > len(slots) || !slots[first+hours-1].Start.Equal(start.Add(time.Duration(hours-1)*availability.SlotWidth)) {
		return availability.TimeSlot{}, fmt.Errorf("booking would run past %02d:00", availability.EndHour)
	}
	for _, s := range slots[first : first+hours] {
		if !s.State.Selectable() {
			return availability.TimeSlot{}, fmt.Errorf("slot %s is %s", s.Start.Format("15:04"), s.State)
		}
	}
	end := slots[first+hours-1].End
	return availability.TimeSlot{
		Slot:  availability.Slot{Interval: availability.Interval{Start: start, End: end}},
		State: availability.StateAvailable,
	}, nil
}

func recordHistory(ctx context.Context, f facility.Facility, res facility.CreateBookingResult) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()
	b := res.Booking
	return store.Record(ctx, history.Entry{
		BookingID:    b.ID,
		FacilityID:   b.FacilityID,
		FacilityName: f.Name,
		Title:        b.Title,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Status:       b.Status,
		CheckoutURL:  res.CheckoutURL,
		BookedAt:     b.CreatedAt,
	})
}

func printBooking(res facility.CreateBookingResult, f facility.Facility, loc *time.Location) {
	b := res.Booking
	if outputCompact {
		fmt.Fprintf(stdout, "%s %s %s\n", b.ID, b.Status, formatSpan(b.StartTime, b.EndTime, loc))
		return
	}
	fmt.Fprintf(stdout, "Booked %q at %s, %s\n", b.Title, f.Name, formatSpan(b.StartTime, b.EndTime, loc))
	fmt.Fprintf(stdout, "Booking id: %s\nStatus: %s\n", b.ID, b.Status)
	if res.CheckoutURL != "" {
		fmt.Fprintf(stdout, "Complete payment: %s\n", res.CheckoutURL)
	}
}
