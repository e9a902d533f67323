// Package calendar is the facility calendar view: it keeps the fetched
// bookings and conflicts for the visible range, projects them onto slots,
// polls for updates while real-time mode is on, and drives the booking dialog.
package calendar

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
)

const DefaultPollInterval = 30 * time.Second

// Collaborator is the storage service the view reads from and books through.
type Collaborator interface {
	FetchBookings(ctx context.Context, facilityID string, from, to time.Time) ([]facility.Booking, error)
	FetchConflicts(ctx context.Context, facilityID string) ([]facility.Conflict, error)
	CheckConflicts(ctx context.Context, facilityID string, start, end time.Time) ([]facility.Conflict, error)
	CreateBooking(ctx context.Context, req facility.CreateBookingRequest) (facility.CreateBookingResult, error)
}

type Options struct {
	FacilityID   string
	Location     *time.Location
	Date         time.Time
	Mode         availability.ViewMode
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
	// OnChange runs after every refresh and dialog transition, outside the view's lock.
	OnChange func()
}

type View struct {
	c        Collaborator
	facility string
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	onChange func()

	mu        sync.Mutex
	date      time.Time
	mode      availability.ViewMode
	bookings  []facility.Booking
	conflicts []facility.Conflict
	fetchErr  error
	fetchedAt time.Time
	dialog    Dialog
	closed    bool

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

func New(c Collaborator, opts Options) *View {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = availability.ViewWeek
	}
	if opts.Date.IsZero() {
		opts.Date = opts.Now()
	}
	return &View{
		c:        c,
		facility: opts.FacilityID,
		loc:      opts.Location,
		interval: opts.PollInterval,
		now:      opts.Now,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		date:     opts.Date,
		mode:     opts.Mode,
		dialog:   Dialog{State: DialogClosed},
	}
}

func (v *View) FacilityID() string { return v.facility }

func (v *View) Location() *time.Location { return v.loc }

// SetDate changes the selected date. Call Refresh to load the new range.
func (v *View) SetDate(d time.Time) {
	v.mu.Lock()
	v.date = d
	v.mu.Unlock()
	v.notify()
}

func (v *View) SetMode(m availability.ViewMode) {
	v.mu.Lock()
	v.mode = m
	v.mu.Unlock()
	v.notify()
}

func (v *View) Selection() (time.Time, availability.ViewMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.date, v.mode
}

// Refresh reloads bookings for the visible range and the facility's
// conflicts. On failure the error is kept for FetchErr and the data is treated
// as unknown, so every future slot shows as available until a fetch succeeds.
func (v *View) Refresh(ctx context.Context) error {
	date, mode := v.Selection()
	r := availability.Range(date, mode, v.loc)

	bookings, err := v.c.FetchBookings(ctx, v.facility, r.Start, r.End)
	var conflicts []facility.Conflict
	if err == nil {
		conflicts, err = v.c.FetchConflicts(ctx, v.facility)
	}
	if err != nil && ctx.Err() != nil {
		// Cancelled by teardown; nothing to report.
		return ctx.Err()
	}

	v.mu.Lock()
	if err != nil {
		v.bookings, v.conflicts = nil, nil
		v.fetchErr = err
	} else {
		v.bookings, v.conflicts = bookings, conflicts
		v.fetchErr = nil
		v.fetchedAt = v.now()
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("facility data unavailable", "facility_id", v.facility, "err", err)
	}
	v.notify()
	return err
}

// FetchErr is the last fetch failure, nil once a refresh succeeds.
func (v *View) FetchErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetchErr
}

func (v *View) LastFetched() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetchedAt
}

// Slots projects the current data onto the calendar grid. It is recomputed on
// every call.
func (v *View) Slots() []availability.TimeSlot {
	v.mu.Lock()
	date, mode := v.date, v.mode
	bookings, conflicts := v.bookings, v.conflicts
	v.mu.Unlock()

	return availability.Project(availability.GenerateSlots(date, mode, v.loc), bookings, conflicts, v.now())
}

func (v *View) Days() []availability.Day {
	return availability.GroupByDay(v.Slots())
}

// Conflicts returns the last fetched conflicts.
func (v *View) Conflicts() []facility.Conflict {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]facility.Conflict(nil), v.conflicts...)
}

// StartRealtime polls the collaborator every PollInterval until StopRealtime,
// Close, or cancellation of ctx. Calling it while already polling is a no-op.
func (v *View) StartRealtime(ctx context.Context) {
	v.mu.Lock()
	if v.closed || v.pollCancel != nil {
		v.mu.Unlock()
		return
	}
	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	v.pollCancel, v.pollDone = cancel, done
	v.mu.Unlock()

	go v.poll(pctx, done)
}

func (v *View) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = v.Refresh(ctx)
		}
	}
}

// StopRealtime cancels polling and waits for the poller to exit.
func (v *View) StopRealtime() {
	v.mu.Lock()
	cancel, done := v.pollCancel, v.pollDone
	v.pollCancel, v.pollDone = nil, nil
	v.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (v *View) RealtimeEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pollCancel != nil
}

// Close tears the view down. Polling stops and cannot be restarted.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.StopRealtime()
}

func (v *View) Dialog() Dialog {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dialog
}

// SelectSlot opens the booking dialog for an available slot. Other states, or
// a submission in flight, leave everything unchanged and return false.
func (v *View) SelectSlot(slot availability.TimeSlot) bool {
	if !slot.State.Selectable() {
		return false
	}
	v.mu.Lock()
	if v.dialog.State == DialogSubmitting {
		v.mu.Unlock()
		return false
	}
	s := slot
	if v.dialog.State == DialogClosed {
		v.dialog.Form = Form{}
	}
	v.dialog.State = DialogSlotSelected
	v.dialog.Slot = &s
	v.dialog.Error = ""
	v.mu.Unlock()
	v.notify()
	return true
}

// SetForm replaces the form contents while the dialog is open.
func (v *View) SetForm(f Form) {
	v.mu.Lock()
	if v.dialog.State == DialogSlotSelected || v.dialog.State == DialogSelectedError {
		v.dialog.Form = f
	}
	v.mu.Unlock()
}

// CancelDialog closes the dialog and discards the form.
func (v *View) CancelDialog() {
	v.mu.Lock()
	if v.dialog.State == DialogSubmitting {
		v.mu.Unlock()
		return
	}
	v.dialog = Dialog{State: DialogClosed}
	v.mu.Unlock()
	v.notify()
}

var ErrNoSlotSelected = errors.New("no slot selected")

// PreCheck asks the collaborator which bookings the selected slot would
// collide with. It is advisory; Submit can still be rejected.
func (v *View) PreCheck(ctx context.Context) ([]facility.Conflict, error) {
	d := v.Dialog()
	if d.Slot == nil || !d.State.Open() {
		return nil, ErrNoSlotSelected
	}
	return v.c.CheckConflicts(ctx, v.facility, d.Slot.Start, d.Slot.End)
}

// Submit sends the dialog's form for the selected slot. A validation failure
// returns before any network call, leaving the dialog state and form as they
// were and setting only the error message. A rejected submission
// keeps the dialog open with the form intact and the error message set; a
// successful one closes the dialog and refreshes the view.
func (v *View) Submit(ctx context.Context) (facility.CreateBookingResult, error) {
	v.mu.Lock()
	d := v.dialog
	if d.Slot == nil || (d.State != DialogSlotSelected && d.State != DialogSelectedError) {
		v.mu.Unlock()
		return facility.CreateBookingResult{}, ErrNoSlotSelected
	}
	req, err := BuildRequest(v.facility, d.Slot.Slot, d.Form)
	if err != nil {
		v.dialog.Error = err.Error()
		v.mu.Unlock()
		v.notify()
		return facility.CreateBookingResult{}, err
	}
	v.dialog.State = DialogSubmitting
	v.dialog.Error = ""
	v.mu.Unlock()
	v.notify()

	res, err := v.c.CreateBooking(ctx, req)

	v.mu.Lock()
	if err != nil {
		v.dialog.State = DialogSelectedError
		v.dialog.Error = SubmitErrorMessage(err)
	} else {
		v.dialog = Dialog{State: DialogClosed}
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Warn("booking submission failed", "facility_id", v.facility, "err", err)
		v.notify()
		return facility.CreateBookingResult{}, err
	}
	v.logger.Info("booking created", "facility_id", v.facility, "booking_id", res.Booking.ID)
	_ = v.Refresh(ctx)
	return res, nil
}

func (v *View) notify() {
	if v.onChange != nil {
		v.onChange()
	}
}
