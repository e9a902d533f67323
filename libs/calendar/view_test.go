package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teampro-ai/teampro/libs/availability"
	"github.com/teampro-ai/teampro/libs/facility"
)

type fakeCollaborator struct {
	mu         sync.Mutex
	bookings   []facility.Booking
	conflicts  []facility.Conflict
	fetchErr   error
	createErr  error
	fetches    int32
	created    []facility.CreateBookingRequest
	checkCalls int
}

func (f *fakeCollaborator) FetchBookings(ctx context.Context, _ string, _, _ time.Time) ([]facility.Booking, error) {
	atomic.AddInt32(&f.fetches, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]facility.Booking(nil), f.bookings...), nil
}

func (f *fakeCollaborator) FetchConflicts(ctx context.Context, _ string) ([]facility.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]facility.Conflict(nil), f.conflicts...), nil
}

func (f *fakeCollaborator) CheckConflicts(ctx context.Context, _ string, _, _ time.Time) ([]facility.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	return f.conflicts, nil
}

func (f *fakeCollaborator) CreateBooking(ctx context.Context, req facility.CreateBookingRequest) (facility.CreateBookingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return facility.CreateBookingResult{}, f.createErr
	}
	b := facility.Booking{ID: "new", FacilityID: req.FacilityID, Title: req.Title, StartTime: req.StartTime, EndTime: req.EndTime, Status: facility.StatusConfirmed}
	f.bookings = append(f.bookings, b)
	return facility.CreateBookingResult{Booking: b}, nil
}

func (f *fakeCollaborator) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type userErr struct{ msg string }

func (e userErr) Error() string       { return "status 409: " + e.msg }
func (e userErr) UserMessage() string { return e.msg }

var (
	day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newView(c Collaborator) *View {
	return New(c, Options{
		FacilityID:   "f1",
		Location:     time.UTC,
		Date:         day,
		Mode:         availability.ViewDay,
		PollInterval: 10 * time.Millisecond,
		Now:          func() time.Time { return now },
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func slotAtHour(t *testing.T, v *View, hour int) availability.TimeSlot {
	t.Helper()
	for _, s := range v.Slots() {
		if s.Start.Hour() == hour {
			return s
		}
	}
	t.Fatalf("no slot at %02d:00", hour)
	return availability.TimeSlot{}
}

func TestRefresh_ProjectsBookings(t *testing.T) {
	c := &fakeCollaborator{bookings: []facility.Booking{{
		ID: "b1", FacilityID: "f1", Status: facility.StatusConfirmed,
		StartTime: day.Add(15 * time.Hour), EndTime: day.Add(16 * time.Hour),
	}}}
	v := newView(c)
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := slotAtHour(t, v, 15).State; got != availability.StateBooked {
		t.Fatalf("expected booked, got %s", got)
	}
	if got := slotAtHour(t, v, 16).State; got != availability.StateAvailable {
		t.Fatalf("expected available, got %s", got)
	}
	if len(v.Slots()) != availability.SlotsPerDay {
		t.Fatalf("expected %d slots, got %d", availability.SlotsPerDay, len(v.Slots()))
	}
}

func TestRefresh_DegradesOnFetchError(t *testing.T) {
	c := &fakeCollaborator{bookings: []facility.Booking{{
		ID: "b1", Status: facility.StatusConfirmed,
		StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour),
	}}}
	v := newView(c)
	_ = v.Refresh(context.Background())

	c.mu.Lock()
	c.fetchErr = errors.New("connection refused")
	c.mu.Unlock()

	if err := v.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if v.FetchErr() == nil {
		t.Fatalf("expected fetch error to be recorded")
	}
	for _, s := range v.Slots() {
		if s.State != availability.StateAvailable {
			t.Fatalf("expected all slots available in degraded mode, got %s at %s", s.State, s.Start)
		}
	}

	c.mu.Lock()
	c.fetchErr = nil
	c.mu.Unlock()
	if err := v.Refresh(context.Background()); err != nil || v.FetchErr() != nil {
		t.Fatalf("expected recovery, got %v / %v", err, v.FetchErr())
	}
}

func TestRefresh_CancelledContextIsSilent(t *testing.T) {
	c := &fakeCollaborator{fetchErr: context.Canceled}
	v := newView(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if v.FetchErr() != nil {
		t.Fatalf("expected cancellation not to surface as fetch error")
	}
}

func TestSelectSlot_OnlyAvailable(t *testing.T) {
	c := &fakeCollaborator{bookings: []facility.Booking{{
		ID: "b1", Status: facility.StatusConfirmed,
		StartTime: day.Add(15 * time.Hour), EndTime: day.Add(16 * time.Hour),
	}}}
	v := newView(c)
	_ = v.Refresh(context.Background())

	if v.SelectSlot(slotAtHour(t, v, 15)) {
		t.Fatalf("expected booked slot to be ignored")
	}
	if v.Dialog().State != DialogClosed {
		t.Fatalf("expected dialog closed, got %s", v.Dialog().State)
	}
	if !v.SelectSlot(slotAtHour(t, v, 16)) {
		t.Fatalf("expected available slot to open dialog")
	}
	if v.Dialog().State != DialogSlotSelected {
		t.Fatalf("expected slot-selected, got %s", v.Dialog().State)
	}
}

func TestSubmit_EmptyTitleDoesNotCallCollaborator(t *testing.T) {
	c := &fakeCollaborator{}
	v := newView(c)
	_ = v.Refresh(context.Background())
	v.SelectSlot(slotAtHour(t, v, 10))
	v.SetForm(Form{Title: "   "})

	if _, err := v.Submit(context.Background()); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if c.createCount() != 0 {
		t.Fatalf("expected no create call, got %d", c.createCount())
	}
	d := v.Dialog()
	if d.State != DialogSlotSelected {
		t.Fatalf("expected dialog state unchanged, got %s", d.State)
	}
	if d.Error != ErrTitleRequired.Error() {
		t.Fatalf("expected %q, got %q", ErrTitleRequired.Error(), d.Error)
	}
	if d.Form.Title != "   " {
		t.Fatalf("expected form kept, got %+v", d.Form)
	}
}

func TestSubmit_FailureKeepsFormAndShowsServerMessage(t *testing.T) {
	c := &fakeCollaborator{createErr: userErr{msg: "time slot already booked"}}
	v := newView(c)
	_ = v.Refresh(context.Background())
	v.SelectSlot(slotAtHour(t, v, 10))
	form := Form{Title: "Practice", AttendeeCount: "12", EquipmentNeeded: "balls, cones"}
	v.SetForm(form)

	if _, err := v.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	d := v.Dialog()
	if d.State != DialogSelectedError {
		t.Fatalf("expected slot-selected-with-error, got %s", d.State)
	}
	if d.Error != "time slot already booked" {
		t.Fatalf("expected server message verbatim, got %q", d.Error)
	}
	if d.Form != form {
		t.Fatalf("expected form kept, got %+v", d.Form)
	}
}

func TestSubmit_FailureWithoutMessageUsesGenericText(t *testing.T) {
	c := &fakeCollaborator{createErr: errors.New("dial tcp: refused")}
	v := newView(c)
	_ = v.Refresh(context.Background())
	v.SelectSlot(slotAtHour(t, v, 10))
	v.SetForm(Form{Title: "Practice"})

	_, _ = v.Submit(context.Background())
	if got := v.Dialog().Error; got != GenericSubmitError {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestSubmit_SuccessClosesDialogAndRefreshes(t *testing.T) {
	c := &fakeCollaborator{}
	v := newView(c)
	_ = v.Refresh(context.Background())
	v.SelectSlot(slotAtHour(t, v, 10))
	v.SetForm(Form{Title: " Practice ", AttendeeCount: "-3", EquipmentNeeded: "balls,, cones ,"})

	res, err := v.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Booking.ID != "new" {
		t.Fatalf("expected created booking, got %+v", res.Booking)
	}
	if v.Dialog().State != DialogClosed {
		t.Fatalf("expected closed dialog, got %s", v.Dialog().State)
	}
	if v.Dialog().Form != (Form{}) {
		t.Fatalf("expected form reset")
	}
	if got := slotAtHour(t, v, 10).State; got != availability.StateBooked {
		t.Fatalf("expected refreshed slot to be booked, got %s", got)
	}

	req := c.created[0]
	if req.Title != "Practice" || req.AttendeeCount != 0 {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.EquipmentNeeded) != 2 || req.EquipmentNeeded[0] != "balls" || req.EquipmentNeeded[1] != "cones" {
		t.Fatalf("unexpected equipment %v", req.EquipmentNeeded)
	}
	if !req.StartTime.Equal(day.Add(10*time.Hour)) || !req.EndTime.Equal(day.Add(11*time.Hour)) {
		t.Fatalf("unexpected interval %s - %s", req.StartTime, req.EndTime)
	}
}

func TestCancelDialog_DiscardsForm(t *testing.T) {
	v := newView(&fakeCollaborator{})
	_ = v.Refresh(context.Background())
	v.SelectSlot(slotAtHour(t, v, 10))
	v.SetForm(Form{Title: "x"})
	v.CancelDialog()
	if d := v.Dialog(); d.State != DialogClosed || d.Form.Title != "" || d.Slot != nil {
		t.Fatalf("expected reset dialog, got %+v", d)
	}
}

func TestPreCheck_RequiresSelection(t *testing.T) {
	c := &fakeCollaborator{}
	v := newView(c)
	if _, err := v.PreCheck(context.Background()); !errors.Is(err, ErrNoSlotSelected) {
		t.Fatalf("expected ErrNoSlotSelected, got %v", err)
	}
	_ = v.Refresh(context.Background())
	v.SelectSlot(slotAtHour(t, v, 10))
	if _, err := v.PreCheck(context.Background()); err != nil {
		t.Fatalf("precheck: %v", err)
	}
	if c.checkCalls != 1 {
		t.Fatalf("expected one check call, got %d", c.checkCalls)
	}
}

func TestRealtime_PollsUntilStopped(t *testing.T) {
	c := &fakeCollaborator{}
	v := newView(c)
	v.StartRealtime(context.Background())
	v.StartRealtime(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&c.fetches) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected polling to fetch, got %d", atomic.LoadInt32(&c.fetches))
		}
		time.Sleep(5 * time.Millisecond)
	}

	v.StopRealtime()
	if v.RealtimeEnabled() {
		t.Fatalf("expected realtime disabled")
	}
	after := atomic.LoadInt32(&c.fetches)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&c.fetches); got != after {
		t.Fatalf("expected no fetches after stop, got %d more", got-after)
	}
}

func TestClose_PreventsRestart(t *testing.T) {
	c := &fakeCollaborator{}
	v := newView(c)
	v.StartRealtime(context.Background())
	v.Close()
	v.StartRealtime(context.Background())
	if v.RealtimeEnabled() {
		t.Fatalf("expected closed view not to poll")
	}
}

func TestOnChange_CalledOnRefresh(t *testing.T) {
	var calls int32
	v := New(&fakeCollaborator{}, Options{
		FacilityID: "f1",
		Location:   time.UTC,
		Date:       day,
		Now:        func() time.Time { return now },
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnChange: func() {
			atomic.AddInt32(&calls, 1)
		},
	})
	_ = v.Refresh(context.Background())
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 change notification, got %d", calls)
	}
	if len(v.Slots()) != 7*availability.SlotsPerDay {
		t.Fatalf("expected week view by default, got %d slots", len(v.Slots()))
	}
}
