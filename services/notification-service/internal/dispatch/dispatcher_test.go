package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/services/notification-service/internal/storage"
)

type memStore struct {
	items []storage.Notification
	err   error
}

func (m *memStore) Insert(_ context.Context, n *storage.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, *n)
	return nil
}

type sentMail struct{ to, subject, body string }

type fakeEmail struct {
	sent []sentMail
	err  error
}

func (f *fakeEmail) Send(to, subject, body string) error {
	f.sent = append(f.sent, sentMail{to, subject, body})
	return f.err
}

type fakeSMS struct{ sent []string }

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.sent = append(f.sent, to+": "+body)
	return nil
}

func (f *fakeSMS) ProviderID() string { return "fake" }

type names map[string]string

func (n names) FacilityName(_ context.Context, id string) string {
	if v, ok := n[id]; ok {
		return v
	}
	return id
}

var (
	start = time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC)
	end   = start.Add(2 * time.Hour)
)

func newDispatcher(opsPhone string) (*Dispatcher, *memStore, *fakeEmail, *fakeSMS) {
	store := &memStore{}
	mail := &fakeEmail{}
	text := &fakeSMS{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := New(store, mail, text, names{"f1": "Court 1"}, Config{OpsPhone: opsPhone}, logger)
	return d, store, mail, text
}

func booking(id, requester string, status facility.BookingStatus) facility.Booking {
	return facility.Booking{
		ID:             id,
		FacilityID:     "f1",
		RequesterID:    requester,
		RequesterEmail: requester + "@example.com",
		Title:          "Practice " + id,
		StartTime:      start,
		EndTime:        end,
		Status:         status,
	}
}

func message(t *testing.T, topic string, v any) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Topic: topic, Value: raw}
}

func TestHandle_BookingCreated(t *testing.T) {
	d, store, mail, _ := newDispatcher("")

	evt := facility.BookingEvent{Booking: booking("b1", "alice", facility.StatusConfirmed)}
	if err := d.Handle(context.Background(), message(t, facility.TopicBookingCreated, evt)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	evt = facility.BookingEvent{Booking: booking("b2", "alice", facility.StatusPending)}
	if err := d.Handle(context.Background(), message(t, facility.TopicBookingCreated, evt)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(store.items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(store.items))
	}
	confirmed, pending := store.items[0], store.items[1]
	if confirmed.Type != facility.NotificationSuccess || confirmed.UserID != "alice" || confirmed.BookingID != "b1" {
		t.Fatalf("unexpected confirmed notification %+v", confirmed)
	}
	if !strings.Contains(confirmed.Message, "Court 1") || !strings.Contains(confirmed.Message, "Tue Mar 11 15:00-17:00 UTC") {
		t.Fatalf("unexpected message %q", confirmed.Message)
	}
	if pending.Type != facility.NotificationInfo || pending.Title != "Booking awaiting payment" {
		t.Fatalf("unexpected pending notification %+v", pending)
	}
	if len(mail.sent) != 2 || mail.sent[0].to != "alice@example.com" {
		t.Fatalf("expected emails to alice, got %+v", mail.sent)
	}
}

func TestHandle_ConfirmedAndCancelled(t *testing.T) {
	d, store, _, _ := newDispatcher("")

	b := booking("b1", "alice", facility.StatusConfirmed)
	if err := d.Handle(context.Background(), message(t, facility.TopicBookingConfirmed, facility.BookingEvent{Booking: b})); err != nil {
		t.Fatalf("handle: %v", err)
	}
	b.Status = facility.StatusCancelled
	if err := d.Handle(context.Background(), message(t, facility.TopicBookingCancelled, facility.BookingEvent{Booking: b, Reason: "payment_timeout"})); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if store.items[0].Title != "Payment received" || store.items[0].Type != facility.NotificationSuccess {
		t.Fatalf("unexpected confirmation %+v", store.items[0])
	}
	cancelled := store.items[1]
	if cancelled.Type != facility.NotificationWarning || !strings.HasSuffix(cancelled.Message, "Reason: payment_timeout") {
		t.Fatalf("unexpected cancellation %+v", cancelled)
	}
}

func TestHandle_ConflictsNotifyEachRequesterOnce(t *testing.T) {
	d, store, _, text := newDispatcher("+15550100")

	a := booking("b1", "alice", facility.StatusConfirmed)
	b := booking("b2", "bob", facility.StatusConfirmed)
	evt := facility.ConflictsDetectedEvent{
		FacilityID: "f1",
		Cause:      facility.CauseAdminOverride,
		Conflicts: []facility.Conflict{
			{ID: "c1", FacilityID: "f1", Kind: facility.ConflictBookingOverlap, Booking: a, ConflictingBooking: &b, OverlapStart: start, OverlapEnd: end},
			{ID: "c1", FacilityID: "f1", Kind: facility.ConflictBookingOverlap, Booking: b, ConflictingBooking: &a, OverlapStart: start, OverlapEnd: end},
			{ID: "c2", FacilityID: "f1", Kind: facility.ConflictBlackout, Booking: a, Blackout: &facility.Blackout{ID: "x", Reason: "resurfacing"}, OverlapStart: start, OverlapEnd: end},
		},
	}
	if err := d.Handle(context.Background(), message(t, facility.TopicConflictsDetected, evt)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(store.items) != 2 {
		t.Fatalf("expected one notification per requester, got %d", len(store.items))
	}
	if store.items[0].UserID != "alice" || store.items[1].UserID != "bob" {
		t.Fatalf("unexpected recipients %q, %q", store.items[0].UserID, store.items[1].UserID)
	}
	if !strings.Contains(store.items[0].Message, "An administrator allowed the overlap.") {
		t.Fatalf("unexpected message %q", store.items[0].Message)
	}
	if len(text.sent) != 1 || !strings.HasPrefix(text.sent[0], "+15550100: TeamPro: 3 conflict(s) at Court 1") {
		t.Fatalf("unexpected sms %v", text.sent)
	}
}

func TestHandle_StoreErrorIsReturned(t *testing.T) {
	d, store, _, _ := newDispatcher("")
	store.err = errors.New("db down")

	err := d.Handle(context.Background(), message(t, facility.TopicBookingConfirmed, facility.BookingEvent{Booking: booking("b1", "alice", facility.StatusConfirmed)}))
	if err == nil {
		t.Fatalf("expected store error to propagate")
	}
}

func TestHandle_EmailFailureDoesNotFail(t *testing.T) {
	d, store, mail, _ := newDispatcher("")
	mail.err = errors.New("smtp down")

	if err := d.Handle(context.Background(), message(t, facility.TopicBookingConfirmed, facility.BookingEvent{Booking: booking("b1", "alice", facility.StatusConfirmed)})); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(store.items) != 1 {
		t.Fatalf("expected notification stored, got %d", len(store.items))
	}
}

func TestHandle_MalformedAndUnknown(t *testing.T) {
	d, store, _, _ := newDispatcher("")

	if err := d.Handle(context.Background(), kafka.Message{Topic: facility.TopicBookingCreated, Value: []byte("{")}); err != nil {
		t.Fatalf("expected malformed payload to be dropped, got %v", err)
	}
	if err := d.Handle(context.Background(), kafka.Message{Topic: "other.topic", Value: []byte("{}")}); err != nil {
		t.Fatalf("expected unknown topic to be ignored, got %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("expected no notifications, got %d", len(store.items))
	}
}

func TestFormatRange_AcrossDays(t *testing.T) {
	got := formatRange(start.Add(8*time.Hour), start.Add(10*time.Hour))
	if got != "Tue Mar 11 23:00 - Wed Mar 12 01:00 UTC" {
		t.Fatalf("unexpected range %q", got)
	}
}
