package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/teampro-ai/teampro/libs/kafkax"
)

func TestMessage_CarriesMetaHeaders(t *testing.T) {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	msg := Message(context.Background(), Record{
		ID:          7,
		EventID:     "evt-1",
		AggregateID: "facility-1",
		EventType:   "facility.booking.created.v1",
		Payload:     []byte(`{"ok":true}`),
		RequestID:   "req-1",
		CreatedAt:   created,
	})

	if msg.Topic != "facility.booking.created.v1" {
		t.Fatalf("expected topic from event type, got %q", msg.Topic)
	}
	if string(msg.Key) != "facility-1" {
		t.Fatalf("expected aggregate id key, got %q", msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.RequestID != "req-1" || meta.EventType != msg.Topic {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if !msg.Time.Equal(created) {
		t.Fatalf("expected message time %s, got %s", created, msg.Time)
	}
}
