package expiry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeExpirer struct {
	mu      sync.Mutex
	pending int
	calls   int
	err     error
}

func (f *fakeExpirer) ExpireStalePending(_ context.Context, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n := min(limit, f.pending)
	f.pending -= n
	return n, nil
}

func (f *fakeExpirer) snapshot() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, f.calls
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSweep_DrainsInBatches(t *testing.T) {
	exp := &fakeExpirer{pending: 7}
	w := NewWorker(exp, discard(), WorkerConfig{BatchSize: 3})

	n, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 expired, got %d", n)
	}
	if _, calls := exp.snapshot(); calls != 3 {
		t.Fatalf("expected 3 batches, got %d", calls)
	}
}

func TestSweep_StopsOnError(t *testing.T) {
	exp := &fakeExpirer{pending: 5, err: errors.New("db down")}
	w := NewWorker(exp, discard(), WorkerConfig{BatchSize: 2})
	if _, err := w.Sweep(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, calls := exp.snapshot(); calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	exp := &fakeExpirer{pending: 4}
	w := NewWorker(exp, discard(), WorkerConfig{Interval: 5 * time.Millisecond, BatchSize: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if pending, _ := exp.snapshot(); pending == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected pending bookings to be expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}
