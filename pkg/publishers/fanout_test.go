package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
	})

	count, err := fanout.Publish(context.Background(), Event{Kind: KindRateLimit})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutStopsOnCancelledContext(t *testing.T) {
	pub := &stubPublisher{id: "ok", typ: "http"}
	fanout := NewFanout([]Publisher{pub})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fanout.Publish(ctx, Event{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if pub.calls != 0 {
		t.Fatalf("publisher should not be called after cancellation")
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	pub := &stubPublisher{id: "p", typ: "http"}
	fanout := NewFanout([]Publisher{pub, nil})
	if fanout.Size() != 1 {
		t.Fatalf("nil publishers must be skipped")
	}
	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("expected publisher to be closed")
	}
}
