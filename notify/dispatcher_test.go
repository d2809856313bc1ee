package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []Message
	err  error
	gate chan struct{}
}

func (r *recordingNotifier) Send(_ context.Context, msg Message) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 8}, rec)

	for i := 0; i < 5; i++ {
		d.Dispatch(context.Background(), Message{To: "a@b.com", Subject: "s"})
	}
	d.Close()

	if rec.count() != 5 {
		t.Fatalf("expected 5 deliveries, got %d", rec.count())
	}
	sent, failed, dropped := d.Stats()
	if sent != 5 || failed != 0 || dropped != 0 {
		t.Fatalf("unexpected stats sent=%d failed=%d dropped=%d", sent, failed, dropped)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("smtp down")}
	d := NewDispatcher(DispatcherConfig{BufferSize: 4}, rec)

	d.Dispatch(context.Background(), Message{To: "a@b.com"})
	d.Close()

	_, failed, _ := d.Stats()
	if failed != 1 {
		t.Fatalf("expected 1 failure, got %d", failed)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recordingNotifier{gate: make(chan struct{})}
	d := NewDispatcher(DispatcherConfig{BufferSize: 1, DropIfFull: true}, rec)

	// The first message is picked up by the worker and blocks on the gate,
	// the second fills the buffer, the rest are dropped.
	d.Dispatch(context.Background(), Message{To: "1"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Dispatch(context.Background(), Message{To: "2"})
	d.Dispatch(context.Background(), Message{To: "3"})
	d.Dispatch(context.Background(), Message{To: "4"})

	close(rec.gate)
	d.Close()

	_, _, dropped := d.Stats()
	if dropped != 2 {
		t.Fatalf("expected 2 dropped, got %d", dropped)
	}
	if rec.count() != 2 {
		t.Fatalf("expected 2 deliveries, got %d", rec.count())
	}
}

func TestDispatcherIgnoresAfterClose(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(DispatcherConfig{}, rec)
	d.Close()
	d.Close()

	d.Dispatch(context.Background(), Message{To: "a@b.com"})
	if rec.count() != 0 {
		t.Fatal("closed dispatcher must not deliver")
	}

	var nilDispatcher *Dispatcher
	nilDispatcher.Dispatch(context.Background(), Message{})
	nilDispatcher.Close()
}
