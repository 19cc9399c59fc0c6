package audit

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type recordingWriter struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (w *recordingWriter) Write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, ev)
	return w.err
}

func TestDispatcherDeliversEventsBeforeClose(t *testing.T) {
	w := &recordingWriter{}
	d := NewDispatcher(w, zap.NewNop())

	d.Dispatch(Event{Action: "appointment_created"})
	d.Dispatch(Event{Action: "appointment_deleted"})
	d.Close()

	if len(w.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(w.events))
	}
	if w.events[0].Action != "appointment_created" {
		t.Fatalf("unexpected first action %q", w.events[0].Action)
	}
}

func TestDispatcherSurvivesWriterErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("db down")}
	d := NewDispatcher(w, zap.NewNop())

	d.Dispatch(Event{Action: "appointment_conflict"})
	d.Close()

	if len(w.events) != 1 {
		t.Fatalf("expected the event to reach the writer, got %d", len(w.events))
	}
}
