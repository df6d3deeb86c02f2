package events

import (
	"context"
	"math"
	"sync"
)

// Recorder keeps every event it observes. Tests register it to assert on
// the events raised by an operation.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Listener returns a listener subscribed to every kind that runs last.
func (r *Recorder) Listener() Listener {
	return Listener{
		Name:     "recorder",
		Priority: math.MaxInt,
		Handle: func(_ context.Context, event Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, event)
			return nil
		},
	}
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
