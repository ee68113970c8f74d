package scroller

import (
	"fmt"
	"strings"
)

// Event names a resolver notification.
type Event int

const (
	// EventActive fires when the resolved step index changes.
	EventActive Event = iota
	// EventProgress fires on every evaluation.
	EventProgress

	eventCount
)

// String returns the event's wire name.
func (e Event) String() string {
	switch e {
	case EventActive:
		return "active"
	case EventProgress:
		return "progress"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// ParseEvent maps "active" or "progress" to its Event.
func ParseEvent(name string) (Event, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "active":
		return EventActive, nil
	case "progress":
		return EventProgress, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Notification is delivered to listeners. Progress is only meaningful for
// EventProgress and may be NaN or infinite when a step spans zero height.
type Notification struct {
	Event    Event
	Index    int
	Progress float64
}

// Listener receives notifications. A returned error aborts the evaluation
// that produced the notification.
type Listener func(Notification) error

// On sets the listener for event, replacing any previous one. A nil fn
// clears the slot.
func (r *Resolver) On(event Event, fn Listener) error {
	if event < 0 || event >= eventCount {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
	r.listeners[event] = fn
	return nil
}

// OnError receives listener errors raised while handling document scroll or
// resize callbacks, which have no caller to return them to. Without it such
// errors panic.
func (r *Resolver) OnError(fn func(error)) {
	r.onError = fn
}

func (r *Resolver) emit(n Notification) error {
	fn := r.listeners[n.Event]
	if fn == nil {
		return nil
	}
	return fn(n)
}
