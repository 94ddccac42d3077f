package events

import "time"

// DomainEvent is a state transition recorded by an aggregate and destined for
// the notification outbox. RecipientID names the user the notification sink
// should deliver to; it may be empty for events without a single addressee.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	RecipientID() string
	OccurredAt() time.Time
}

// EventRecorder collects events raised by an aggregate until the application
// layer drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
