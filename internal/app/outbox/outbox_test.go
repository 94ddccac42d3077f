package outbox

import (
	"context"
	"testing"
	"time"

	"carpool/internal/domain/shared/events"
)

type stubEvent struct {
	name      string
	aggregate string
	recipient string
	at        time.Time
}

func (e stubEvent) EventName() string     { return e.name }
func (e stubEvent) AggregateID() string   { return e.aggregate }
func (e stubEvent) RecipientID() string   { return e.recipient }
func (e stubEvent) OccurredAt() time.Time { return e.at }

func toDomainEvents(evs []stubEvent) []events.DomainEvent {
	out := make([]events.DomainEvent, len(evs))
	for i, ev := range evs {
		out[i] = ev
	}
	return out
}

type collectingOutbox struct {
	records []EventRecord
}

func (o *collectingOutbox) Add(ctx context.Context, record EventRecord) error {
	o.records = append(o.records, record)
	return nil
}

func (o *collectingOutbox) Flush(ctx context.Context) error { return nil }

func TestJSONEventEncoder(t *testing.T) {
	ev := stubEvent{name: "booking_accepted", aggregate: "bk-1", recipient: "passenger-1", at: time.Now().UTC()}
	rec, err := JSONEventEncoder{}.Encode(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if rec.Name != "booking_accepted" || rec.Aggregate != "bk-1" || rec.Recipient != "passenger-1" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ID == "" {
		t.Error("record needs an id")
	}
}

// Record IDs end up as storage primary keys; a cascade encodes many events
// back to back and every one of them must get a distinct id.
func TestEncodedRecordIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	encoder := JSONEventEncoder{}
	for i := 0; i < 1000; i++ {
		rec, err := encoder.Encode(stubEvent{name: "ride_cancelled", aggregate: "bk-1", at: time.Now()})
		if err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate record id %s at encode %d", rec.ID, i)
		}
		seen[rec.ID] = true
	}
}

func TestRecordDomainEvents(t *testing.T) {
	box := &collectingOutbox{}
	evs := []stubEvent{
		{name: "ride_cancelled", aggregate: "bk-1", recipient: "p-1", at: time.Now()},
		{name: "ride_cancelled", aggregate: "bk-2", recipient: "p-2", at: time.Now()},
	}
	if err := RecordDomainEvents(context.Background(), box, nil, toDomainEvents(evs)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(box.records) != 2 {
		t.Fatalf("records = %d", len(box.records))
	}
	if box.records[0].Recipient != "p-1" || box.records[1].Recipient != "p-2" {
		t.Errorf("recipients = %s, %s", box.records[0].Recipient, box.records[1].Recipient)
	}

	// A nil outbox is a no-op, which is what lets handlers run without one.
	if err := RecordDomainEvents(context.Background(), nil, nil, toDomainEvents(evs)); err != nil {
		t.Fatalf("nil outbox: %v", err)
	}
}
