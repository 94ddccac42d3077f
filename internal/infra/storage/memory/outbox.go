package memory

import (
	"context"
	"sync"

	"carpool/internal/app/outbox"
)

// Outbox buffers emitted event records in memory. Local runs log them,
// tests assert on them through Records.
type Outbox struct {
	mu      sync.Mutex
	records []outbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record outbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

// Records returns a copy of everything added so far.
func (o *Outbox) Records() []outbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]outbox.EventRecord, len(o.records))
	copy(out, o.records)
	return out
}

// Reset drops buffered records.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = nil
}
