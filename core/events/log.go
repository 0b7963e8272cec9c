package events

import (
	"sync"

	"deedshare/core/types"
)

// Record is a single entry in the append-only operation log. Sequence numbers
// start at 1 and never repeat; external indexers page through the log instead
// of subscribing to implicit side effects.
type Record struct {
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

// Log collects events emitted by the native engines in commit order. It
// implements Emitter so engines can stay agnostic of where events end up.
type Log struct {
	mu      sync.RWMutex
	records []Record
	nextSeq uint64
}

// NewLog returns an empty log whose first record will carry sequence 1.
func NewLog() *Log {
	return &Log{nextSeq: 1}
}

type rawEvent struct {
	evt *types.Event
}

func (r rawEvent) EventType() string {
	if r.evt == nil {
		return ""
	}
	return r.evt.Type
}

func (r rawEvent) Event() *types.Event { return r.evt }

// Emit appends the event to the log. Nil events and events without payloads
// are dropped.
func (l *Log) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	payload := extractEvent(evt)
	if payload == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record{Sequence: l.nextSeq, Event: payload})
	l.nextSeq++
}

// After returns up to limit records with sequence strictly greater than seq.
// A limit of zero returns all matching records.
func (l *Log) After(seq uint64, limit int) []Record {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, 0)
	for _, rec := range l.records {
		if rec.Sequence <= seq {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Len reports the number of records currently held.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Buffer accumulates events during a speculative state transition. The node
// flushes it into the durable log only after the transition commits, so failed
// operations never leak events.
type Buffer struct {
	events []*types.Event
}

// Emit implements Emitter.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	payload := extractEvent(evt)
	if payload == nil {
		return
	}
	b.events = append(b.events, payload)
}

// FlushTo appends all buffered events to the destination log in order and
// clears the buffer.
func (b *Buffer) FlushTo(log *Log) {
	if b == nil || log == nil {
		return
	}
	for _, evt := range b.events {
		log.Emit(rawEvent{evt: evt})
	}
	b.events = nil
}

// Events returns the buffered payloads without clearing them.
func (b *Buffer) Events() []*types.Event {
	if b == nil {
		return nil
	}
	return b.events
}

func extractEvent(evt Event) *types.Event {
	type carrier interface {
		Event() *types.Event
	}
	if c, ok := evt.(carrier); ok {
		return c.Event()
	}
	if evt.EventType() == "" {
		return nil
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}
