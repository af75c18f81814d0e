package events

import (
	"context"
	"sync"
)

type bufferKey struct{}

type deferred struct {
	sink  Sink
	event Event
}

// Buffer collects events raised inside an open unit-of-work scope. The
// unit of work installs one at the outermost scope and flushes it once
// the scope commits; a rolled-back scope simply drops the buffer, so
// subscribers never observe transitions that were undone.
type Buffer struct {
	mu      sync.Mutex
	pending []deferred
}

// WithBuffer derives a context carrying a fresh buffer.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	buffer := &Buffer{}
	return context.WithValue(ctx, bufferKey{}, buffer), buffer
}

// Publish delivers event through sink immediately, unless the context
// carries an open unit-of-work buffer, in which case delivery is
// deferred until that scope commits.
func Publish(ctx context.Context, sink Sink, event Event) {
	if buffer, ok := ctx.Value(bufferKey{}).(*Buffer); ok {
		buffer.add(sink, event)
		return
	}
	sink.Publish(ctx, event)
}

func (b *Buffer) add(sink Sink, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, deferred{sink: sink, event: event})
}

// Flush delivers the buffered events in the order they were raised.
func (b *Buffer) Flush(ctx context.Context) {
	b.mu.Lock()
	queued := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, d := range queued {
		d.sink.Publish(ctx, d.event)
	}
}
