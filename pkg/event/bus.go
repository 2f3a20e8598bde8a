package event

import (
	"context"
	"sync"
)

// Emitter is implemented by anything network components can report to.
type Emitter interface {
	Emit(ctx context.Context, e Event) bool
}

// Bus merges the events of every network component into one channel.
// Any number of goroutines may emit; only the session loop reads.
type Bus struct {
	ch   chan Event
	done chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewBus creates a bus buffering up to size events.
func NewBus(size int) *Bus {
	return &Bus{
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
}

// Events is the channel the session loop selects on. It is closed by Close.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Emit queues e. It returns false if the bus was closed or ctx ended before
// the event could be queued.
func (b *Bus) Emit(ctx context.Context, e Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.ch <- e:
		return true
	case <-b.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close releases blocked emitters and then closes the event channel.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.done)
		b.mu.Lock()
		b.closed = true
		close(b.ch)
		b.mu.Unlock()
	})
}
