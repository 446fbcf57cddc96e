package pipeline

import (
	"sync"
	"sync/atomic"
)

// Bus is the single bounded event channel between pipeline producers and the
// UI consumer. Publish blocks when the consumer falls behind; TryPublish
// drops instead, for high-frequency advisory events. Both become no-ops once
// the bus is closed, so producer goroutines never block on a dead consumer.
type Bus struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

func newBus(capacity int) *Bus {
	return &Bus{
		ch:   make(chan Event, capacity),
		done: make(chan struct{}),
	}
}

func (b *Bus) Publish(ev Event) {
	select {
	case b.ch <- ev:
	case <-b.done:
	}
}

// TryPublish publishes if there is room, otherwise drops the event and
// accounts for it.
func (b *Bus) TryPublish(ev Event) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ch <- ev:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

func (b *Bus) Events() <-chan Event { return b.ch }

func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

// Dropped reports how many advisory events TryPublish discarded.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }
