package events

import "sync"

// Bus fans events out to in-process subscribers. Publishing never blocks:
// a subscriber that falls behind its buffer loses messages rather than
// stalling the publisher.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Event]map[int]chan any
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Event]map[int]chan any)}
}

// Subscribe returns a receive channel for one event type and a function
// that removes the subscription and closes the channel. The buffer should
// cover the subscriber's drain latency.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[e] == nil {
		b.subs[e] = make(map[int]chan any)
	}
	id := b.next
	b.next++
	ch := make(chan any, buffer)
	b.subs[e][id] = ch

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[e][id]; ok {
			delete(b.subs[e], id)
			close(c)
		}
	}
	return ch, unsub
}

// Publish delivers payload to every subscriber of e without waiting.
func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e] {
		select {
		case ch <- payload:
		default:
			// full buffer drops the message
		}
	}
}
