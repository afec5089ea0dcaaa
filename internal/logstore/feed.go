package logstore

import (
	"sync"

	"waypoint/internal/assistant"
)

// Feed fans freshly-logged interactions out to live subscribers (the ops
// watch socket). Slow subscribers drop records rather than block the logger.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan *assistant.Interaction
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan *assistant.Interaction)}
}

// Subscribe returns a buffered record channel and a cancel func. Cancel is
// safe to call more than once.
func (f *Feed) Subscribe() (<-chan *assistant.Interaction, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	ch := make(chan *assistant.Interaction, 32)
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			if sub, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(sub)
			}
			f.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers rec to every subscriber that has buffer room.
func (f *Feed) Publish(rec *assistant.Interaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- rec:
		default:
			// subscriber is behind; drop rather than stall the logger
		}
	}
}
