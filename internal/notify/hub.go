package notify

import (
	"context"
	"sync"
	"time"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

const defaultBuffer = 64

// Hub fans events out to in-process subscribers. A subscriber that falls
// behind loses events rather than blocking the committing transaction.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	buffer  int
	dropped uint64
	now     func() time.Time
}

// NewHub creates a hub whose subscriber channels hold buffer events. A
// non-positive buffer uses the default.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]chan Event),
		buffer: buffer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers a subscriber. The returned cancel func closes the
// channel and is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers reports the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Notify implements Notifier.
func (h *Hub) Notify(_ context.Context, changes []domain.Change) error {
	h.Publish(EventsFromChanges(changes, h.now())...)
	return nil
}

// Publish delivers events to every subscriber.
func (h *Hub) Publish(events ...Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		for _, ch := range h.subs {
			select {
			case ch <- ev:
			default:
				h.dropped++
			}
		}
	}
}
