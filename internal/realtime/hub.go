package realtime

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 16

// Hub is an in-process publish/subscribe registry keyed by channel name
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a receiver on channel. The returned function
// unregisters it and closes the receiver; it is safe to call more than once.
func (h *Hub) Subscribe(channel string) (<-chan Event, func()) {
	ch := make(chan Event, DefaultBuffer)

	h.mu.Lock()
	if h.subscribers[channel] == nil {
		h.subscribers[channel] = make(map[chan Event]struct{})
	}
	h.subscribers[channel][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers[channel], ch)
			if len(h.subscribers[channel]) == 0 {
				delete(h.subscribers, channel)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of channel without blocking.
// Subscribers whose queue is full miss the event. It returns how many
// subscribers received it.
func (h *Hub) Publish(channel string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[channel] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of receivers on channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

// ScheduleUpdated publishes a schedule-updated event to the dependent's channel
func (h *Hub) ScheduleUpdated(_ context.Context, dependentID int64) error {
	h.Publish(Channel(dependentID), Event{Name: EventScheduleUpdated, DependentID: dependentID})
	return nil
}
