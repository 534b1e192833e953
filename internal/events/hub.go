package events

import (
	"context"
	"log/slog"
	"sync"
)

// Hub is an in-process Bus used when Redis is disabled. Slow subscribers
// drop events instead of blocking publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan ProgressEvent]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan ProgressEvent]struct{})}
}

// Publish fans the event out to the learner's subscribers
func (h *Hub) Publish(ctx context.Context, ev ProgressEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.UserAddress] {
		select {
		case ch <- ev:
		default:
			slog.Warn("dropping progress event for slow subscriber",
				"address", ev.UserAddress,
				"type", ev.Type,
			)
		}
	}
	return nil
}

// Subscribe registers a new subscriber for the address
func (h *Hub) Subscribe(ctx context.Context, userAddress string) (*Subscription, error) {
	ch := make(chan ProgressEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userAddress] == nil {
		h.subs[userAddress] = make(map[chan ProgressEvent]struct{})
	}
	h.subs[userAddress][ch] = struct{}{}
	h.mu.Unlock()

	return &Subscription{
		C: ch,
		closeFn: func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userAddress], ch)
			if len(h.subs[userAddress]) == 0 {
				delete(h.subs, userAddress)
			}
			close(ch)
		},
	}, nil
}

// subscribers returns the number of open subscriptions for an address
func (h *Hub) subscribers(userAddress string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userAddress])
}

// Close is a no-op; subscriptions are closed by their owners
func (h *Hub) Close() error {
	return nil
}
