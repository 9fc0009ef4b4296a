package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/okian/presence/pkg/metrics"
)

// subscriberBuffer absorbs short stalls on a stream client before frames
// are dropped for it.
const subscriberBuffer = 4

// Hub fans rendered JPEG frames out to stream subscribers. Slow subscribers
// lose frames instead of slowing the capture loop.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan []byte)}
}

// Subscribe registers a stream client. The returned channel delivers JPEG
// frames until Unsubscribe is called with the returned id.
func (h *Hub) Subscribe() (string, <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan []byte, subscriberBuffer)
	h.subs[id] = ch
	metrics.UpdateStreamSubscribers(len(h.subs))
	return id, ch
}

// Unsubscribe removes a stream client and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)
	metrics.UpdateStreamSubscribers(len(h.subs))
}

// Publish delivers a frame to every subscriber without blocking.
func (h *Hub) Publish(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- frame:
			metrics.RecordStreamFrameSent()
		default:
			metrics.RecordStreamFrameLost()
		}
	}
}

// Count returns the number of active subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
