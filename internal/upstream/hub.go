package upstream

import "sync"

// subscriberBuffer is how many lines a slow subscriber may lag before lines
// are dropped for it.
const subscriberBuffer = 64

// Hub fans pipeline console lines out to every subscriber.
type Hub struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: map[chan string]struct{}{}}
}

// Publish sends a line to all subscribers without blocking.
func (h *Hub) Publish(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribe returns a channel of lines and a function that unsubscribes and
// closes it.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}
