package decoder

import "sync"

const eventBufferSize = 16

// hub fans decoder events out to subscribers over buffered channels.
// Sends never block; if a subscriber's buffer is full the event is dropped.
type hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	ch := make(chan Event, eventBufferSize)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			// Drop if buffer full
		}
	}
}

func (h *hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
