// Package feed wakes collection watchers when records change. Watchers
// re-query the store for a fresh snapshot on every wakeup, so a missed
// signal coalesces with the next one instead of losing data.
package feed

import "sync"

// Collection names watchers can subscribe to.
const (
	CollectionProduce         = "produce"
	CollectionMarketItems     = "marketItems"
	CollectionFarmInventories = "farmInventories"
)

// Hub is an in-process change broadcaster keyed by collection.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

// NewHub initializes an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe registers a watcher for a collection. The returned channel
// receives one signal per change, coalesced; cancel must be called when the
// watcher goes away.
func (h *Hub) Subscribe(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[int]chan struct{})
	}
	h.next++
	id := h.next
	h.subs[collection][id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[collection], id)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify signals every watcher of a collection. It never blocks: a watcher
// that has not consumed its pending signal keeps exactly one.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
