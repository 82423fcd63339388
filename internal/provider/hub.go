package provider

import (
	"sync"

	"authgate/internal/models"
)

// Listener receives session changes for the browser it was registered for.
// session is nil once the browser is signed out.
type Listener func(event models.AuthChangeEvent, session *models.Session)

type hubEntry struct {
	id       uint64
	listener Listener
}

// Hub dispatches session changes to per-browser listeners, in registration order.
type Hub struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]hubEntry
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[string][]hubEntry)}
}

// Subscription is the handle returned by Subscribe. Unsubscribe is safe to call more than once.
type Subscription struct {
	hub       *Hub
	browserID string
	id        uint64
	once      sync.Once
}

func (h *Hub) Subscribe(browserID string, listener Listener) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	h.listeners[browserID] = append(h.listeners[browserID], hubEntry{id: h.nextID, listener: listener})
	return &Subscription{hub: h, browserID: browserID, id: h.nextID}
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s.browserID, s.id)
	})
}

func (h *Hub) remove(browserID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.listeners[browserID]
	for i, entry := range entries {
		if entry.id == id {
			entries = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(h.listeners, browserID)
		return
	}
	h.listeners[browserID] = entries
}

// Notify calls every listener of browserID synchronously. Listeners may unsubscribe from within the call.
func (h *Hub) Notify(event models.AuthChangeEvent, browserID string, session *models.Session) {
	h.mu.RLock()
	entries := append([]hubEntry(nil), h.listeners[browserID]...)
	h.mu.RUnlock()

	for _, entry := range entries {
		var snapshot *models.Session
		if session != nil {
			copied := *session
			snapshot = &copied
		}
		entry.listener(event, snapshot)
	}
}

// Listeners returns how many listeners are registered for browserID.
func (h *Hub) Listeners(browserID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[browserID])
}
