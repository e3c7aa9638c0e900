// Package presence tracks which clients are live on a room's realtime
// channel and broadcasts join/leave events keyed by player id.
package presence

import (
	"log/slog"
	"sort"
	"sync"
)

// AnonymousKey identifies unauthenticated observers. It may appear in
// presence state but must never drive eviction.
const AnonymousKey = "anonymous"

// eventBuffer is the per-subscriber channel capacity
const eventBuffer = 16

// EventType classifies a presence event
type EventType string

const (
	EventSync  EventType = "sync"  // Full membership snapshot
	EventJoin  EventType = "join"  // A key came online
	EventLeave EventType = "leave" // A key went offline
)

// Event is one presence notification for a room
type Event struct {
	Type EventType
	Key  string   // set for join/leave
	Keys []string // set for sync
}

type roomPresence struct {
	members map[string]int // key -> live connection count
	subs    map[int]chan Event
}

// Hub tracks presence per room. Multiple connections may share one key
// (several tabs); join fires on the first, leave on the last.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]*roomPresence
	nextSub int
	logger  *slog.Logger
}

// NewHub creates an empty presence hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]*roomPresence),
		logger: logger,
	}
}

// Track marks a key as live on the room's channel
func (h *Hub) Track(roomID, key string) {
	if key == "" {
		key = AnonymousKey
	}

	h.mu.Lock()
	rp := h.rooms[roomID]
	if rp == nil {
		rp = &roomPresence{
			members: make(map[string]int),
			subs:    make(map[int]chan Event),
		}
		h.rooms[roomID] = rp
	}
	rp.members[key]++
	first := rp.members[key] == 1
	h.mu.Unlock()

	if first {
		h.broadcast(roomID, Event{Type: EventJoin, Key: key})
	}
}

// Untrack marks a key as gone from the room's channel
func (h *Hub) Untrack(roomID, key string) {
	if key == "" {
		key = AnonymousKey
	}

	h.mu.Lock()
	rp := h.rooms[roomID]
	if rp == nil || rp.members[key] == 0 {
		h.mu.Unlock()
		return
	}
	rp.members[key]--
	last := rp.members[key] == 0
	if last {
		delete(rp.members, key)
	}
	h.mu.Unlock()

	if last {
		h.broadcast(roomID, Event{Type: EventLeave, Key: key})
	}
}

// Snapshot returns the keys currently live on the room's channel
func (h *Hub) Snapshot(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rp := h.rooms[roomID]
	if rp == nil {
		return nil
	}
	keys := make([]string, 0, len(rp.members))
	for key := range rp.members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Subscribe registers a presence listener for one room. The first event
// delivered is a sync carrying the current membership.
func (h *Hub) Subscribe(roomID string) (<-chan Event, func()) {
	h.mu.Lock()
	rp := h.rooms[roomID]
	if rp == nil {
		rp = &roomPresence{
			members: make(map[string]int),
			subs:    make(map[int]chan Event),
		}
		h.rooms[roomID] = rp
	}
	ch := make(chan Event, eventBuffer)
	subID := h.nextSub
	h.nextSub++
	rp.subs[subID] = ch

	keys := make([]string, 0, len(rp.members))
	for key := range rp.members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	h.mu.Unlock()

	ch <- Event{Type: EventSync, Keys: keys}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(rp.subs, subID)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast fans an event out to the room's subscribers without blocking
func (h *Hub) broadcast(roomID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rp := h.rooms[roomID]
	if rp == nil {
		return
	}
	for _, ch := range rp.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn("presence subscriber buffer full, dropping event",
				"roomID", roomID,
				"type", event.Type,
			)
		}
	}
}
