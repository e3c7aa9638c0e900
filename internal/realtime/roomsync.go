// Package realtime bridges the store's change-notification stream and the
// presence channel into a single reconciled room view, including the
// disconnect grace-period eviction.
package realtime

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"wordimposter/internal/domain"
	"wordimposter/internal/presence"
	"wordimposter/internal/store"
)

// DefaultGracePeriod is how long a disconnected player is tolerated before
// eviction, so a refresh or brief reconnect does not lose their seat
const DefaultGracePeriod = 10 * time.Second

// Options tune a RoomSync
type Options struct {
	// GracePeriod overrides DefaultGracePeriod when positive
	GracePeriod time.Duration
}

// RoomSync keeps a local copy of one room reconciled against the store's
// change stream, and evicts players whose presence drops for longer than the
// grace period. Change application is last-received wins: no merging, no
// sequence numbers.
type RoomSync struct {
	store    store.RoomStore
	presence *presence.Hub
	logger   *slog.Logger

	roomID          string
	currentPlayerID string
	grace           time.Duration

	onRoom func(domain.Room)
	onGone func()

	mu        sync.Mutex
	room      *domain.Room
	gone      bool
	evictions map[string]*time.Timer
	cancels   []func()
	started   bool
	stopped   bool
	wg        sync.WaitGroup
}

// New creates a RoomSync for one room. currentPlayerID may be empty for
// spectators; they are tracked under the anonymous presence key.
func New(st store.RoomStore, hub *presence.Hub, logger *slog.Logger, roomID, currentPlayerID string, opts Options) *RoomSync {
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &RoomSync{
		store:           st,
		presence:        hub,
		logger:          logger,
		roomID:          roomID,
		currentPlayerID: currentPlayerID,
		grace:           grace,
		evictions:       make(map[string]*time.Timer),
	}
}

// OnRoom registers the callback invoked with every reconciled room state.
// Must be set before Start.
func (s *RoomSync) OnRoom(fn func(domain.Room)) {
	s.onRoom = fn
}

// OnGone registers the callback invoked when the room is deleted.
// Must be set before Start.
func (s *RoomSync) OnGone(fn func()) {
	s.onGone = fn
}

// Start loads the room once, then subscribes to change and presence events
// and tracks this client's presence. The load error is typed: a missing room
// is distinguishable from a read failure.
func (s *RoomSync) Start(ctx context.Context) (domain.Room, error) {
	room, err := s.store.Get(ctx, s.roomID)
	if err != nil {
		return domain.Room{}, err
	}

	changes, cancelChanges, err := s.store.Subscribe(ctx, s.roomID)
	if err != nil {
		return domain.Room{}, err
	}
	events, cancelEvents := s.presence.Subscribe(s.roomID)

	s.mu.Lock()
	s.room = &room
	s.cancels = []func(){cancelChanges, cancelEvents}
	s.started = true
	s.mu.Unlock()

	s.presence.Track(s.roomID, s.currentPlayerID)

	s.wg.Add(2)
	go s.changeLoop(changes)
	go s.presenceLoop(events)

	return room, nil
}

// Stop untracks presence before closing the subscriptions, so a deliberate
// navigation away does not race its own leave event into eviction.
func (s *RoomSync) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancels := s.cancels
	for key, timer := range s.evictions {
		timer.Stop()
		delete(s.evictions, key)
	}
	s.mu.Unlock()

	s.presence.Untrack(s.roomID, s.currentPlayerID)
	for _, cancel := range cancels {
		cancel()
	}
	s.wg.Wait()
}

// Room returns the last reconciled state; ok is false once the room is gone
// or before Start.
func (s *RoomSync) Room() (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || s.gone {
		return domain.Room{}, false
	}
	return *s.room, true
}

func (s *RoomSync) changeLoop(changes <-chan store.Change) {
	defer s.wg.Done()
	for change := range changes {
		switch change.Type {
		case store.ChangeInsert, store.ChangeUpdate:
			if change.Room != nil {
				s.applyRoom(*change.Room)
			}
		case store.ChangeDelete:
			s.applyGone()
		}
	}
}

func (s *RoomSync) presenceLoop(events <-chan presence.Event) {
	defer s.wg.Done()
	for event := range events {
		switch event.Type {
		case presence.EventJoin:
			s.cancelEviction(event.Key)
		case presence.EventSync:
			for _, key := range event.Keys {
				s.cancelEviction(key)
			}
		case presence.EventLeave:
			s.scheduleEviction(event.Key)
		}
	}
}

// applyRoom replaces local state wholesale with the new row's value
func (s *RoomSync) applyRoom(room domain.Room) {
	s.mu.Lock()
	if s.gone || s.stopped {
		s.mu.Unlock()
		return
	}
	s.room = &room
	fn := s.onRoom
	s.mu.Unlock()

	if fn != nil {
		fn(room)
	}
}

func (s *RoomSync) applyGone() {
	s.mu.Lock()
	if s.gone {
		s.mu.Unlock()
		return
	}
	s.gone = true
	s.room = nil
	fn := s.onGone
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// scheduleEviction arms the grace timer for a departed player. Anonymous
// observers and keys that are not players in the room never arm a timer.
// Scheduling is idempotent: a timer already armed for the key stays as is.
func (s *RoomSync) scheduleEviction(key string) {
	if key == presence.AnonymousKey || key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.gone || s.room == nil {
		return
	}
	if _, ok := s.room.Player(key); !ok {
		return
	}
	if _, armed := s.evictions[key]; armed {
		return
	}

	s.logger.Debug("player presence lost, starting grace period",
		"roomID", s.roomID,
		"playerID", key,
		"grace", s.grace,
	)
	s.evictions[key] = time.AfterFunc(s.grace, func() {
		s.evict(key)
	})
}

// cancelEviction disarms the grace timer when the player comes back
func (s *RoomSync) cancelEviction(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.evictions[key]; ok {
		timer.Stop()
		delete(s.evictions, key)
		s.logger.Debug("player returned within grace period",
			"roomID", s.roomID,
			"playerID", key,
		)
	}
}

// evict runs when the grace timer fires: re-check presence, re-fetch the
// authoritative room, confirm the player is still listed, then remove them
// and reassign the host if needed. Every check bails out silently, which
// keeps concurrent leave/rejoin idempotent.
func (s *RoomSync) evict(key string) {
	s.mu.Lock()
	if _, armed := s.evictions[key]; !armed {
		// Canceled between fire and lock acquisition
		s.mu.Unlock()
		return
	}
	delete(s.evictions, key)
	stopped := s.stopped || s.gone
	s.mu.Unlock()

	if stopped {
		return
	}
	if slices.Contains(s.presence.Snapshot(s.roomID), key) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	room, err := s.store.Get(ctx, s.roomID)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			s.logger.Warn("eviction fetch failed", "roomID", s.roomID, "playerID", key, "error", err)
		}
		return
	}
	if _, ok := room.Player(key); !ok {
		return
	}

	next := room.RemovePlayer(key)
	if room.HostID == key {
		next = next.ReassignHost()
	}

	if _, err := s.store.Update(ctx, next); err != nil {
		s.logger.Warn("eviction update failed", "roomID", s.roomID, "playerID", key, "error", err)
		return
	}
	s.logger.Info("evicted disconnected player",
		"roomID", s.roomID,
		"playerID", key,
		"hostReassigned", room.HostID == key,
	)
}
