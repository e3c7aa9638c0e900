package store

import (
	"context"
	"log/slog"
	"sync"

	"wordimposter/internal/domain"
)

// subscriberBuffer is the per-subscriber channel capacity. A full buffer
// drops the event; consumers apply last-received wins so a dropped
// intermediate state is recovered by the next event.
const subscriberBuffer = 16

// MemoryStore is an in-memory RoomStore for development and tests
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[string]domain.Room
	subs    map[string]map[int]chan Change
	nextSub int
	logger  *slog.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		rooms:  make(map[string]domain.Room),
		subs:   make(map[string]map[int]chan Change),
		logger: logger,
	}
}

// Create stores a new room
func (s *MemoryStore) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	if _, exists := s.rooms[room.ID]; exists {
		s.mu.Unlock()
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomCreationFailed, RoomID: room.ID}
	}
	s.rooms[room.ID] = room
	s.mu.Unlock()

	s.notify(Change{Type: ChangeInsert, RoomID: room.ID, Room: &room})
	return room, nil
}

// Get returns the room with the given id
func (s *MemoryStore) Get(ctx context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomNotFound, RoomID: id}
	}
	return room, nil
}

// Update replaces the stored room wholesale (last-write-wins)
func (s *MemoryStore) Update(ctx context.Context, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	if _, ok := s.rooms[room.ID]; !ok {
		s.mu.Unlock()
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomNotFound, RoomID: room.ID}
	}
	s.rooms[room.ID] = room
	s.mu.Unlock()

	s.notify(Change{Type: ChangeUpdate, RoomID: room.ID, Room: &room})
	return room, nil
}

// Delete removes the room; deleting an absent room is not an error
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, existed := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()

	if existed {
		s.notify(Change{Type: ChangeDelete, RoomID: id})
	}
	return nil
}

// List returns all stored rooms
func (s *MemoryStore) List(ctx context.Context) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Subscribe registers a change listener for one room
func (s *MemoryStore) Subscribe(ctx context.Context, id string) (<-chan Change, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Change, subscriberBuffer)
	if s.subs[id] == nil {
		s.subs[id] = make(map[int]chan Change)
	}
	subID := s.nextSub
	s.nextSub++
	s.subs[id][subID] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[id], subID)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

// StartGameAtomic applies the start-game mutation only if the stored room is
// still in lobby
func (s *MemoryStore) StartGameAtomic(ctx context.Context, started domain.Room) (bool, error) {
	s.mu.Lock()
	current, ok := s.rooms[started.ID]
	if !ok {
		s.mu.Unlock()
		return false, &domain.Error{Kind: domain.KindRoomNotFound, RoomID: started.ID}
	}
	if current.Phase != domain.PhaseLobby {
		s.mu.Unlock()
		return false, nil
	}
	s.rooms[started.ID] = started
	s.mu.Unlock()

	s.notify(Change{Type: ChangeUpdate, RoomID: started.ID, Room: &started})
	return true, nil
}

// notify fans a change out to the room's subscribers without blocking
func (s *MemoryStore) notify(change Change) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subs[change.RoomID] {
		select {
		case ch <- change:
		default:
			s.logger.Warn("subscriber buffer full, dropping change",
				"roomID", change.RoomID,
				"type", change.Type,
			)
		}
	}
}
