// Package store provides the room document store: keyed CRUD plus
// subscribe-by-key change notification and the one compare-and-set
// operation the game needs (StartGameAtomic).
package store

import (
	"context"

	"wordimposter/internal/domain"
)

// ChangeType classifies a row-level change event
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is a row-level change notification for one room. Room is nil for
// deletes.
type Change struct {
	Type   ChangeType
	RoomID string
	Room   *domain.Room
}

// RoomStore is the persistence contract. Errors are *domain.Error values:
// not-found is distinguished from generic read/write failure.
type RoomStore interface {
	Create(ctx context.Context, room domain.Room) (domain.Room, error)
	Get(ctx context.Context, id string) (domain.Room, error)
	Update(ctx context.Context, room domain.Room) (domain.Room, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Room, error)

	// Subscribe streams change events for one room until cancel is called.
	// Events are delivered in commit order; slow consumers may miss events
	// (last-received wins on the consumer side).
	Subscribe(ctx context.Context, id string) (<-chan Change, func(), error)

	// StartGameAtomic persists the started room only if the stored room is
	// still in lobby. A false result is not an error: it means another
	// client already started the game and the caller should re-fetch.
	StartGameAtomic(ctx context.Context, started domain.Room) (bool, error)
}
