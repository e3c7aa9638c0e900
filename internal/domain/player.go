package domain

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a player in a room. Identity is the ID; the name must be
// unique within the room while in lobby.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHost     bool   `json:"isHost"`
	IsImposter bool   `json:"isImposter"`
	JoinedAt   int64  `json:"joinedAt"` // epoch millis
}

// NewPlayer creates a player with a fresh ID
func NewPlayer(name string, isHost bool) Player {
	return Player{
		ID:       uuid.New().String(),
		Name:     name,
		IsHost:   isHost,
		JoinedAt: time.Now().UnixMilli(),
	}
}

// PlayerState is the per-player view of a round. Word is empty for the
// imposter; this is the confidentiality boundary.
type PlayerState struct {
	Word       string `json:"word,omitempty"`
	IsImposter bool   `json:"isImposter"`
}
