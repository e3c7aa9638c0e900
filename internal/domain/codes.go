package domain

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
)

// RoomCodeChars excludes ambiguous characters: 0, O, 1, I, L
const RoomCodeChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the fixed length of a room code
const RoomCodeLength = 6

// NewRoomCode generates a random room code
func NewRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(RoomCodeChars))))
		if err != nil {
			// fall back to math/rand if crypto fails
			code[i] = RoomCodeChars[mrand.Intn(len(RoomCodeChars))]
			continue
		}
		code[i] = RoomCodeChars[n.Int64()]
	}
	return string(code)
}
