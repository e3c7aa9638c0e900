package domain

import "fmt"

// ErrorKind discriminates the error taxonomy. Every game or store failure is
// an *Error with exactly one kind; callers dispatch with errors.Is against
// the kind-only sentinels below.
type ErrorKind string

const (
	KindRoomNotFound       ErrorKind = "ROOM_NOT_FOUND"
	KindRoomCreationFailed ErrorKind = "ROOM_CREATION_FAILED"
	KindRoomUpdateFailed   ErrorKind = "ROOM_UPDATE_FAILED"
	KindRoomFull           ErrorKind = "ROOM_FULL"
	KindGameInProgress     ErrorKind = "GAME_IN_PROGRESS"
	KindRoomLocked         ErrorKind = "ROOM_LOCKED"
	KindRoomExpired        ErrorKind = "ROOM_EXPIRED"

	KindInvalidPlayerName   ErrorKind = "INVALID_PLAYER_NAME"
	KindPlayerNotFound      ErrorKind = "PLAYER_NOT_FOUND"
	KindPlayerAlreadyExists ErrorKind = "PLAYER_ALREADY_EXISTS"
	KindNotHost             ErrorKind = "NOT_HOST"

	KindInvalidGamePhase    ErrorKind = "INVALID_GAME_PHASE"
	KindInsufficientPlayers ErrorKind = "INSUFFICIENT_PLAYERS"
	KindInvalidVoteTarget   ErrorKind = "INVALID_VOTE_TARGET"

	KindStoreReadFailed       ErrorKind = "STORE_READ_FAILED"
	KindStoreWriteFailed      ErrorKind = "STORE_WRITE_FAILED"
	KindStoreConnectionFailed ErrorKind = "STORE_CONNECTION_FAILED"

	KindValidation ErrorKind = "VALIDATION"
)

// Error is the discriminated error type for the whole module. Only the
// fields relevant to the kind are populated.
type Error struct {
	Kind     ErrorKind
	RoomID   string
	PlayerID string
	Name     string
	Phase    Phase
	Err      error // wrapped cause, set for store errors
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	switch {
	case e.PlayerID != "":
		msg = fmt.Sprintf("%s: player %s", msg, e.PlayerID)
	case e.Name != "":
		msg = fmt.Sprintf("%s: name %q", msg, e.Name)
	}
	if e.RoomID != "" {
		msg = fmt.Sprintf("%s (room %s)", msg, e.RoomID)
	}
	if e.Phase != "" {
		msg = fmt.Sprintf("%s (phase %s)", msg, e.Phase)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRoomLocked)
// works regardless of the diagnostic fields carried by err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Kind-only sentinels for errors.Is dispatch
var (
	ErrRoomNotFound        = &Error{Kind: KindRoomNotFound}
	ErrRoomCreationFailed  = &Error{Kind: KindRoomCreationFailed}
	ErrRoomUpdateFailed    = &Error{Kind: KindRoomUpdateFailed}
	ErrRoomFull            = &Error{Kind: KindRoomFull}
	ErrGameInProgress      = &Error{Kind: KindGameInProgress}
	ErrRoomLocked          = &Error{Kind: KindRoomLocked}
	ErrRoomExpired         = &Error{Kind: KindRoomExpired}
	ErrInvalidPlayerName   = &Error{Kind: KindInvalidPlayerName}
	ErrPlayerNotFound      = &Error{Kind: KindPlayerNotFound}
	ErrPlayerAlreadyExists = &Error{Kind: KindPlayerAlreadyExists}
	ErrNotHost             = &Error{Kind: KindNotHost}
	ErrInvalidGamePhase    = &Error{Kind: KindInvalidGamePhase}
	ErrInsufficientPlayers = &Error{Kind: KindInsufficientPlayers}
	ErrInvalidVoteTarget   = &Error{Kind: KindInvalidVoteTarget}
	ErrStoreRead           = &Error{Kind: KindStoreReadFailed}
	ErrStoreWrite          = &Error{Kind: KindStoreWriteFailed}
	ErrStoreConnection     = &Error{Kind: KindStoreConnectionFailed}
	ErrValidation          = &Error{Kind: KindValidation}
)
