package domain

import (
	"math/rand"
	"slices"
	"strings"
	"time"
)

const (
	// MinPlayers is the minimum number of players required to start a game
	MinPlayers = 3

	// RoomTTL is how long a room lives after creation
	RoomTTL = 30 * time.Minute
)

// Room is the aggregate root for one game session. All mutating operations
// are pure: they take the receiver by value and return a new Room with
// freshly cloned slices, so callers can persist or discard the result.
type Room struct {
	ID                 string   `json:"id"`
	Word               string   `json:"word"`
	Theme              string   `json:"theme"`
	Phase              Phase    `json:"phase"`
	GameMode           GameMode `json:"gameMode"`
	Players            []Player `json:"players"`
	Votes              []Vote   `json:"votes"`
	ImposterID         string   `json:"imposterId,omitempty"`
	HostID             string   `json:"hostId"`
	Locked             bool     `json:"locked"`
	CurrentPlayerIndex int      `json:"currentPlayerIndex"`
	CreatedAt          int64    `json:"createdAt"` // epoch millis
	UpdatedAt          int64    `json:"updatedAt"`
	ExpiresAt          int64    `json:"expiresAt"`
}

// NewRoom creates a room with the host as its only player. The first secret
// word is supplied by the caller (drawn from the active theme's word list).
func NewRoom(hostName, theme string, mode GameMode, word string) Room {
	now := time.Now()
	host := NewPlayer(strings.TrimSpace(hostName), true)
	return Room{
		ID:        NewRoomCode(),
		Word:      word,
		Theme:     theme,
		Phase:     PhaseLobby,
		GameMode:  mode,
		Players:   []Player{host},
		Votes:     []Vote{},
		HostID:    host.ID,
		CreatedAt: now.UnixMilli(),
		UpdatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(RoomTTL).UnixMilli(),
	}
}

// clone copies the room with independent slices
func (r Room) clone() Room {
	r.Players = slices.Clone(r.Players)
	r.Votes = slices.Clone(r.Votes)
	return r
}

func (r Room) touch() Room {
	r.UpdatedAt = time.Now().UnixMilli()
	return r
}

// Player returns the player with the given ID
func (r Room) Player(playerID string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// IsHost reports whether the given player is the host
func (r Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

// Expired reports whether the room's TTL has passed
func (r Room) Expired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpiresAt
}

// AddPlayer appends a new non-host player. The trimmed name must not collide
// case-sensitively with an existing player.
func (r Room) AddPlayer(name string) (Room, error) {
	if r.Phase != PhaseLobby {
		return r, &Error{Kind: KindGameInProgress, RoomID: r.ID, Phase: r.Phase}
	}
	if r.Locked {
		return r, &Error{Kind: KindRoomLocked, RoomID: r.ID}
	}
	name = strings.TrimSpace(name)
	for _, p := range r.Players {
		if p.Name == name {
			return r, &Error{Kind: KindPlayerAlreadyExists, RoomID: r.ID, Name: name}
		}
	}
	next := r.clone()
	next.Players = append(next.Players, NewPlayer(name, false))
	return next.touch(), nil
}

// RemovePlayer filters the player out unconditionally; removing an unknown
// player is not an error. Used for explicit removal and disconnect eviction.
func (r Room) RemovePlayer(playerID string) Room {
	next := r.clone()
	next.Players = slices.DeleteFunc(next.Players, func(p Player) bool {
		return p.ID == playerID
	})
	return next.touch()
}

// ReassignHost makes the first remaining player the host. With no players
// left the host reference is cleared.
func (r Room) ReassignHost() Room {
	next := r.clone()
	if len(next.Players) == 0 {
		next.HostID = ""
		return next.touch()
	}
	next.HostID = next.Players[0].ID
	for i := range next.Players {
		next.Players[i].IsHost = next.Players[i].ID == next.HostID
	}
	return next.touch()
}

// StartGame locks the room, picks one imposter uniformly at random and moves
// to the role phase. The canonical player order (join order) is preserved;
// randomness affects only which player becomes the imposter.
func (r Room) StartGame() (Room, error) {
	if r.Phase != PhaseLobby {
		return r, &Error{Kind: KindInvalidGamePhase, RoomID: r.ID, Phase: r.Phase}
	}
	if len(r.Players) < MinPlayers {
		return r, &Error{Kind: KindInsufficientPlayers, RoomID: r.ID}
	}
	next := r.clone()
	imposter := next.Players[rand.Intn(len(next.Players))].ID
	for i := range next.Players {
		next.Players[i].IsImposter = next.Players[i].ID == imposter
	}
	next.ImposterID = imposter
	next.Phase = PhaseRole
	next.Locked = true
	next.CurrentPlayerIndex = 0
	return next.touch(), nil
}

// NextPhase advances one step along the mode-specific sequence. At the
// terminal phase this is a no-op.
func (r Room) NextPhase() Room {
	next := r.clone()
	next.Phase = r.Phase.Next(r.GameMode)
	return next.touch()
}

// SubmitVote records a vote. A later vote from the same voter replaces the
// earlier one (last-vote-wins).
func (r Room) SubmitVote(voterID, targetID string) (Room, error) {
	if r.Phase != PhaseVote {
		return r, &Error{Kind: KindInvalidGamePhase, RoomID: r.ID, Phase: r.Phase}
	}
	voter, ok := r.Player(voterID)
	if !ok {
		return r, &Error{Kind: KindPlayerNotFound, RoomID: r.ID, PlayerID: voterID}
	}
	target, ok := r.Player(targetID)
	if !ok {
		return r, &Error{Kind: KindInvalidVoteTarget, RoomID: r.ID, PlayerID: targetID}
	}
	vote := Vote{
		VoterID:    voter.ID,
		VoterName:  voter.Name,
		TargetID:   target.ID,
		TargetName: target.Name,
	}
	next := r.clone()
	replaced := false
	for i, v := range next.Votes {
		if v.VoterID == voterID {
			next.Votes[i] = vote
			replaced = true
			break
		}
	}
	if !replaced {
		next.Votes = append(next.Votes, vote)
	}
	return next.touch(), nil
}

// AllVotesSubmitted reports whether every player has voted
func (r Room) AllVotesSubmitted() bool {
	return len(r.Votes) == len(r.Players)
}

// CalculateVoteResults tallies votes per target. Ties break toward the
// target that reached the winning count first, in vote cast order.
func (r Room) CalculateVoteResults() VoteResults {
	counts := make(map[string]int, len(r.Players))
	mostVoted := ""
	max := 0
	for _, v := range r.Votes {
		counts[v.TargetID]++
		if counts[v.TargetID] > max {
			max = counts[v.TargetID]
			mostVoted = v.TargetID
		}
	}
	return VoteResults{
		MostVotedPlayerID: mostVoted,
		VoteCount:         max,
		VoteCounts:        counts,
	}
}

// CheckImposterWin reports whether the imposter escaped: true whenever the
// most-voted player is not the imposter, including when nobody was voted out
// (empty mostVotedPlayerID).
func (r Room) CheckImposterWin(mostVotedPlayerID string) bool {
	return mostVotedPlayerID != r.ImposterID
}

// ResetGame clears votes and roles, unlocks the room and returns to lobby
// with a fresh word from the same theme. Players are retained. The TTL is
// renewed so an active room does not expire mid-game.
func (r Room) ResetGame(word string) Room {
	return r.ResetGameWithTheme(r.Theme, word)
}

// ResetGameWithTheme resets like ResetGame but switches the theme
func (r Room) ResetGameWithTheme(theme, word string) Room {
	next := r.clone()
	next.Theme = theme
	next.Word = word
	next.Phase = PhaseLobby
	next.Votes = []Vote{}
	next.ImposterID = ""
	next.Locked = false
	next.CurrentPlayerIndex = 0
	for i := range next.Players {
		next.Players[i].IsImposter = false
	}
	next.ExpiresAt = time.Now().Add(RoomTTL).UnixMilli()
	return next.touch()
}

// ResetAndStartGame resets and immediately starts the next round. Used in
// pass-and-play so the shared device never stalls in an unattended lobby.
func (r Room) ResetAndStartGame(word string) (Room, error) {
	return r.ResetGame(word).StartGame()
}

// ResetAndStartGameWithTheme is ResetAndStartGame with a theme switch
func (r Room) ResetAndStartGameWithTheme(theme, word string) (Room, error) {
	return r.ResetGameWithTheme(theme, word).StartGame()
}

// NextPlayer advances the pass-and-play turn index by one. The index does
// not wrap; AllPlayersRevealed is the completion predicate.
func (r Room) NextPlayer() Room {
	next := r.clone()
	next.CurrentPlayerIndex++
	return next.touch()
}

// AllPlayersRevealed reports whether the last player has had their turn
func (r Room) AllPlayersRevealed() bool {
	return r.CurrentPlayerIndex >= len(r.Players)-1
}

// StateForPlayer returns the requesting player's view of the round. The
// secret word is withheld from the imposter. Computed on every call, never
// cached.
func (r Room) StateForPlayer(playerID string) PlayerState {
	if r.ImposterID != "" && playerID == r.ImposterID {
		return PlayerState{IsImposter: true}
	}
	return PlayerState{Word: r.Word}
}
