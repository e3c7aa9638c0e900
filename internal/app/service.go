// Package app orchestrates the pure game engine against the room store:
// every operation reads the current room, computes the next value and
// persists it. Concurrent writers rely on the store's last-write-wins
// semantics everywhere except game start, which goes through the store's
// compare-and-set.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wordimposter/internal/domain"
	"wordimposter/internal/store"
	"wordimposter/internal/words"
)

// createAttempts bounds retries on room code collision
const createAttempts = 10

// Service exposes the game operations to the transports
type Service struct {
	store    store.RoomStore
	throttle *Throttle
	logger   *slog.Logger
}

// NewService creates the application service
func NewService(st store.RoomStore, throttle *Throttle, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		throttle: throttle,
		logger:   logger,
	}
}

// Stats summarizes the active rooms
type Stats struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
}

// CreateRoom creates a room with the given host, theme and mode. Unknown
// themes fall back to the default; room code collisions are retried.
func (s *Service) CreateRoom(ctx context.Context, hostName, theme string, mode domain.GameMode) (domain.Room, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return domain.Room{}, &domain.Error{Kind: domain.KindInvalidPlayerName, Name: hostName}
	}
	if mode != domain.ModePassAndPlay {
		mode = domain.ModeOnline
	}
	theme = words.Normalize(theme)

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		room := domain.NewRoom(hostName, theme, mode, words.Random(theme))
		created, err := s.store.Create(ctx, room)
		if err != nil {
			if errors.Is(err, domain.ErrRoomCreationFailed) {
				lastErr = err
				continue
			}
			return domain.Room{}, err
		}
		s.logger.Info("room created",
			"roomID", created.ID,
			"theme", created.Theme,
			"mode", created.GameMode,
		)
		return created, nil
	}
	return domain.Room{}, lastErr
}

// GetRoom returns the current room state. Expired rooms read as gone even if
// the janitor has not swept them yet.
func (s *Service) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if room.Expired(time.Now()) {
		return domain.Room{}, &domain.Error{Kind: domain.KindRoomExpired, RoomID: roomID}
	}
	return room, nil
}

// JoinRoom adds a player and returns the updated room plus the new player
func (s *Service) JoinRoom(ctx context.Context, roomID, name string) (domain.Room, domain.Player, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Room{}, domain.Player{}, &domain.Error{Kind: domain.KindInvalidPlayerName, RoomID: roomID}
	}

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, domain.Player{}, err
	}
	next, err := room.AddPlayer(name)
	if err != nil {
		return domain.Room{}, domain.Player{}, err
	}
	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return domain.Room{}, domain.Player{}, err
	}

	player := updated.Players[len(updated.Players)-1]
	s.logger.Info("player joined", "roomID", roomID, "playerID", player.ID)
	return updated, player, nil
}

// LeaveRoom removes a player, reassigning the host if needed. The last
// player leaving deletes the room.
func (s *Service) LeaveRoom(ctx context.Context, roomID, playerID string) (domain.Room, error) {
	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}

	next := room.RemovePlayer(playerID)
	if len(next.Players) == 0 {
		if err := s.store.Delete(ctx, roomID); err != nil {
			return domain.Room{}, err
		}
		s.logger.Info("room deleted, last player left", "roomID", roomID)
		return next, nil
	}
	if room.HostID == playerID {
		next = next.ReassignHost()
	}
	return s.store.Update(ctx, next)
}

// StartGame starts the game through the store's compare-and-set. On
// conflict ("someone else already started it") the fresh room is returned
// without an error.
func (s *Service) StartGame(ctx context.Context, roomID, requesterID string) (domain.Room, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if !room.IsHost(requesterID) {
		return domain.Room{}, &domain.Error{Kind: domain.KindNotHost, RoomID: roomID, PlayerID: requesterID}
	}
	if !s.throttle.Allow(requesterID, "start") {
		return room, nil
	}

	started, err := room.StartGame()
	if err != nil {
		return domain.Room{}, err
	}

	ok, err := s.store.StartGameAtomic(ctx, started)
	if err != nil {
		return domain.Room{}, err
	}
	if !ok {
		s.logger.Debug("start conflict, re-fetching", "roomID", roomID)
		return s.store.Get(ctx, roomID)
	}
	s.logger.Info("game started", "roomID", roomID, "players", len(started.Players))
	return started, nil
}

// AdvancePhase moves the room one step along its phase sequence
func (s *Service) AdvancePhase(ctx context.Context, roomID, requesterID string) (domain.Room, error) {
	if !s.throttle.Allow(requesterID, "phase") {
		return s.store.Get(ctx, roomID)
	}

	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	return s.store.Update(ctx, room.NextPhase())
}

// SubmitVote records a vote; when the last vote lands the room advances to
// the result phase.
func (s *Service) SubmitVote(ctx context.Context, roomID, voterID, targetID string) (domain.Room, error) {
	if !s.throttle.Allow(voterID, "vote") {
		return s.store.Get(ctx, roomID)
	}

	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	next, err := room.SubmitVote(voterID, targetID)
	if err != nil {
		return domain.Room{}, err
	}
	if next.AllVotesSubmitted() {
		next = next.NextPhase()
	}
	return s.store.Update(ctx, next)
}

// NextPlayer advances the pass-and-play turn index
func (s *Service) NextPlayer(ctx context.Context, roomID string) (domain.Room, error) {
	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	return s.store.Update(ctx, room.NextPlayer())
}

// ResetGame returns the room to lobby with a fresh word, optionally
// switching theme, optionally starting the next round immediately
// (pass-and-play).
func (s *Service) ResetGame(ctx context.Context, roomID, theme string, autostart bool) (domain.Room, error) {
	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}

	if theme == "" {
		theme = room.Theme
	}
	theme = words.Normalize(theme)
	word := words.RandomExcluding(theme, []string{room.Word})

	var next domain.Room
	if autostart {
		next, err = room.ResetAndStartGameWithTheme(theme, word)
		if err != nil {
			return domain.Room{}, err
		}
	} else {
		next = room.ResetGameWithTheme(theme, word)
	}
	return s.store.Update(ctx, next)
}

// RoundResult is the outcome of a finished round
type RoundResult struct {
	Results     domain.VoteResults `json:"results"`
	ImposterID  string             `json:"imposterId"`
	Word        string             `json:"word"`
	ImposterWon bool               `json:"imposterWon"`
}

// RoundResults tallies the finished round. Only available in the result
// phase; before that the imposter's identity stays confidential.
func (s *Service) RoundResults(ctx context.Context, roomID string) (RoundResult, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return RoundResult{}, err
	}
	if room.Phase != domain.PhaseResult {
		return RoundResult{}, &domain.Error{Kind: domain.KindInvalidGamePhase, RoomID: roomID, Phase: room.Phase}
	}

	results := room.CalculateVoteResults()
	return RoundResult{
		Results:     results,
		ImposterID:  room.ImposterID,
		Word:        room.Word,
		ImposterWon: room.CheckImposterWin(results.MostVotedPlayerID),
	}, nil
}

// PlayerState returns the requesting player's confidential view of the
// round. The word never reaches the imposter.
func (s *Service) PlayerState(ctx context.Context, roomID, playerID string) (domain.PlayerState, error) {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return domain.PlayerState{}, err
	}
	if _, ok := room.Player(playerID); !ok {
		return domain.PlayerState{}, &domain.Error{Kind: domain.KindPlayerNotFound, RoomID: roomID, PlayerID: playerID}
	}
	return room.StateForPlayer(playerID), nil
}

// GetStats returns counts across all active rooms
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	rooms, err := s.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{ActiveRooms: len(rooms)}
	for _, room := range rooms {
		stats.TotalPlayers += len(room.Players)
	}
	return stats, nil
}
