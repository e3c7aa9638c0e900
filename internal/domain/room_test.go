package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lobbyRoom(t *testing.T, mode GameMode, playerNames ...string) Room {
	t.Helper()
	room := NewRoom("Alice", "default", mode, "lantern")
	for _, name := range playerNames {
		var err error
		room, err = room.AddPlayer(name)
		require.NoError(t, err)
	}
	return room
}

func TestNewRoom(t *testing.T) {
	before := time.Now()
	room := NewRoom("Alice", "default", ModeOnline, "lantern")

	assert.Len(t, room.ID, RoomCodeLength)
	assert.Equal(t, PhaseLobby, room.Phase)
	assert.Equal(t, "lantern", room.Word)
	assert.False(t, room.Locked)
	assert.Empty(t, room.ImposterID)

	require.Len(t, room.Players, 1)
	host := room.Players[0]
	assert.Equal(t, "Alice", host.Name)
	assert.True(t, host.IsHost)
	assert.Equal(t, host.ID, room.HostID)

	wantExpiry := before.Add(RoomTTL).UnixMilli()
	assert.InDelta(t, wantExpiry, room.ExpiresAt, float64(time.Second.Milliseconds()))
}

func TestAddPlayer(t *testing.T) {
	room := lobbyRoom(t, ModeOnline)

	next, err := room.AddPlayer("  Bob  ")
	require.NoError(t, err)
	require.Len(t, next.Players, 2)
	assert.Equal(t, "Bob", next.Players[1].Name)
	assert.False(t, next.Players[1].IsHost)
	assert.False(t, next.Players[1].IsImposter)

	// Original value is untouched
	assert.Len(t, room.Players, 1)
}

func TestAddPlayer_DuplicateName(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob")

	_, err := room.AddPlayer("Bob")
	assert.ErrorIs(t, err, ErrPlayerAlreadyExists)

	// Case-sensitive comparison: different case is a different name
	_, err = room.AddPlayer("bob")
	assert.NoError(t, err)
}

func TestAddPlayer_AfterStart(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob", "Carol")
	started, err := room.StartGame()
	require.NoError(t, err)

	_, err = started.AddPlayer("Dave")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestAddPlayer_Locked(t *testing.T) {
	room := lobbyRoom(t, ModeOnline)
	room.Locked = true

	_, err := room.AddPlayer("Bob")
	assert.ErrorIs(t, err, ErrRoomLocked)
}

func TestRemovePlayer(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob")
	bob := room.Players[1]

	next := room.RemovePlayer(bob.ID)
	assert.Len(t, next.Players, 1)

	// Removing an unknown player is not an error
	again := next.RemovePlayer("missing")
	assert.Len(t, again.Players, 1)
}

func TestReassignHost(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob", "Carol")
	host := room.Players[0]

	next := room.RemovePlayer(host.ID).ReassignHost()
	require.Len(t, next.Players, 2)
	assert.Equal(t, next.Players[0].ID, next.HostID)
	assert.True(t, next.Players[0].IsHost)
	assert.False(t, next.Players[1].IsHost)
}

func TestReassignHost_Empty(t *testing.T) {
	room := lobbyRoom(t, ModeOnline)
	next := room.RemovePlayer(room.HostID).ReassignHost()
	assert.Empty(t, next.HostID)
}

func TestStartGame(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob", "Carol")

	started, err := room.StartGame()
	require.NoError(t, err)

	assert.Equal(t, PhaseRole, started.Phase)
	assert.True(t, started.Locked)
	assert.NotEmpty(t, started.ImposterID)

	// Exactly one imposter, matching ImposterID
	imposters := 0
	for _, p := range started.Players {
		if p.IsImposter {
			imposters++
			assert.Equal(t, p.ID, started.ImposterID)
		}
	}
	assert.Equal(t, 1, imposters)

	// Canonical order is join order, not shuffled
	for i, p := range started.Players {
		assert.Equal(t, room.Players[i].ID, p.ID)
	}
}

func TestStartGame_InsufficientPlayers(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob")

	_, err := room.StartGame()
	assert.ErrorIs(t, err, ErrInsufficientPlayers)

	// The room value is unchanged
	assert.Equal(t, PhaseLobby, room.Phase)
	assert.False(t, room.Locked)
	assert.Empty(t, room.ImposterID)
}

func TestStartGame_WrongPhase(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob", "Carol")
	started, err := room.StartGame()
	require.NoError(t, err)

	_, err = started.StartGame()
	assert.ErrorIs(t, err, ErrInvalidGamePhase)

	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, started.ID, derr.RoomID)
	assert.Equal(t, PhaseRole, derr.Phase)
}

func TestNextPhase_Sequences(t *testing.T) {
	tests := []struct {
		mode GameMode
		want []Phase
	}{
		{ModeOnline, []Phase{PhaseRole, PhaseVote, PhaseResult, PhaseResult}},
		{ModePassAndPlay, []Phase{PhaseRole, PhaseInPersonRound, PhaseResult, PhaseResult}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			room := lobbyRoom(t, tt.mode)
			for _, want := range tt.want {
				room = room.NextPhase()
				assert.Equal(t, want, room.Phase)
			}
		})
	}
}

func TestNextPhase_TerminalIdempotent(t *testing.T) {
	room := lobbyRoom(t, ModeOnline)
	room.Phase = PhaseResult

	next := room.NextPhase()
	assert.Equal(t, PhaseResult, next.Phase)
}

func votingRoom(t *testing.T, playerNames ...string) Room {
	t.Helper()
	room := lobbyRoom(t, ModeOnline, playerNames...)
	started, err := room.StartGame()
	require.NoError(t, err)
	return started.NextPhase() // role -> vote
}

func TestSubmitVote(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")
	voter, target := room.Players[0], room.Players[1]

	next, err := room.SubmitVote(voter.ID, target.ID)
	require.NoError(t, err)
	require.Len(t, next.Votes, 1)
	assert.Equal(t, voter.ID, next.Votes[0].VoterID)
	assert.Equal(t, voter.Name, next.Votes[0].VoterName)
	assert.Equal(t, target.ID, next.Votes[0].TargetID)
	assert.Equal(t, target.Name, next.Votes[0].TargetName)
}

func TestSubmitVote_LastVoteWins(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")
	voter := room.Players[0]
	first, second := room.Players[1], room.Players[2]

	next, err := room.SubmitVote(voter.ID, first.ID)
	require.NoError(t, err)
	next, err = next.SubmitVote(voter.ID, second.ID)
	require.NoError(t, err)

	require.Len(t, next.Votes, 1)
	assert.Equal(t, second.ID, next.Votes[0].TargetID)
}

func TestSubmitVote_Errors(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")
	voter, target := room.Players[0], room.Players[1]

	_, err := room.SubmitVote("ghost", target.ID)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = room.SubmitVote(voter.ID, "ghost")
	assert.ErrorIs(t, err, ErrInvalidVoteTarget)

	lobby := lobbyRoom(t, ModeOnline, "Bob", "Carol")
	_, err = lobby.SubmitVote(lobby.Players[0].ID, lobby.Players[1].ID)
	assert.ErrorIs(t, err, ErrInvalidGamePhase)
}

func TestAllVotesSubmitted(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")
	target := room.Players[0]

	assert.False(t, room.AllVotesSubmitted())

	for _, p := range room.Players {
		var err error
		room, err = room.SubmitVote(p.ID, target.ID)
		require.NoError(t, err)
	}
	assert.True(t, room.AllVotesSubmitted())

	// Revoting replaces, so the count can never exceed the player count
	revoted, err := room.SubmitVote(room.Players[1].ID, room.Players[2].ID)
	require.NoError(t, err)
	assert.Len(t, revoted.Votes, len(revoted.Players))
}

func TestCalculateVoteResults(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol", "Dave")
	a, b, c, d := room.Players[0], room.Players[1], room.Players[2], room.Players[3]

	var err error
	for _, vote := range []struct{ voter, target string }{
		{a.ID, b.ID},
		{c.ID, b.ID},
		{d.ID, a.ID},
		{b.ID, a.ID},
	} {
		room, err = room.SubmitVote(vote.voter, vote.target)
		require.NoError(t, err)
	}

	results := room.CalculateVoteResults()
	// Both a and b have two votes; b reached two first in cast order
	assert.Equal(t, b.ID, results.MostVotedPlayerID)
	assert.Equal(t, 2, results.VoteCount)
	assert.Equal(t, map[string]int{a.ID: 2, b.ID: 2}, results.VoteCounts)
}

func TestCalculateVoteResults_NoVotes(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")

	results := room.CalculateVoteResults()
	assert.Empty(t, results.MostVotedPlayerID)
	assert.Zero(t, results.VoteCount)
	assert.Empty(t, results.VoteCounts)
}

func TestCheckImposterWin(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")

	var nonImposter string
	for _, p := range room.Players {
		if !p.IsImposter {
			nonImposter = p.ID
			break
		}
	}

	assert.True(t, room.CheckImposterWin(nonImposter), "voting out a regular player lets the imposter win")
	assert.False(t, room.CheckImposterWin(room.ImposterID), "catching the imposter")
	assert.True(t, room.CheckImposterWin(""), "no votes at all defaults to an imposter win")
}

func TestVoteScenario(t *testing.T) {
	// Room with A(host), B, C: everyone votes for one non-imposter player X
	room := votingRoom(t, "Bob", "Carol")

	var x string
	for _, p := range room.Players {
		if !p.IsImposter {
			x = p.ID
			break
		}
	}

	var err error
	for _, p := range room.Players {
		room, err = room.SubmitVote(p.ID, x)
		require.NoError(t, err)
	}

	results := room.CalculateVoteResults()
	assert.Equal(t, x, results.MostVotedPlayerID)
	assert.Equal(t, 3, results.VoteCount)
	assert.True(t, room.CheckImposterWin(results.MostVotedPlayerID))
}

func TestResetGame(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")
	var err error
	room, err = room.SubmitVote(room.Players[0].ID, room.Players[1].ID)
	require.NoError(t, err)

	reset := room.ResetGame("glacier")

	assert.Equal(t, PhaseLobby, reset.Phase)
	assert.Equal(t, "glacier", reset.Word)
	assert.False(t, reset.Locked)
	assert.Empty(t, reset.ImposterID)
	assert.Empty(t, reset.Votes)
	assert.Len(t, reset.Players, 3)
	for _, p := range reset.Players {
		assert.False(t, p.IsImposter)
	}
}

func TestResetGameWithTheme(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob", "Carol")
	reset := room.ResetGameWithTheme("food", "sushi")
	assert.Equal(t, "food", reset.Theme)
	assert.Equal(t, "sushi", reset.Word)
}

func TestResetAndStartGame(t *testing.T) {
	room := lobbyRoom(t, ModePassAndPlay, "Bob", "Carol")
	started, err := room.StartGame()
	require.NoError(t, err)
	started.Phase = PhaseResult

	next, err := started.ResetAndStartGame("meteor")
	require.NoError(t, err)
	assert.Equal(t, PhaseRole, next.Phase)
	assert.Equal(t, "meteor", next.Word)
	assert.True(t, next.Locked)
	assert.NotEmpty(t, next.ImposterID)
}

func TestImposterSelectionIsIndependentAcrossRounds(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob", "Carol")

	const trials = 300
	selected := make(map[string]int, 3)
	current := room
	for i := 0; i < trials; i++ {
		started, err := current.StartGame()
		require.NoError(t, err)
		selected[started.ImposterID]++
		current = started.ResetGame("lantern")
	}

	// Each of the three players should be picked a plausible share of the
	// time; a player never (or always) selected means the draw is broken.
	for _, p := range room.Players {
		count := selected[p.ID]
		assert.Greater(t, count, trials/10, "player %s under-selected: %d/%d", p.Name, count, trials)
		assert.Less(t, count, trials*9/10, "player %s over-selected: %d/%d", p.Name, count, trials)
	}
}

func TestNextPlayerAndAllPlayersRevealed(t *testing.T) {
	room := lobbyRoom(t, ModePassAndPlay, "Bob", "Carol", "Dave")
	started, err := room.StartGame()
	require.NoError(t, err)

	assert.Equal(t, 0, started.CurrentPlayerIndex)
	assert.False(t, started.AllPlayersRevealed())

	current := started
	for i := 1; i <= 3; i++ {
		current = current.NextPlayer()
		assert.Equal(t, i, current.CurrentPlayerIndex)
		if i < 3 {
			assert.False(t, current.AllPlayersRevealed(), "index %d", i)
		}
	}
	assert.True(t, current.AllPlayersRevealed())
}

func TestStateForPlayer(t *testing.T) {
	room := votingRoom(t, "Bob", "Carol")

	for _, p := range room.Players {
		state := room.StateForPlayer(p.ID)
		if p.ID == room.ImposterID {
			assert.True(t, state.IsImposter)
			assert.Empty(t, state.Word, "the imposter must never see the word")
		} else {
			assert.False(t, state.IsImposter)
			assert.Equal(t, room.Word, state.Word)
		}
	}
}

func TestStateForPlayer_BeforeRoleAssignment(t *testing.T) {
	room := lobbyRoom(t, ModeOnline, "Bob")
	state := room.StateForPlayer(room.Players[0].ID)
	assert.False(t, state.IsImposter)
	assert.Equal(t, room.Word, state.Word)
}

func TestExpired(t *testing.T) {
	room := lobbyRoom(t, ModeOnline)
	assert.False(t, room.Expired(time.Now()))
	assert.True(t, room.Expired(time.Now().Add(RoomTTL+time.Minute)))
}
