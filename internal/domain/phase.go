package domain

// Phase represents the current stage of a room's game state machine
type Phase string

const (
	PhaseLobby         Phase = "lobby"           // Waiting for players to join
	PhaseRole          Phase = "role"            // Players viewing their roles
	PhaseVote          Phase = "vote"            // Online mode: everyone votes
	PhaseInPersonRound Phase = "in-person-round" // Pass-and-play: discussion happens off-device
	PhaseResult        Phase = "result"          // Show outcome
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// GameMode selects which phase sequence a room follows
type GameMode string

const (
	ModeOnline      GameMode = "online"        // Each player on their own device
	ModePassAndPlay GameMode = "pass-and-play" // Shared device, players cycle turns
)

// String returns the string representation of the game mode
func (m GameMode) String() string {
	return string(m)
}

// PhaseSequence returns the ordered phases for a game mode
func PhaseSequence(mode GameMode) []Phase {
	if mode == ModePassAndPlay {
		return []Phase{PhaseLobby, PhaseRole, PhaseInPersonRound, PhaseResult}
	}
	return []Phase{PhaseLobby, PhaseRole, PhaseVote, PhaseResult}
}

// Next returns the phase one step forward along the mode-specific sequence.
// The terminal phase maps to itself.
func (p Phase) Next(mode GameMode) Phase {
	seq := PhaseSequence(mode)
	for i, phase := range seq {
		if phase == p {
			if i == len(seq)-1 {
				return p
			}
			return seq[i+1]
		}
	}
	return p
}
