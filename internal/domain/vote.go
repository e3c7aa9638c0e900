package domain

// Vote records one player's vote. Names are denormalized copies captured at
// cast time and do not follow later renames. At most one vote per voter; a
// later vote from the same voter replaces the earlier one.
type Vote struct {
	VoterID    string `json:"voterId"`
	VoterName  string `json:"voterName"`
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
}

// VoteResults is the tally outcome for a round
type VoteResults struct {
	MostVotedPlayerID string         `json:"mostVotedPlayerId"`
	VoteCount         int            `json:"voteCount"`
	VoteCounts        map[string]int `json:"voteCounts"`
}
