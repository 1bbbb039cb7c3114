package domain

// State identifies where a session is in the quiz flow.
type State string

const (
	// StateNaming means the session exists but the user has not registered a name yet.
	StateNaming State = "naming"
	// StateAnswering means the round is assigned and the cursor has questions left.
	StateAnswering State = "answering"
	// StateFinished means the cursor has reached the end of the assigned round.
	StateFinished State = "finished"
)

// Question is one multiple-choice question from the bank. Immutable once loaded.
type Question struct {
	Text         string   `json:"text" yaml:"text"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correct"`
}

// Session is the per-user quiz progress record. The session store owns the
// canonical copy; callers mutate a local value and write it back.
type Session struct {
	UserID string     `json:"userId"`
	Name   string     `json:"name"`
	Score  int        `json:"score"`
	Quiz   []Question `json:"quiz"`
	QIndex int        `json:"qIndex"`
}

// State derives the lifecycle state from the session fields.
func (s Session) State() State {
	if s.Name == "" {
		return StateNaming
	}
	if s.QIndex < len(s.Quiz) {
		return StateAnswering
	}
	return StateFinished
}

// LeaderboardRow is one ranked line of the scoreboard. Rank is 1-indexed by
// position in the sorted order; equal scores occupy distinct consecutive ranks.
type LeaderboardRow struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Leaderboard is the ranked projection over all sessions. When the requesting
// user falls outside the top rows, Requester carries their own row and the
// rendering appends it after an ellipsis marker.
type Leaderboard struct {
	Rows      []LeaderboardRow `json:"rows"`
	Requester *LeaderboardRow  `json:"requester,omitempty"`
}

// Empty reports whether there are no participants at all.
func (l Leaderboard) Empty() bool {
	return len(l.Rows) == 0
}
