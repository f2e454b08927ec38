package domain

// Riddle is a curated question/answer/category record. The stored answer is
// normalized (uppercased, trimmed) at write time by the admin path, never at
// read time.
type Riddle struct {
	ID          int64  `json:"id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Category    string `json:"category"`
	Explanation string `json:"explanation,omitempty"`
}

// Player holds a player's persistent game state. The ID is an opaque,
// externally issued identifier (e.g. a messaging-platform user id).
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Hints       int    `json:"hints"`
}

// SessionState is what a client gets back on session start.
type SessionState struct {
	PlayerID string `json:"playerId"`
	Hints    int    `json:"hints"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
	// Degraded marks a fallback state served because the store was
	// unreachable; it is never set on a real zero state.
	Degraded bool `json:"degraded,omitempty"`
}

// RiddleCard is the obfuscated form served to players: the answer itself is
// withheld, only its length (in runes) is exposed for rendering blank slots.
type RiddleCard struct {
	RiddleID     int64  `json:"riddleId"`
	Question     string `json:"question"`
	AnswerLength int    `json:"answerLength"`
	Category     string `json:"category"`
}

// AnswerResult summarizes the outcome of a guess.
type AnswerResult struct {
	RiddleID   int64 `json:"riddleId"`
	Correct    bool  `json:"correct"`
	Awarded    int   `json:"awarded"`
	TotalScore int   `json:"totalScore"`
	Rank       int   `json:"rank"`
}

// Revealed is the full answer disclosed by the give-up path.
type Revealed struct {
	RiddleID    int64  `json:"riddleId"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}

// HintResult reports a debit. Used=false with a nil error means the debit
// was refused for lack of balance; the balance is unchanged.
type HintResult struct {
	PlayerID string `json:"playerId"`
	Hints    int    `json:"hints"`
	Used     bool   `json:"used"`
}

// GrantResult reports a credit: how many hints were added and the balance
// after the grant.
type GrantResult struct {
	PlayerID string `json:"playerId"`
	Hints    int    `json:"hints"`
	Granted  int    `json:"granted"`
}

// LeaderboardEntry is one ranked row. Tied scores share a rank.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}
