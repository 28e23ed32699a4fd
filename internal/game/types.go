// internal/game/types.go
//
// Core type definitions for the number-baseball game engine.
// Defines:
//   - Secret / Guess: 4-digit codes with pairwise distinct digits.
//   - Result: strike/ball score of a guess.
//   - GuessRecord: one submitted guess plus its (asynchronous) commentary.
//   - Status / Round: lifecycle of a single playthrough.
//   - Stats: aggregate outcomes across rounds in this process.

package game

import "time"

const (
	// CodeLength is the number of digits in every secret and guess.
	CodeLength = 4
	// MaxAttempts is the number of guesses allowed per round.
	MaxAttempts = 10
)

// Secret is the hidden code for a round. Digits are distinct, '0'..'9'.
type Secret string

// Guess is a player's candidate code. Digits are distinct, '0'..'9'.
type Guess string

// Result is the evaluation of a guess against a secret.
// Strikes + Balls never exceeds the code length.
type Result struct {
	Strikes int `json:"strikes"`
	Balls   int `json:"balls"`
}

// Solved reports whether every position matched.
func (r Result) Solved() bool { return r.Strikes == CodeLength }

// Status is the coarse state of a round.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether no further guesses are accepted.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// GuessRecord is created once per submitted guess. Commentary is empty until
// the commentator resolves and is then written exactly once.
type GuessRecord struct {
	Turn        int       `json:"turn"` // 1-based position in the round history
	Guess       Guess     `json:"guess"`
	Strikes     int       `json:"strikes"`
	Balls       int       `json:"balls"`
	Commentary  string    `json:"commentary,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Round holds the state of a single playthrough.
type Round struct {
	ID        string        // ULID, used to tag commentary fetches
	Secret    Secret        // never exposed while the round is in progress
	History   []GuessRecord // insertion ordered, len <= MaxAttempts
	Status    Status
	StartedAt time.Time
	EndedAt   time.Time // zero until terminal
}

// RoundView is a read-only snapshot of a round for presentation layers.
type RoundView struct {
	ID                 string        `json:"id"`
	Status             Status        `json:"status"`
	History            []GuessRecord `json:"history"`
	Attempts           int           `json:"attempts"`
	MaxAttempts        int           `json:"maxAttempts"`
	RemainingAttempts  int           `json:"remainingAttempts"`
	AwaitingCommentary bool          `json:"awaitingCommentary"`
	Secret             Secret        `json:"secret,omitempty"` // only set once the round is lost
	StartedAt          time.Time     `json:"startedAt"`
	EndedAt            *time.Time    `json:"endedAt,omitempty"`
}

// Stats aggregates round outcomes for the lifetime of a Session.
type Stats struct {
	Wins      int  `json:"wins"`
	Losses    int  `json:"losses"`
	BestScore *int `json:"bestScore"` // fewest guesses in a won round; nil until the first win
}
