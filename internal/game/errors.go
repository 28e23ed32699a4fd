package game

import "errors"

var (
	// ErrInvalidGuess is returned for malformed input: wrong length,
	// a non-digit character, or a repeated digit.
	ErrInvalidGuess = errors.New("invalid guess")

	// ErrRoundOver is returned when a guess arrives after the round was won or lost.
	ErrRoundOver = errors.New("round finished")

	// ErrCommentaryPending is returned while the previous guess still awaits commentary.
	ErrCommentaryPending = errors.New("commentary pending")

	// ErrNoRound is returned when no round has been started yet.
	ErrNoRound = errors.New("no round in progress")

	// ErrSecretLength signals a generator misconfiguration: the requested
	// length cannot be drawn from ten distinct digits.
	ErrSecretLength = errors.New("secret length out of range")

	// ErrEmptyCommentary lets commentators report a response without text.
	ErrEmptyCommentary = errors.New("empty commentary")
)

// ErrCommentaryUnavailable lets commentators report that they were never
// configured (for example, no API key) so no request was attempted.
var ErrCommentaryUnavailable = errors.New("commentary unavailable")
