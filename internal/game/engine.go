// internal/game/engine.go
//
// Guess parsing and scoring for number baseball.
// Responsibilities:
//   - Validate raw guesses (length, digits only, no repeated digit).
//   - Score a guess against a secret as strikes and balls.
//
// Notes:
//   - Evaluate checks ball eligibility against the whole secret without
//     removing matched positions. That is only correct because both codes
//     have distinct digits; relaxing ParseGuess means Evaluate needs a
//     multiset (count and decrement) pass like Wordle scoring.

package game

import (
	"fmt"
	"strings"
)

// ParseGuess normalizes and validates raw player input.
// Surrounding whitespace is ignored; anything else must be exactly
// CodeLength distinct digits.
func ParseGuess(raw string) (Guess, error) {
	s := strings.TrimSpace(raw)
	if len(s) != CodeLength {
		return "", fmt.Errorf("%w: want %d digits, got %q", ErrInvalidGuess, CodeLength, s)
	}
	var seen [10]bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) {
			return "", fmt.Errorf("%w: %q is not a digit", ErrInvalidGuess, c)
		}
		if seen[c-'0'] {
			return "", fmt.Errorf("%w: digit %q repeated", ErrInvalidGuess, c)
		}
		seen[c-'0'] = true
	}
	return Guess(s), nil
}

// Evaluate scores guess against secret.
//
// For each position:
//   - same digit as the secret at that position → strike
//   - otherwise, digit present anywhere in the secret → ball
//
// Callers guarantee equal lengths and distinct digits (see ParseGuess).
func Evaluate(secret Secret, guess Guess) Result {
	var r Result
	s := string(secret)
	for i := 0; i < len(guess) && i < len(s); i++ {
		switch {
		case guess[i] == s[i]:
			r.Strikes++
		case strings.IndexByte(s, guess[i]) >= 0:
			r.Balls++
		}
	}
	return r
}

// isDigit reports whether c is an ASCII 0–9.
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
