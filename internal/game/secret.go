package game

import (
	"fmt"
	"math/rand/v2"
)

const digitAlphabet = "0123456789"

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// globalSource draws from the auto-seeded math/rand/v2 top-level generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// RandomSource returns the non-deterministic source used in normal play.
func RandomSource() Source { return globalSource{} }

// Generate draws length digits from 0..9 without replacement, in random order.
// It returns ErrSecretLength when length is outside 1..10.
func Generate(src Source, length int) (Secret, error) {
	if length < 1 || length > len(digitAlphabet) {
		return "", fmt.Errorf("%w: %d (want 1..%d)", ErrSecretLength, length, len(digitAlphabet))
	}
	if src == nil {
		src = globalSource{}
	}

	pool := []byte(digitAlphabet)
	out := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		j := src.IntN(len(pool))
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return Secret(out), nil
}
