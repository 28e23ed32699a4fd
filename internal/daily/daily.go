// Package daily derives the shared "daily" secret: every player who starts
// a daily round on the same UTC date gets the same code.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns HMAC-SHA256(salt, YYYY-MM-DD) split into two PCG seeds.
func Seed(date time.Time, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Source returns a deterministic game.Source for the given date.
// Each call starts a fresh stream, so the same date yields the same secret.
func Source(date time.Time, salt string) game.Source {
	s1, s2 := Seed(date, salt)
	return rand.New(rand.NewPCG(s1, s2))
}

// Secret is the daily code for date, mostly useful for tests and tooling.
func Secret(date time.Time, salt string) game.Secret {
	s, err := game.Generate(Source(date, salt), game.CodeLength)
	if err != nil {
		panic(err) // CodeLength is always in range
	}
	return s
}
