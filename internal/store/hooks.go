package store

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

// Summarize converts a finished round view into its archived form.
func Summarize(r game.RoundView, secret game.Secret) RoundSummary {
	s := RoundSummary{
		ID:        r.ID,
		Status:    r.Status,
		Secret:    secret,
		Guesses:   r.Attempts,
		StartedAt: r.StartedAt,
	}
	if r.EndedAt != nil {
		s.FinishedAt = *r.EndedAt
	}
	return s
}

// Hooks archives every finished round. Writes are best effort: failures are
// logged and never affect the round outcome.
//
// A won round's view has no secret, but the winning guess equals it.
func Hooks(a Archive) game.Hooks {
	return game.Hooks{
		OnRoundEnd: func(ctx context.Context, r game.RoundView, _ game.Stats) {
			secret := r.Secret
			if secret == "" && r.Status == game.StatusWon && len(r.History) > 0 {
				secret = game.Secret(r.History[len(r.History)-1].Guess)
			}
			if err := a.Save(context.WithoutCancel(ctx), Summarize(r, secret)); err != nil {
				log.Warn().Err(err).Str("round", r.ID).Msg("archive round")
			}
		},
	}
}
