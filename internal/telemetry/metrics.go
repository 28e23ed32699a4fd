// Package telemetry exports game metrics to Prometheus through game.Hooks.
package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

const namespace = "numerus"

// Metrics holds the collectors updated by Hooks.
type Metrics struct {
	RoundsStarted      prometheus.Counter
	RoundsFinished     *prometheus.CounterVec
	Guesses            prometheus.Counter
	GuessesPerWin      prometheus.Histogram
	CommentaryOutcomes *prometheus.CounterVec
	CommentaryLatency  prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RoundsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds started.",
		}),
		RoundsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_finished_total",
			Help:      "Rounds finished, by outcome.",
		}, []string{"status"}),
		Guesses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Guesses accepted and scored.",
		}),
		GuessesPerWin: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "guesses_per_win",
			Help:      "Guesses needed to win a round.",
			Buckets:   prometheus.LinearBuckets(1, 1, game.MaxAttempts),
		}),
		CommentaryOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commentary_total",
			Help:      "Commentary fetches, by outcome.",
		}, []string{"outcome"}),
		CommentaryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commentary_duration_seconds",
			Help:      "Time spent waiting for commentary.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Hooks returns session callbacks that update m.
func (m *Metrics) Hooks() game.Hooks {
	return game.Hooks{
		OnRoundStart: func(context.Context, game.RoundView) {
			m.RoundsStarted.Inc()
		},
		OnGuess: func(context.Context, string, game.GuessRecord) {
			m.Guesses.Inc()
		},
		OnRoundEnd: func(_ context.Context, r game.RoundView, _ game.Stats) {
			m.RoundsFinished.WithLabelValues(string(r.Status)).Inc()
			if r.Status == game.StatusWon {
				m.GuessesPerWin.Observe(float64(r.Attempts))
			}
		},
		OnCommentary: func(_ context.Context, ev game.CommentaryEvent) {
			m.CommentaryOutcomes.WithLabelValues(string(ev.Outcome)).Inc()
			m.CommentaryLatency.Observe(ev.Duration.Seconds())
		},
	}
}
