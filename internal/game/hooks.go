package game

import (
	"context"
	"time"
)

// Hooks are callbacks fired after Session state changes. They run outside
// the Session lock, so they may query the Session, but must not block for
// long: OnGuess and OnRoundEnd run on the caller's goroutine, OnCommentary
// on the commentary goroutine. A panicking hook is logged and skipped; it
// never leaves the Session half-updated.
type Hooks struct {
	OnRoundStart func(ctx context.Context, r RoundView)
	OnGuess      func(ctx context.Context, roundID string, rec GuessRecord)
	OnRoundEnd   func(ctx context.Context, r RoundView, st Stats)
	OnCommentary func(ctx context.Context, ev CommentaryEvent)
}

// CommentaryEvent reports a resolved commentary fetch.
type CommentaryEvent struct {
	RoundID  string
	Turn     int
	Text     string
	Outcome  CommentaryOutcome
	Duration time.Duration
	Err      error
}

func (s *Session) fireRoundStart(ctx context.Context, r RoundView) {
	for _, h := range s.hooks {
		if h.OnRoundStart != nil {
			s.runHook("OnRoundStart", func() { h.OnRoundStart(ctx, r) })
		}
	}
}

func (s *Session) fireGuess(ctx context.Context, roundID string, rec GuessRecord) {
	for _, h := range s.hooks {
		if h.OnGuess != nil {
			s.runHook("OnGuess", func() { h.OnGuess(ctx, roundID, rec) })
		}
	}
}

func (s *Session) fireRoundEnd(ctx context.Context, r RoundView, st Stats) {
	for _, h := range s.hooks {
		if h.OnRoundEnd != nil {
			s.runHook("OnRoundEnd", func() { h.OnRoundEnd(ctx, r, st) })
		}
	}
}

func (s *Session) fireCommentary(ctx context.Context, ev CommentaryEvent) {
	for _, h := range s.hooks {
		if h.OnCommentary != nil {
			s.runHook("OnCommentary", func() { h.OnCommentary(ctx, ev) })
		}
	}
}

// runHook calls fn, recovering and logging a panic.
func (s *Session) runHook(name string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error().Str("hook", name).Interface("panic", p).Msg("hook panicked")
		}
	}()
	fn()
}
