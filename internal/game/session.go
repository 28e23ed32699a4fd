// internal/game/session.go
//
// Session owns the round lifecycle for a single player.
// Responsibilities:
//   - Start rounds (fresh secret, empty history) while carrying Stats forward.
//   - Apply guesses: validate → score → append → won/lost check → stats.
//   - Fetch commentary for each guess asynchronously and patch the record
//     in place, discarding results that belong to an older round.
//
// State transitions:
//   - in_progress → won   when a guess scores CodeLength strikes (checked first).
//   - in_progress → lost  when history reaches MaxAttempts without a win.
//
// All mutations happen under mu. Hooks and the commentator run outside it.

package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultCommentaryTimeout = 15 * time.Second

// Session is the game state machine. The zero value is not usable; call NewSession.
type Session struct {
	mu      sync.Mutex
	round   *Round
	wins    int
	losses  int
	best    int // 0 until the first win
	pending bool

	src         Source
	commentator Commentator
	timeout     time.Duration
	hooks       []Hooks
	logger      zerolog.Logger
	baseCtx     context.Context
	now         func() time.Time

	wg sync.WaitGroup // outstanding commentary goroutines
}

// Option configures a Session.
type Option func(*Session)

// WithSource sets the randomness used for new secrets.
func WithSource(src Source) Option {
	return func(s *Session) { s.src = src }
}

// WithCommentator sets the commentary collaborator. A nil commentator
// resolves every record to UnavailableCommentary without any call.
func WithCommentator(c Commentator) Option {
	return func(s *Session) { s.commentator = c }
}

// WithCommentaryTimeout bounds the single commentary attempt per guess.
func WithCommentaryTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHooks registers lifecycle callbacks. May be given more than once.
func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = append(s.hooks, h) }
}

// WithLogger overrides the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithContext sets the parent context of commentary fetches. Cancelling it
// makes outstanding and future fetches fail fast (and fall back).
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.baseCtx = ctx }
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession constructs a Session with no round started.
func NewSession(opts ...Option) *Session {
	s := &Session{
		src:     RandomSource(),
		timeout: defaultCommentaryTimeout,
		logger:  log.Logger,
		baseCtx: context.Background(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RoundOption customizes a single StartRound call.
type RoundOption func(*roundConfig)

type roundConfig struct {
	src Source
}

// FromSource draws this round's secret from src instead of the Session source.
func FromSource(src Source) RoundOption {
	return func(c *roundConfig) { c.src = src }
}

// StartRound discards the current round and begins a new one. Stats are
// kept. Any commentary still in flight for the old round will be dropped.
func (s *Session) StartRound(ctx context.Context, opts ...RoundOption) RoundView {
	cfg := roundConfig{src: s.src}
	for _, opt := range opts {
		opt(&cfg)
	}
	secret, err := Generate(cfg.src, CodeLength)
	if err != nil {
		// CodeLength is a compile-time constant inside the valid range.
		panic(err)
	}

	s.mu.Lock()
	s.round = &Round{
		ID:        ulid.Make().String(),
		Secret:    secret,
		History:   make([]GuessRecord, 0, MaxAttempts),
		Status:    StatusInProgress,
		StartedAt: s.now(),
	}
	s.pending = false
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Info().Str("round", view.ID).Msg("round started")
	s.fireRoundStart(ctx, view)
	return view
}

// SubmitGuess validates and scores raw, appends a record to the current
// round and settles won/lost. The returned record has no commentary yet;
// it is patched in place once the commentator answers.
//
// Rejected calls leave all state untouched and return ErrInvalidGuess,
// ErrNoRound, ErrRoundOver or ErrCommentaryPending.
func (s *Session) SubmitGuess(ctx context.Context, raw string) (GuessRecord, error) {
	guess, err := ParseGuess(raw)
	if err != nil {
		return GuessRecord{}, err
	}

	s.mu.Lock()
	switch {
	case s.round == nil:
		s.mu.Unlock()
		return GuessRecord{}, ErrNoRound
	case s.round.Status.Terminal():
		s.mu.Unlock()
		return GuessRecord{}, ErrRoundOver
	case s.pending:
		s.mu.Unlock()
		return GuessRecord{}, ErrCommentaryPending
	}

	r := s.round
	res := Evaluate(r.Secret, guess)
	rec := GuessRecord{
		Turn:        len(r.History) + 1,
		Guess:       guess,
		Strikes:     res.Strikes,
		Balls:       res.Balls,
		SubmittedAt: s.now(),
	}
	req := CommentaryRequest{
		Secret:  r.Secret,
		History: append([]GuessRecord(nil), r.History...),
		Latest:  guess,
		Strikes: res.Strikes,
		Balls:   res.Balls,
	}
	r.History = append(r.History, rec)

	ended := true
	switch {
	case res.Solved():
		r.Status = StatusWon
		s.wins++
		if s.best == 0 || len(r.History) < s.best {
			s.best = len(r.History)
		}
	case len(r.History) >= MaxAttempts:
		r.Status = StatusLost
		s.losses++
	default:
		ended = false
	}
	if ended {
		r.EndedAt = rec.SubmittedAt
	}

	s.pending = true
	s.wg.Add(1)
	roundID := r.ID
	view := s.viewLocked()
	stats := s.statsLocked()
	s.mu.Unlock()

	s.logger.Debug().
		Str("round", roundID).
		Int("turn", rec.Turn).
		Int("strikes", rec.Strikes).
		Int("balls", rec.Balls).
		Msg("guess evaluated")

	s.fireGuess(ctx, roundID, rec)
	if ended {
		s.logger.Info().Str("round", roundID).Str("status", string(view.Status)).Int("guesses", view.Attempts).Msg("round finished")
		s.fireRoundEnd(ctx, view, stats)
	}

	go s.annotate(roundID, rec.Turn, req)
	return rec, nil
}

// annotate resolves commentary for one record and patches it if the record
// still belongs to the current round.
func (s *Session) annotate(roundID string, turn int, req CommentaryRequest) {
	defer s.wg.Done()

	start := time.Now()
	text, outcome, err := s.fetchCommentary(req)
	ev := CommentaryEvent{
		RoundID:  roundID,
		Turn:     turn,
		Text:     text,
		Outcome:  outcome,
		Duration: time.Since(start),
		Err:      err,
	}

	s.mu.Lock()
	if s.round == nil || s.round.ID != roundID || turn > len(s.round.History) {
		s.mu.Unlock()
		ev.Outcome = OutcomeStale
		s.logger.Debug().Str("round", roundID).Int("turn", turn).Msg("discarding stale commentary")
		s.fireCommentary(s.baseCtx, ev)
		return
	}
	s.round.History[turn-1].Commentary = text
	s.pending = false
	s.mu.Unlock()

	s.fireCommentary(s.baseCtx, ev)
}

// fetchCommentary makes exactly one commentator call and maps every failure
// to one of the fixed strings.
func (s *Session) fetchCommentary(req CommentaryRequest) (text string, outcome CommentaryOutcome, err error) {
	if s.commentator == nil {
		return UnavailableCommentary, OutcomeUnavailable, nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("commentator panic: %v", p)
			s.logger.Error().Err(err).Msg("commentary failed")
			text, outcome = FallbackCommentary, OutcomeFailed
		}
	}()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	text, err = s.commentator.Comment(ctx, req)
	switch {
	case errors.Is(err, ErrCommentaryUnavailable):
		return UnavailableCommentary, OutcomeUnavailable, nil
	case errors.Is(err, ErrEmptyCommentary):
		return QuietCommentary, OutcomeEmpty, nil
	case err != nil:
		s.logger.Warn().Err(err).Msg("commentary failed")
		return FallbackCommentary, OutcomeFailed, err
	}
	if text = strings.TrimSpace(text); text == "" {
		return QuietCommentary, OutcomeEmpty, nil
	}
	return text, OutcomeOK, nil
}

// Round returns a snapshot of the current round; false before the first StartRound.
func (s *Session) Round() (RoundView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil {
		return RoundView{}, false
	}
	return s.viewLocked(), true
}

// Stats returns a snapshot of the aggregate outcomes.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

// Wait blocks until every outstanding commentary fetch has resolved.
func (s *Session) Wait() { s.wg.Wait() }

func (s *Session) statsLocked() Stats {
	st := Stats{Wins: s.wins, Losses: s.losses}
	if s.best > 0 {
		best := s.best
		st.BestScore = &best
	}
	return st
}

// viewLocked copies the current round. The secret is only revealed on loss.
func (s *Session) viewLocked() RoundView {
	r := s.round
	v := RoundView{
		ID:                 r.ID,
		Status:             r.Status,
		History:            append([]GuessRecord(nil), r.History...),
		Attempts:           len(r.History),
		MaxAttempts:        MaxAttempts,
		RemainingAttempts:  MaxAttempts - len(r.History),
		AwaitingCommentary: s.pending,
		StartedAt:          r.StartedAt,
	}
	if r.Status == StatusLost {
		v.Secret = r.Secret
	}
	if !r.EndedAt.IsZero() {
		ended := r.EndedAt
		v.EndedAt = &ended
	}
	return v
}
