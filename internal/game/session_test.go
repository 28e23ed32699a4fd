package game

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource replays the pool indices that make Generate return code,
// cycling so every round gets the same secret.
type fixedSource struct {
	idx []int
	pos int
}

func sourceFor(code string) *fixedSource {
	pool := []byte(digitAlphabet)
	src := &fixedSource{}
	for i := 0; i < len(code); i++ {
		j := bytes.IndexByte(pool, code[i])
		src.idx = append(src.idx, j)
		pool = append(pool[:j], pool[j+1:]...)
	}
	return src
}

func (f *fixedSource) IntN(n int) int {
	v := f.idx[f.pos%len(f.idx)]
	f.pos++
	return v
}

func echoCommentator(text string) Commentator {
	return CommentatorFunc(func(ctx context.Context, req CommentaryRequest) (string, error) {
		return text, nil
	})
}

func newTestSession(t *testing.T, secret string, opts ...Option) *Session {
	t.Helper()
	base := []Option{
		WithSource(sourceFor(secret)),
		WithLogger(zerolog.Nop()),
		WithCommentator(echoCommentator("nice")),
	}
	s := NewSession(append(base, opts...)...)
	s.StartRound(context.Background())
	return s
}

// submit submits and waits for the commentary to settle.
func submit(t *testing.T, s *Session, guess string) GuessRecord {
	t.Helper()
	rec, err := s.SubmitGuess(context.Background(), guess)
	require.NoError(t, err)
	s.Wait()
	return rec
}

var losingGuesses = []string{
	"1243", "1324", "1342", "1423", "1432",
	"2134", "2143", "2314", "2341", "2413",
}

func TestSessionWinOnFirstGuess(t *testing.T) {
	s := newTestSession(t, "1234")

	rec := submit(t, s, "1234")
	assert.Equal(t, 4, rec.Strikes)
	assert.Equal(t, 0, rec.Balls)
	assert.Equal(t, 1, rec.Turn)

	view, ok := s.Round()
	require.True(t, ok)
	assert.Equal(t, StatusWon, view.Status)
	assert.Empty(t, view.Secret, "secret is only revealed on loss")
	require.NotNil(t, view.EndedAt)

	st := s.Stats()
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 0, st.Losses)
	require.NotNil(t, st.BestScore)
	assert.Equal(t, 1, *st.BestScore)
}

func TestSessionLosesAfterMaxAttempts(t *testing.T) {
	s := newTestSession(t, "1234")

	for i, g := range losingGuesses {
		submit(t, s, g)
		view, _ := s.Round()
		if i < MaxAttempts-1 {
			require.Equal(t, StatusInProgress, view.Status, "after guess %d", i+1)
			require.Empty(t, view.Secret)
		}
	}

	view, _ := s.Round()
	assert.Equal(t, StatusLost, view.Status)
	assert.Equal(t, MaxAttempts, view.Attempts)
	assert.Equal(t, 0, view.RemainingAttempts)
	assert.Equal(t, Secret("1234"), view.Secret)

	st := s.Stats()
	assert.Equal(t, 1, st.Losses)
	assert.Equal(t, 0, st.Wins)
	assert.Nil(t, st.BestScore)

	_, err := s.SubmitGuess(context.Background(), "5678")
	assert.ErrorIs(t, err, ErrRoundOver)
	view, _ = s.Round()
	assert.Len(t, view.History, MaxAttempts)
}

func TestSessionWinOnLastAttemptBeatsLoss(t *testing.T) {
	s := newTestSession(t, "1234")
	for _, g := range losingGuesses[:MaxAttempts-1] {
		submit(t, s, g)
	}
	submit(t, s, "1234")

	view, _ := s.Round()
	assert.Equal(t, StatusWon, view.Status)
	assert.Equal(t, MaxAttempts, view.Attempts)
	st := s.Stats()
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 0, st.Losses)
	assert.Equal(t, MaxAttempts, *st.BestScore)
}

func TestSessionBestScoreKeepsMinimum(t *testing.T) {
	s := newTestSession(t, "1234")

	for _, g := range losingGuesses[:4] {
		submit(t, s, g)
	}
	submit(t, s, "1234")
	require.Equal(t, 5, *s.Stats().BestScore)

	s.StartRound(context.Background())
	for _, g := range losingGuesses[:2] {
		submit(t, s, g)
	}
	submit(t, s, "1234")
	assert.Equal(t, 3, *s.Stats().BestScore)

	s.StartRound(context.Background())
	for _, g := range losingGuesses[:6] {
		submit(t, s, g)
	}
	submit(t, s, "1234")
	st := s.Stats()
	assert.Equal(t, 3, *st.BestScore)
	assert.Equal(t, 3, st.Wins)
}

func TestSessionStartRoundResetsRoundKeepsStats(t *testing.T) {
	s := newTestSession(t, "1234")
	first, _ := s.Round()
	submit(t, s, "1234")

	next := s.StartRound(context.Background())
	assert.NotEqual(t, first.ID, next.ID)
	assert.Equal(t, StatusInProgress, next.Status)
	assert.Empty(t, next.History)
	assert.Equal(t, 1, s.Stats().Wins)
}

func TestSessionRejectsInvalidInputWithoutStateChange(t *testing.T) {
	s := newTestSession(t, "1234")
	for _, bad := range []string{"123", "1123", "12a4", "12345"} {
		_, err := s.SubmitGuess(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalidGuess, bad)
	}
	view, _ := s.Round()
	assert.Empty(t, view.History)
	assert.False(t, view.AwaitingCommentary)
}

func TestSessionRejectsBeforeFirstRound(t *testing.T) {
	s := NewSession(WithLogger(zerolog.Nop()))
	_, err := s.SubmitGuess(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrNoRound)
	_, ok := s.Round()
	assert.False(t, ok)
}

// gatedCommentator blocks each call until release is closed.
type gatedCommentator struct {
	release chan struct{}
	calls   chan CommentaryRequest
}

func newGated() *gatedCommentator {
	return &gatedCommentator{release: make(chan struct{}), calls: make(chan CommentaryRequest, 16)}
}

func (g *gatedCommentator) Comment(ctx context.Context, req CommentaryRequest) (string, error) {
	g.calls <- req
	<-g.release
	return "late remark", nil
}

func TestSessionRejectsWhileCommentaryPending(t *testing.T) {
	g := newGated()
	s := newTestSession(t, "1234", WithCommentator(g))

	rec, err := s.SubmitGuess(context.Background(), "5678")
	require.NoError(t, err)
	assert.Empty(t, rec.Commentary)
	<-g.calls

	_, err = s.SubmitGuess(context.Background(), "1243")
	assert.ErrorIs(t, err, ErrCommentaryPending)

	view, _ := s.Round()
	assert.True(t, view.AwaitingCommentary)
	assert.Len(t, view.History, 1)

	close(g.release)
	s.Wait()

	view, _ = s.Round()
	assert.False(t, view.AwaitingCommentary)
	assert.Equal(t, "late remark", view.History[0].Commentary)

	_, err = s.SubmitGuess(context.Background(), "1243")
	assert.NoError(t, err)
	s.Wait()
}

func TestSessionDiscardsStaleCommentary(t *testing.T) {
	g := newGated()
	var mu sync.Mutex
	var events []CommentaryEvent
	hooks := Hooks{OnCommentary: func(ctx context.Context, ev CommentaryEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}}
	s := newTestSession(t, "1234", WithCommentator(g), WithHooks(hooks))
	old, _ := s.Round()

	_, err := s.SubmitGuess(context.Background(), "5678")
	require.NoError(t, err)
	<-g.calls

	fresh := s.StartRound(context.Background())
	assert.False(t, fresh.AwaitingCommentary, "a new round is never blocked by the old fetch")

	close(g.release)
	s.Wait()

	view, _ := s.Round()
	assert.Equal(t, fresh.ID, view.ID)
	assert.Empty(t, view.History)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, old.ID, events[0].RoundID)
	assert.Equal(t, OutcomeStale, events[0].Outcome)
}

func TestSessionCommentaryFailureUsesFallback(t *testing.T) {
	failing := CommentatorFunc(func(ctx context.Context, req CommentaryRequest) (string, error) {
		return "", errors.New("boom")
	})
	s := newTestSession(t, "1234", WithCommentator(failing))

	rec := submit(t, s, "1243")
	view, _ := s.Round()
	assert.Equal(t, FallbackCommentary, view.History[0].Commentary)
	assert.Equal(t, 2, rec.Strikes)
	assert.Equal(t, 2, rec.Balls)
	assert.Equal(t, StatusInProgress, view.Status)
	assert.False(t, view.AwaitingCommentary)
}

func TestSessionCommentaryOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		c       Commentator
		opts    []Option
		want    string
		outcome CommentaryOutcome
	}{
		{"ok trims", echoCommentator("  Bold move.  "), nil, "Bold move.", OutcomeOK},
		{"blank text", echoCommentator("   "), nil, QuietCommentary, OutcomeEmpty},
		{"empty sentinel", CommentatorFunc(func(context.Context, CommentaryRequest) (string, error) {
			return "", ErrEmptyCommentary
		}), nil, QuietCommentary, OutcomeEmpty},
		{"unavailable", CommentatorFunc(func(context.Context, CommentaryRequest) (string, error) {
			return "", ErrCommentaryUnavailable
		}), nil, UnavailableCommentary, OutcomeUnavailable},
		{"nil commentator", nil, nil, UnavailableCommentary, OutcomeUnavailable},
		{"panic", CommentatorFunc(func(context.Context, CommentaryRequest) (string, error) {
			panic("kaboom")
		}), nil, FallbackCommentary, OutcomeFailed},
		{"timeout", CommentatorFunc(func(ctx context.Context, _ CommentaryRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), []Option{WithCommentaryTimeout(10 * time.Millisecond)}, FallbackCommentary, OutcomeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got CommentaryEvent
			opts := append([]Option{
				WithCommentator(tc.c),
				WithHooks(Hooks{OnCommentary: func(_ context.Context, ev CommentaryEvent) { got = ev }}),
			}, tc.opts...)
			s := newTestSession(t, "1234", opts...)

			submit(t, s, "5678")
			view, _ := s.Round()
			assert.Equal(t, tc.want, view.History[0].Commentary)
			assert.Equal(t, tc.outcome, got.Outcome)
			assert.Equal(t, 1, got.Turn)
		})
	}
}

func TestSessionCommentaryRequestCarriesPriorHistory(t *testing.T) {
	var reqs []CommentaryRequest
	c := CommentatorFunc(func(_ context.Context, req CommentaryRequest) (string, error) {
		reqs = append(reqs, req)
		return "ok", nil
	})
	s := newTestSession(t, "1234", WithCommentator(c))

	submit(t, s, "5678")
	submit(t, s, "4321")

	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].History)
	assert.Equal(t, Secret("1234"), reqs[1].Secret)
	assert.Equal(t, Guess("4321"), reqs[1].Latest)
	assert.Equal(t, 0, reqs[1].Strikes)
	assert.Equal(t, 4, reqs[1].Balls)
	require.Len(t, reqs[1].History, 1)
	assert.Equal(t, Guess("5678"), reqs[1].History[0].Guess)
	assert.Equal(t, "ok", reqs[1].History[0].Commentary)
}

func TestSessionHooksFireInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	record := func(name string) {
		mu.Lock()
		seen = append(seen, name)
		mu.Unlock()
	}
	hooks := Hooks{
		OnRoundStart: func(context.Context, RoundView) { record("start") },
		OnGuess:      func(context.Context, string, GuessRecord) { record("guess") },
		OnRoundEnd: func(_ context.Context, r RoundView, st Stats) {
			record("end:" + string(r.Status))
		},
		OnCommentary: func(context.Context, CommentaryEvent) { record("commentary") },
	}
	s := newTestSession(t, "1234", WithHooks(hooks))
	submit(t, s, "1234")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"start", "guess", "end:won", "commentary"}, seen)
}

func TestSessionStatsSnapshotIsIndependent(t *testing.T) {
	s := newTestSession(t, "1234")
	submit(t, s, "1234")

	st := s.Stats()
	*st.BestScore = 99
	assert.Equal(t, 1, *s.Stats().BestScore)

	view, _ := s.Round()
	view.History[0].Guess = "0000"
	again, _ := s.Round()
	assert.Equal(t, Guess("1234"), again.History[0].Guess)
}

func TestSessionFromSourceOverridesSecret(t *testing.T) {
	s := newTestSession(t, "1234")
	s.StartRound(context.Background(), FromSource(sourceFor("9876")))

	rec := submit(t, s, "9876")
	assert.Equal(t, 4, rec.Strikes)
}

func TestSessionClockStampsRecords(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := newTestSession(t, "1234", WithClock(func() time.Time { return at }))
	s.StartRound(context.Background())

	rec := submit(t, s, "5678")
	assert.Equal(t, at, rec.SubmittedAt)
}

func TestSessionStaleResultKeepsNewRoundPending(t *testing.T) {
	gates := map[Guess]chan struct{}{
		"5678": make(chan struct{}),
		"9012": make(chan struct{}),
	}
	calls := make(chan Guess, 4)
	c := CommentatorFunc(func(ctx context.Context, req CommentaryRequest) (string, error) {
		calls <- req.Latest
		<-gates[req.Latest]
		return "remark on " + string(req.Latest), nil
	})
	stale := make(chan CommentaryEvent, 4)
	hooks := Hooks{OnCommentary: func(ctx context.Context, ev CommentaryEvent) {
		if ev.Outcome == OutcomeStale {
			stale <- ev
		}
	}}
	s := newTestSession(t, "1234", WithCommentator(c), WithHooks(hooks))
	ctx := context.Background()

	_, err := s.SubmitGuess(ctx, "5678")
	require.NoError(t, err)
	require.Equal(t, Guess("5678"), <-calls)

	s.StartRound(ctx)
	_, err = s.SubmitGuess(ctx, "9012")
	require.NoError(t, err)
	require.Equal(t, Guess("9012"), <-calls)

	close(gates["5678"])
	select {
	case <-stale:
	case <-time.After(2 * time.Second):
		t.Fatal("old round's commentary never resolved")
	}

	view, _ := s.Round()
	assert.True(t, view.AwaitingCommentary)
	assert.Empty(t, view.History[0].Commentary)
	_, err = s.SubmitGuess(ctx, "1243")
	assert.ErrorIs(t, err, ErrCommentaryPending)

	close(gates["9012"])
	s.Wait()

	view, _ = s.Round()
	assert.False(t, view.AwaitingCommentary)
	assert.Equal(t, "remark on 9012", view.History[0].Commentary)
}

func TestSessionSurvivesPanickingHook(t *testing.T) {
	boom := Hooks{
		OnGuess:      func(context.Context, string, GuessRecord) { panic("guess hook") },
		OnCommentary: func(context.Context, CommentaryEvent) { panic("commentary hook") },
	}
	s := newTestSession(t, "1234", WithHooks(boom))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		_, err := s.SubmitGuess(ctx, "5678")
		require.NoError(t, err)
	})

	done := make(chan struct{})
	go func() { s.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked after a hook panicked")
	}

	view, _ := s.Round()
	assert.False(t, view.AwaitingCommentary)
	assert.Equal(t, "nice", view.History[0].Commentary)

	rec := submit(t, s, "1243")
	assert.Equal(t, 2, rec.Turn)
}
