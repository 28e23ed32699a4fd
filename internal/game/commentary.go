package game

import "context"

// Fixed commentary strings used whenever the commentator cannot supply text.
const (
	FallbackCommentary    = "The numbers don't lie, but I'm speechless right now."
	QuietCommentary       = "Interesting choice. Let's see where this goes."
	UnavailableCommentary = "Commentary is unavailable: no API key configured."
)

// CommentaryRequest is everything a commentator may use to react to a guess.
type CommentaryRequest struct {
	Secret  Secret
	History []GuessRecord // records before Latest, in order
	Latest  Guess
	Strikes int
	Balls   int
}

// Commentator turns a scored guess into a short remark.
// Implementations may block on the network; the Session calls them off the
// game's critical path with a deadline.
type Commentator interface {
	Comment(ctx context.Context, req CommentaryRequest) (string, error)
}

// CommentatorFunc adapts a function to Commentator.
type CommentatorFunc func(ctx context.Context, req CommentaryRequest) (string, error)

// Comment calls f.
func (f CommentatorFunc) Comment(ctx context.Context, req CommentaryRequest) (string, error) {
	return f(ctx, req)
}

// CommentaryOutcome classifies how a record's commentary was resolved.
type CommentaryOutcome string

const (
	OutcomeOK          CommentaryOutcome = "ok"
	OutcomeEmpty       CommentaryOutcome = "empty"
	OutcomeFailed      CommentaryOutcome = "failed"
	OutcomeUnavailable CommentaryOutcome = "unavailable"
	OutcomeStale       CommentaryOutcome = "stale"
)
