// play.go
//
// Terminal front end: one line per guess, results printed as "nS nB",
// then the game master's remark once it arrives.
//
// Commands: "new" starts another round, "stats" prints the tally,
// "quit" (or EOF) leaves.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Keep stdout for the game; logs go to stderr in human form.
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		archive, closeArchive, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeArchive() }()

		events := make(chan game.CommentaryEvent, 1)
		sess := newSession(ctx, cfg, commentaryFeed(ctx, events), store.Hooks(archive))
		return play(ctx, sess, events, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}

// commentaryFeed forwards commentary events so the terminal loop can wait
// for the remark on the guess it just printed.
func commentaryFeed(ctx context.Context, out chan<- game.CommentaryEvent) game.Hooks {
	return game.Hooks{
		OnCommentary: func(_ context.Context, ev game.CommentaryEvent) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		},
	}
}

// play runs the read-guess-print loop until quit, EOF, or ctx is done.
func play(ctx context.Context, sess *game.Session, events <-chan game.CommentaryEvent, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	round := sess.StartRound(ctx)
	fmt.Fprintf(out, "New round: guess %d distinct digits, %d tries.\n", game.CodeLength, game.MaxAttempts)

	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "stats":
			printStats(out, sess.Stats())
			continue
		case "new":
			round = sess.StartRound(ctx)
			fmt.Fprintln(out, "New round started.")
			continue
		}

		rec, err := sess.SubmitGuess(ctx, line)
		switch {
		case errors.Is(err, game.ErrInvalidGuess):
			fmt.Fprintf(out, "Enter %d distinct digits (0-9).\n", game.CodeLength)
			continue
		case errors.Is(err, game.ErrRoundOver):
			fmt.Fprintln(out, `Round over. Type "new" to play again.`)
			continue
		case err != nil:
			return err
		}

		fmt.Fprintf(out, "%s  %dS %dB  (%d/%d)\n", rec.Guess, rec.Strikes, rec.Balls, rec.Turn, game.MaxAttempts)
		if err := awaitRemark(ctx, events, round.ID, rec.Turn, out); err != nil {
			return err
		}

		view, _ := sess.Round()
		switch view.Status {
		case game.StatusWon:
			fmt.Fprintf(out, "Solved in %d guesses!\n", view.Attempts)
			printStats(out, sess.Stats())
		case game.StatusLost:
			fmt.Fprintf(out, "Out of guesses. The number was %s.\n", view.Secret)
			printStats(out, sess.Stats())
		}
	}
}

// awaitRemark blocks until the commentary for (roundID, turn) arrives.
func awaitRemark(ctx context.Context, events <-chan game.CommentaryEvent, roundID string, turn int, out io.Writer) error {
	for {
		select {
		case ev := <-events:
			if ev.RoundID != roundID || ev.Turn != turn || ev.Outcome == game.OutcomeStale {
				continue
			}
			fmt.Fprintf(out, "GM: %s\n", ev.Text)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printStats(out io.Writer, st game.Stats) {
	best := "-"
	if st.BestScore != nil {
		best = fmt.Sprint(*st.BestScore)
	}
	fmt.Fprintf(out, "Wins %d  Losses %d  Best %s\n", st.Wins, st.Losses, best)
}
