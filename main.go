// main.go
//
// Entry point for numerus, the number-baseball game server.
// Responsibilities:
//   - Cobra root command with "serve" (HTTP API) and "play" (terminal).
//   - Loading config from env / .env and setting the global log level.
//   - Building the game session with commentary, metrics, and archive hooks.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/commentary"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/config"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/httpserver"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/store"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "numerus",
	Short: "Number baseball with a sarcastic AI game master",
	Long: `Guess the 4-digit secret (distinct digits) in 10 tries.
Each guess is scored in strikes and balls and commented on by Gemini.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("numerus exited")
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the log level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	zerolog.SetGlobalLevel(cfg.Level())
	return cfg, nil
}

// newSession builds a session wired to Gemini (or the disabled commentator
// when no key is set) plus any extra hooks.
func newSession(ctx context.Context, cfg config.Config, hooks ...game.Hooks) *game.Session {
	c := commentary.New(commentary.Config{
		APIKey:  cfg.CommentaryKey(),
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	switch c := c.(type) {
	case *commentary.Gemini:
		log.Info().Str("model", c.Model()).Msg("gemini commentary enabled")
	case commentary.Disabled:
		log.Warn().Msg("no GEMINI_API_KEY / API_KEY set, commentary disabled")
	}

	opts := []game.Option{
		game.WithContext(ctx),
		game.WithCommentator(c),
		game.WithCommentaryTimeout(cfg.CommentaryTimeout),
	}
	for _, h := range hooks {
		opts = append(opts, game.WithHooks(h))
	}
	return game.NewSession(opts...)
}

// serve runs the HTTP API until ctx is cancelled, then waits for in-flight
// commentary before returning.
func serve(ctx context.Context, cfg config.Config) error {
	archive, closeArchive, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeArchive(); err != nil {
			log.Warn().Err(err).Msg("close archive")
		}
	}()

	metrics := telemetry.New(prometheus.DefaultRegisterer)
	sess := newSession(ctx, cfg, metrics.Hooks(), store.Hooks(archive))

	srv := httpserver.New(sess, archive,
		httpserver.WithClientOrigin(cfg.ClientOrigin),
		httpserver.WithDailySalt(cfg.DailySalt),
		httpserver.WithMetricsHandler(promhttp.Handler()),
		httpserver.WithMiddleware(accessLog),
	)

	log.Info().Str("port", cfg.Port).Str("archive", cfg.ArchiveDriver).Msg("starting numerus server")
	return runUntilDrained(ctx, func(ctx context.Context) error {
		return srv.Run(ctx, ":"+cfg.Port)
	}, sess)
}

// runUntilDrained runs the server and, once it has returned, waits for the
// session's outstanding commentary. No handler can accept a guess after
// run returns, so Wait never races a new fetch.
func runUntilDrained(ctx context.Context, run func(context.Context) error, sess interface{ Wait() }) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := run(gctx)
		sess.Wait()
		log.Info().Msg("pending commentary drained")
		return err
	})
	return g.Wait()
}
