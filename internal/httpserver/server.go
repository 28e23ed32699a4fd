// internal/httpserver/server.go
//
// HTTP presentation layer for the number-baseball game.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", optional "/metrics".
//   - Round endpoints: mounted by routes_round.go.
//
// Notes:
//   - The server drives a single game.Session; it never touches round state
//     directly, only through Session operations and snapshots.
//   - CORS is origin-aware so a browser keypad UI can call it.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/store"
)

// Server bundles router, game session, and round archive.
type Server struct {
	r         *chi.Mux
	session   *game.Session
	archive   store.Archive
	origin    string
	dailySalt string
	metrics   http.Handler
	extra     []func(http.Handler) http.Handler
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithClientOrigin sets the single CORS origin allowed to call the API.
func WithClientOrigin(origin string) Option {
	return func(s *Server) { s.origin = origin }
}

// WithDailySalt sets the HMAC salt for daily rounds.
func WithDailySalt(salt string) Option {
	return func(s *Server) { s.dailySalt = salt }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMiddleware appends router middleware (e.g. access logging).
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.extra = append(s.extra, mw...) }
}

// WithClock overrides time.Now (daily date selection).
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New constructs a Server, installs middleware, and registers routes.
func New(sess *game.Session, archive store.Archive, opts ...Option) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		session:   sess,
		archive:   archive,
		origin:    "http://localhost:5173",
		dailySalt: "local_dev_salt",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(s.extra...)                      // caller supplied (access log)
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // single-origin CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "numerus",
			"endpoints": []string{"/health", "POST /round/new", "POST /round/guess", "/round", "/stats", "/rounds", "/rounds/{id}"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	if s.metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.mountRounds(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]string{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}
