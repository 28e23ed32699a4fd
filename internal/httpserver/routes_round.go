// internal/httpserver/routes_round.go
//
// HTTP routes for playing rounds:
//   - POST /round/new   → start a round ("random" or "daily" secret)
//   - GET  /round       → current round snapshot
//   - POST /round/guess → submit a guess
//   - GET  /stats       → wins / losses / best score
//   - GET  /rounds      → recently finished rounds from the archive
//   - GET  /rounds/{id} → one archived round
//
// The secret is only part of a response once the round is lost.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/daily"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/store"
)

const maxRecentRounds = 100

// mountRounds registers the round routes.
func (s *Server) mountRounds(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Get("/", s.handleRound)
		r.Post("/new", s.handleNewRound)
		r.Post("/guess", s.handleGuess)
	})
	r.Get("/stats", s.handleStats)
	r.Get("/rounds", s.handleRecent)
	r.Get("/rounds/{id}", s.handleArchived)
}

// newRoundReq is the optional body of POST /round/new.
type newRoundReq struct {
	Mode string `json:"mode"` // "random" (default) | "daily"
}

type newRoundRes struct {
	Round game.RoundView `json:"round"`
	Date  string         `json:"date,omitempty"` // set for daily rounds
}

// handleNewRound discards the current round and starts another.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}

	var res newRoundRes
	switch req.Mode {
	case "", "random":
		res.Round = s.session.StartRound(r.Context())
	case "daily":
		now := s.now()
		res.Round = s.session.StartRound(r.Context(), game.FromSource(daily.Source(now, s.dailySalt)))
		res.Date = daily.DateKey(now)
	default:
		writeError(w, http.StatusBadRequest, "bad_mode", "mode must be random or daily")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRound returns the current round snapshot.
func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	view, ok := s.session.Round()
	if !ok {
		writeError(w, http.StatusNotFound, "no_round", "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// guessReq/Res payloads for POST /round/guess.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Record game.GuessRecord `json:"record"`
	Round  game.RoundView   `json:"round"`
	Stats  game.Stats       `json:"stats"`
}

// handleGuess submits a guess. Commentary arrives later; clients poll
// GET /round until awaitingCommentary is false.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}

	rec, err := s.session.SubmitGuess(r.Context(), req.Guess)
	if err != nil {
		status, code := guessErrorStatus(err)
		log.Debug().Err(err).Str("guess", req.Guess).Msg("guess rejected")
		writeError(w, status, code, err.Error())
		return
	}

	view, _ := s.session.Round()
	writeJSON(w, http.StatusOK, guessRes{Record: rec, Round: view, Stats: s.session.Stats()})
}

// guessErrorStatus maps session rejections to HTTP status and error code.
func guessErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidGuess):
		return http.StatusBadRequest, "invalid_guess"
	case errors.Is(err, game.ErrRoundOver):
		return http.StatusConflict, "round_over"
	case errors.Is(err, game.ErrCommentaryPending):
		return http.StatusConflict, "commentary_pending"
	case errors.Is(err, game.ErrNoRound):
		return http.StatusConflict, "no_round"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// handleStats returns the session stats snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Stats())
}

type recentRes struct {
	Rounds []store.RoundSummary `json:"rounds"`
}

// handleRecent lists finished rounds, newest first.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit", "")
			return
		}
		limit = min(n, maxRecentRounds)
	}
	rows, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list rounds")
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	writeJSON(w, http.StatusOK, recentRes{Rounds: rows})
}

// handleArchived returns one finished round by ID.
func (s *Server) handleArchived(w http.ResponseWriter, r *http.Request) {
	row, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "round_not_found", "")
	case err != nil:
		log.Error().Err(err).Msg("get round")
		writeError(w, http.StatusInternalServerError, "server_error", "")
	default:
		writeJSON(w, http.StatusOK, row)
	}
}
