// internal/store/memory.go
//
// Round archive: a log of finished rounds for the running process.
// The archive only feeds listings (GET /rounds); session stats are owned by
// game.Session and never rebuilt from here.
//
// Characteristics of the in-memory backend:
//   - Stores summaries keyed by round ID (re-saving a round overwrites it).
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

// ErrNotFound is returned by Get for unknown round IDs.
var ErrNotFound = errors.New("not found")

// RoundSummary is the archived shape of a finished round.
type RoundSummary struct {
	ID         string      `json:"id"`
	Status     game.Status `json:"status"`
	Secret     game.Secret `json:"secret"`
	Guesses    int         `json:"guesses"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
}

// Archive defines the persistence interface for finished rounds.
// Implementations may be backed by memory (this file) or SQLite.
type Archive interface {
	// Save records or replaces a finished round.
	Save(ctx context.Context, r RoundSummary) error

	// Get retrieves a round by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (RoundSummary, error)

	// Recent lists up to limit rounds, most recently finished first.
	Recent(ctx context.Context, limit int) ([]RoundSummary, error)
}

const defaultRecentLimit = 20

// memory is an in-memory map-based Archive implementation.
type memory struct {
	mu     sync.RWMutex            // guards rounds
	rounds map[string]RoundSummary // keyed by round ID
}

// NewMemoryArchive constructs a new in-memory Archive.
func NewMemoryArchive() Archive {
	return &memory{rounds: make(map[string]RoundSummary)}
}

// Save adds or updates the round in the map.
func (m *memory) Save(ctx context.Context, r RoundSummary) error {
	if r.ID == "" {
		return errors.New("store: round id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.ID] = r
	return nil
}

// Get looks up a round by ID.
func (m *memory) Get(ctx context.Context, id string) (RoundSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rounds[id]; ok {
		return r, nil
	}
	return RoundSummary{}, ErrNotFound
}

// Recent returns rounds ordered by FinishedAt descending, then ID descending.
func (m *memory) Recent(ctx context.Context, limit int) ([]RoundSummary, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	m.mu.RLock()
	out := make([]RoundSummary, 0, len(m.rounds))
	for _, r := range m.rounds {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinishedAt.Equal(out[j].FinishedAt) {
			return out[i].FinishedAt.After(out[j].FinishedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
