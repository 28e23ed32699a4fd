// internal/store/sqlite.go
//
// SQLite-backed Archive.
// Responsibilities:
//   - Opening SQLite with safe defaults (busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Saving and listing finished rounds.
//
// The default DSN is a shared in-memory database, so nothing outlives the
// process unless an operator points ARCHIVE_DSN at a file.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/everyoung1209/mbc-ai-baseballgame/assets"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/game"
)

// DefaultSQLiteDSN keeps the archive in memory, shared across pool connections.
const DefaultSQLiteDSN = "file:numerus?mode=memory&cache=shared"

// SQLite is an Archive stored in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at dsn and applies
// the embedded migrations.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// openDB opens a SQLite database with a busy timeout and foreign keys on.
// Plain file paths get their parent directory created first.
func openDB(dsn string) (*sql.DB, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// One connection serializes writers and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// migrate applies embedded migrations in lexical order, each inside its own
// transaction, skipping files already recorded in _migrations.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f.Name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f.Name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(f.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f.Name, err)
		}
		log.Info().Str("migration", f.Name).Msg("applied")
	}
	return nil
}

// Save upserts a finished round.
func (s *SQLite) Save(ctx context.Context, r RoundSummary) error {
	if r.ID == "" {
		return errors.New("store: round id required")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO rounds (id, status, secret, guesses, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status=excluded.status,
            secret=excluded.secret,
            guesses=excluded.guesses,
            started_at=excluded.started_at,
            finished_at=excluded.finished_at`,
		r.ID, string(r.Status), string(r.Secret), r.Guesses,
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
	)
	return err
}

// Get fetches one round by ID.
func (s *SQLite) Get(ctx context.Context, id string) (RoundSummary, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, status, secret, guesses, started_at, finished_at
        FROM rounds WHERE id=?`, id)
	r, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RoundSummary{}, ErrNotFound
	}
	return r, err
}

// Recent lists rounds ordered by finish time, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]RoundSummary, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, status, secret, guesses, started_at, finished_at
        FROM rounds
        ORDER BY finished_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RoundSummary, 0, limit)
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(sc scanner) (RoundSummary, error) {
	var (
		r                 RoundSummary
		status, secret    string
		started, finished string
	)
	if err := sc.Scan(&r.ID, &status, &secret, &r.Guesses, &started, &finished); err != nil {
		return RoundSummary{}, err
	}
	r.Status = game.Status(status)
	r.Secret = game.Secret(secret)
	r.StartedAt = mustParse(started)
	r.FinishedAt = mustParse(finished)
	return r, nil
}

// timeLayout is fixed width so ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// mustParse parses stored timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
