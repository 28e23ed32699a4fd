// db.go
//
// Round archive wiring.
// Responsibilities:
//   - Choosing the archive backend from ARCHIVE_DRIVER (memory | sqlite).
//   - Returning a closer the caller runs on shutdown.
//
// The sqlite default DSN is in-memory too; point ARCHIVE_DSN at a file
// (e.g. ./data/numerus.db) to keep history across restarts.

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/everyoung1209/mbc-ai-baseballgame/internal/config"
	"github.com/everyoung1209/mbc-ai-baseballgame/internal/store"
)

func openArchive(cfg config.Config) (store.Archive, func() error, error) {
	switch cfg.ArchiveDriver {
	case "memory":
		return store.NewMemoryArchive(), func() error { return nil }, nil
	case "sqlite":
		dsn := cfg.ArchiveDSN
		if dsn == "" {
			dsn = store.DefaultSQLiteDSN
		}
		db, err := store.OpenSQLite(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive: %w", err)
		}
		log.Info().Str("dsn", dsn).Msg("sqlite archive ready")
		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive driver %q", cfg.ArchiveDriver)
	}
}
