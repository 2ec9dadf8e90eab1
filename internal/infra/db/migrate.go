package db

import "database/sql"

// MigrateUp creates the source catalog schema: a single tracked_sources
// table (component I) recording every feed URL this service knows to
// reconstruct history for. There is no articles/embeddings schema here —
// feedhistd never persists reconstructed history or entry content, only the
// catalog of sources to fetch it from.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS tracked_sources (
    id                 UUID PRIMARY KEY,
    name               TEXT NOT NULL,
    feed_url           TEXT NOT NULL UNIQUE,
    active             BOOLEAN NOT NULL DEFAULT TRUE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_requested_at  TIMESTAMPTZ
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_tracked_sources_active ON tracked_sources(active) WHERE active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_tracked_sources_name_gin ON tracked_sources USING gin(name gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_tracked_sources_feed_url_gin ON tracked_sources USING gin(feed_url gin_trgm_ops)`,
	}

	// pg_trgm powers the catalog's ILIKE keyword search; ignore failure on
	// deployments without superuser rights to create extensions.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the source catalog table. Use with caution: this
// deletes every tracked source.
func MigrateDown(db *sql.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS tracked_sources CASCADE`)
	return err
}
