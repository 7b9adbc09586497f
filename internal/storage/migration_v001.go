package storage

import "database/sql"

// migrateV001 creates the initial library schema. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS articles (
			id           TEXT PRIMARY KEY,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			url          TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			domain       TEXT NOT NULL DEFAULT '',
			is_read      BOOLEAN NOT NULL DEFAULT 0,
			content_hash TEXT,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS content (
			article_id TEXT PRIMARY KEY REFERENCES articles(id) ON DELETE CASCADE,
			format     TEXT NOT NULL DEFAULT 'html',
			body       TEXT NOT NULL,
			byte_size  INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_domain     ON articles(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_is_read    ON articles(is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_hash       ON articles(content_hash)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
