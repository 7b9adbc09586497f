package storage

import "database/sql"

// migrateV002 records when an article was last marked read.
func migrateV002(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE articles ADD COLUMN read_at DATETIME`)
	return err
}
