package db

import (
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many ran
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "create kv",
		sql: `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);`,
	},
	{
		name: "kv updated_at",
		sql: `
		ALTER TABLE kv ADD COLUMN updated_at DATETIME;
		UPDATE kv SET updated_at = CURRENT_TIMESTAMP WHERE updated_at IS NULL;`,
	},
}

// migrate brings the schema up to date
func (db *DB) migrate() error {
	var version int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		m := migrations[i]
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %03d (%s): %w", i+1, m.name, err)
		}
		// PRAGMA doesn't accept bound parameters
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bump schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}

// SchemaVersion returns the number of migrations applied
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&version)
	return version, err
}
