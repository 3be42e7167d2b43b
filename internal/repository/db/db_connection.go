package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaDoorSettings = `
CREATE TABLE IF NOT EXISTS door_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    home_away TEXT NOT NULL,
    alert_open_notify BOOLEAN NOT NULL,
    alert_open_minutes INTEGER NOT NULL,
    alert_open_start INTEGER NOT NULL CHECK (alert_open_start BETWEEN 0 AND 23),
    alert_open_end INTEGER NOT NULL CHECK (alert_open_end BETWEEN 0 AND 23),
    forgot_open_notify BOOLEAN NOT NULL,
    forgot_open_minutes INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaNotifierTarget = `
CREATE TABLE IF NOT EXISTS notifier_target (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    target TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaDoorSettings,
		schemaNotifierTarget,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
