// Package migrations holds the ordered, idempotent schema migrations for the
// graph-engine SQLite store. Each migration is a func(*sql.Tx) error, probes
// pragma_table_info/pragma_index_list before altering anything, and runs in
// its own transaction; successful application is recorded in the migrations
// table in that same transaction.
package migrations

import (
	"database/sql"
	"fmt"
)

// Migration is one named, idempotent schema step.
type Migration struct {
	ID string
	Up func(tx *sql.Tx) error
}

// All returns every migration in application order.
func All() []Migration {
	return []Migration{
		{ID: "001_init", Up: MigrateInit},
		{ID: "002_commits_committed_at_index", Up: MigrateCommitsCommittedAtIndex},
	}
}

// Run applies every migration in All not already recorded in the
// migrations table, each inside its own transaction.
func Run(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		migration_id TEXT PRIMARY KEY,
		applied_at_ms INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range All() {
		var applied bool
		err := db.QueryRow(`SELECT COUNT(*) > 0 FROM migrations WHERE migration_id = ?`, m.ID).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.ID, err)
		}
		if applied {
			continue
		}
		if err := runOne(db, m); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID, err)
		}
	}
	return nil
}

func runOne(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.Up(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO migrations (migration_id, applied_at_ms) VALUES (?, unixepoch('now') * 1000)`, m.ID); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
