package migrations

import "database/sql"

// MigrateInit creates the base schema: commits, branch refs, snapshot tags,
// and the per-commit/per-change analytics tables. Safe to run repeatedly.
func MigrateInit(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS commits (
			id TEXT PRIMARY KEY,
			branch TEXT NOT NULL,
			parents TEXT NOT NULL,
			author TEXT NOT NULL,
			committed_at TEXT NOT NULL,
			message TEXT NOT NULL,
			tags TEXT NOT NULL,
			change_count INTEGER NOT NULL,
			changes_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commits_branch ON commits(branch)`,
		`CREATE TABLE IF NOT EXISTS refs (
			name TEXT PRIMARY KEY,
			head TEXT,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_tags (
			tag TEXT PRIMARY KEY,
			commit_id TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS commit_summaries (
			commit_id TEXT PRIMARY KEY REFERENCES commits(id),
			node_creates INTEGER NOT NULL,
			node_updates INTEGER NOT NULL,
			node_deletes INTEGER NOT NULL,
			edge_creates INTEGER NOT NULL,
			edge_updates INTEGER NOT NULL,
			edge_deletes INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS commit_changes (
			commit_id TEXT NOT NULL REFERENCES commits(id),
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			subject_kind TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			subject_type TEXT,
			recorded_at_ms INTEGER NOT NULL,
			PRIMARY KEY (commit_id, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
