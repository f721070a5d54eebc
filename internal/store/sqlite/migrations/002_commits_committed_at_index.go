package migrations

import (
	"database/sql"
	"errors"
	"fmt"
)

// MigrateCommitsCommittedAtIndex adds an index on commits(committed_at),
// speeding up history listing and time-ordered scans. The column itself
// already exists from 001_init; this only adds the index, probing
// pragma_index_list first so re-running it is a no-op.
func MigrateCommitsCommittedAtIndex(tx *sql.Tx) (retErr error) {
	var indexExists bool
	rows, err := tx.Query(`PRAGMA index_list(commits)`)
	if err != nil {
		return fmt.Errorf("check commits indexes: %w", err)
	}
	defer func() {
		if rows != nil {
			if closeErr := rows.Close(); closeErr != nil {
				retErr = errors.Join(retErr, fmt.Errorf("close index_list rows: %w", closeErr))
			}
		}
	}()

	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("scan index info: %w", err)
		}
		if name == "idx_commits_committed_at" {
			indexExists = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read index info: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close index_list rows: %w", err)
	}
	rows = nil

	if indexExists {
		return nil
	}
	if _, err := tx.Exec(`CREATE INDEX idx_commits_committed_at ON commits(committed_at)`); err != nil {
		return fmt.Errorf("create committed_at index: %w", err)
	}
	return nil
}
