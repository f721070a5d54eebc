package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PutTag upserts tag to point at commitID, matching the original
// datastore's "insert or overwrite, and warn the caller if this rewrites an
// existing tag" semantics: it reports whether a prior binding existed, and
// logs a Warn itself (via slog.Default(), the same fallback
// internal/store/layout.Watch uses) when that prior binding pointed at a
// different commit.
func (s *Store) PutTag(ctx context.Context, tag, commitID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tag transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	replaced, err := putTagTx(ctx, tx, tag, commitID)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tag transaction: %w", err)
	}
	return replaced, nil
}

// putTagTx upserts tag within an already-open transaction, returning
// whether a prior binding existed.
func putTagTx(ctx context.Context, tx *sql.Tx, tag, commitID string) (bool, error) {
	var previous string
	err := tx.QueryRowContext(ctx, `SELECT commit_id FROM snapshot_tags WHERE tag = ?`, tag).Scan(&previous)
	switch {
	case err == sql.ErrNoRows:
		// no prior binding
	case err != nil:
		return false, fmt.Errorf("read tag %q: %w", tag, err)
	}
	replaced := err == nil

	now := time.Now().UnixMilli()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_tags (tag, commit_id, created_at_ms, updated_at_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT(tag) DO UPDATE SET commit_id = excluded.commit_id, updated_at_ms = excluded.updated_at_ms`,
		tag, commitID, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("put tag %q: %w", tag, err)
	}

	if replaced && previous != commitID {
		slog.Default().Warn("tag repointed to a different commit", "tag", tag, "previous_commit", previous, "new_commit", commitID)
	}
	return replaced, nil
}

// GetTag returns the commit id a tag points to, or nil if unknown.
func (s *Store) GetTag(ctx context.Context, tag string) (*string, error) {
	var commitID string
	err := s.db.QueryRowContext(ctx, `SELECT commit_id FROM snapshot_tags WHERE tag = ?`, tag).Scan(&commitID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tag %q: %w", tag, err)
	}
	return &commitID, nil
}

// ListTags returns every tag and the commit id it points to.
func (s *Store) ListTags(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag, commit_id FROM snapshot_tags`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var tag, commitID string
		if err := rows.Scan(&tag, &commitID); err != nil {
			return nil, fmt.Errorf("scan tag row: %w", err)
		}
		out[tag] = commitID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tag rows: %w", err)
	}
	return out, nil
}
