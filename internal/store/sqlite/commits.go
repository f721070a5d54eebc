package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/store"
)

// WriteCommit persists the commit row, its per-change and per-commit
// analytics rows, its snapshot tag, and the branch-head CAS, all inside one
// transaction: readers never observe a commit without its tag, or a tag
// without an advanced head.
func (s *Store) WriteCommit(ctx context.Context, w store.CommitWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertCommit(ctx, tx, w.Commit); err != nil {
		return err
	}
	if s.analyticsEnabled {
		if err := insertAnalytics(ctx, tx, w.Commit); err != nil {
			return err
		}
	}
	if _, err := putTagTx(ctx, tx, w.Tag, w.Commit.ID); err != nil {
		return err
	}
	if err := casBranchTx(ctx, tx, w.Branch, w.ExpectedHead, &w.Commit.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PutCommit inserts commit and its analytics rows without touching any
// branch head, for replay/seeding flows.
func (s *Store) PutCommit(ctx context.Context, commit store.Commit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put-commit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertCommit(ctx, tx, commit); err != nil {
		return err
	}
	if s.analyticsEnabled {
		if err := insertAnalytics(ctx, tx, commit); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put-commit transaction: %w", err)
	}
	return nil
}

func insertCommit(ctx context.Context, tx *sql.Tx, c store.Commit) error {
	parents, err := json.Marshal(c.Parents)
	if err != nil {
		return fmt.Errorf("encode parents: %w", err)
	}
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	changes, err := json.Marshal(c.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commits (id, branch, parents, author, committed_at, message, tags, change_count, changes_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Branch, string(parents), c.Author, c.Time, c.Message, string(tags), c.ChangeCount, string(changes),
	)
	return wrapWriteError(err, "insert commit")
}

// GetCommit returns the commit, or nil if id is unknown.
func (s *Store) GetCommit(ctx context.Context, id string) (*store.Commit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, branch, parents, author, committed_at, message, tags, change_count, changes_json
		FROM commits WHERE id = ?`, id)

	var c store.Commit
	var parents, tags, changes string
	err := row.Scan(&c.ID, &c.Branch, &parents, &c.Author, &c.Time, &c.Message, &tags, &c.ChangeCount, &changes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query commit %q: %w", id, err)
	}

	if err := json.Unmarshal([]byte(parents), &c.Parents); err != nil {
		return nil, fmt.Errorf("decode parents for commit %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for commit %q: %w", id, err)
	}
	var cs graph.Changeset
	if err := json.Unmarshal([]byte(changes), &cs); err != nil {
		return nil, fmt.Errorf("decode changes for commit %q: %w", id, err)
	}
	c.Changes = cs
	return &c, nil
}
