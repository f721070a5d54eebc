package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/steveyegge/graphengine/internal/store"
)

// EnsureBranch idempotently creates a branch with no head.
func (s *Store) EnsureBranch(ctx context.Context, name string) error {
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO refs (name, head, created_at_ms, updated_at_ms) VALUES (?, NULL, ?, ?)`,
		name, now, now,
	)
	if err != nil {
		return fmt.Errorf("ensure branch %q: %w", name, err)
	}
	return nil
}

// CompareAndSwapBranch atomically transitions name's head from expected to
// next, returning a *store.ConflictError if the actual head differs.
func (s *Store) CompareAndSwapBranch(ctx context.Context, name string, expected, next *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin CAS transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := casBranchTx(ctx, tx, name, expected, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit CAS transaction: %w", err)
	}
	return nil
}

func casBranchTx(ctx context.Context, tx *sql.Tx, name string, expected, next *string) error {
	var actual sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT head FROM refs WHERE name = ?`, name).Scan(&actual)
	if err == sql.ErrNoRows {
		return fmt.Errorf("branch %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read branch %q head: %w", name, err)
	}

	actualPtr := nullStringToPtr(actual)
	if !refsEqual(actualPtr, expected) {
		return &store.ConflictError{Branch: name, Expected: expected, Actual: actualPtr}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE refs SET head = ?, updated_at_ms = ? WHERE name = ?`,
		ptrToNullString(next), time.Now().UnixMilli(), name,
	); err != nil {
		return fmt.Errorf("update branch %q head: %w", name, err)
	}
	return nil
}

// GetBranchHead returns the branch's head, or an error wrapping
// store.ErrNotFound if the branch does not exist.
func (s *Store) GetBranchHead(ctx context.Context, name string) (*string, error) {
	var head sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT head FROM refs WHERE name = ?`, name).Scan(&head)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("branch %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read branch %q head: %w", name, err)
	}
	return nullStringToPtr(head), nil
}

// ListBranches returns every branch and its current head.
func (s *Store) ListBranches(ctx context.Context) (map[string]*string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, head FROM refs`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*string)
	for rows.Next() {
		var name string
		var head sql.NullString
		if err := rows.Scan(&name, &head); err != nil {
			return nil, fmt.Errorf("scan branch row: %w", err)
		}
		out[name] = nullStringToPtr(head)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read branch rows: %w", err)
	}
	return out, nil
}

func nullStringToPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func ptrToNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func refsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
