package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/steveyegge/graphengine/internal/store"
)

// insertAnalytics writes the per-commit summary row and one row per change
// in the commit's normalized changeset, in the same transaction as the
// commit row itself, so a commit is never visible without its projection.
func insertAnalytics(ctx context.Context, tx *sql.Tx, c store.Commit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO commit_summaries
			(commit_id, node_creates, node_updates, node_deletes, edge_creates, edge_updates, edge_deletes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		len(c.Changes.NodeCreates), len(c.Changes.NodeUpdates), len(c.Changes.NodeDeletes),
		len(c.Changes.EdgeCreates), len(c.Changes.EdgeUpdates), len(c.Changes.EdgeDeletes),
	)
	if err != nil {
		return fmt.Errorf("insert commit summary for %q: %w", c.ID, err)
	}

	recordedAtMs := time.Now().UnixMilli()
	seq := 0
	insert := func(kind, subjectKind, subjectID, subjectType string) error {
		var typeArg any
		if subjectType != "" {
			typeArg = subjectType
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO commit_changes (commit_id, seq, kind, subject_kind, subject_id, subject_type, recorded_at_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, seq, kind, subjectKind, subjectID, typeArg, recordedAtMs,
		)
		seq++
		if err != nil {
			return fmt.Errorf("insert change row %d for commit %q: %w", seq, c.ID, err)
		}
		return nil
	}

	for _, n := range c.Changes.NodeCreates {
		if err := insert("create", "node", n.ID, n.Type); err != nil {
			return err
		}
	}
	for _, n := range c.Changes.NodeUpdates {
		if err := insert("update", "node", n.ID, n.Type); err != nil {
			return err
		}
	}
	for _, n := range c.Changes.NodeDeletes {
		if err := insert("delete", "node", n.ID, ""); err != nil {
			return err
		}
	}
	for _, e := range c.Changes.EdgeCreates {
		if err := insert("create", "edge", e.From+"->"+e.To, e.Type); err != nil {
			return err
		}
	}
	for _, e := range c.Changes.EdgeUpdates {
		if err := insert("update", "edge", e.From+"->"+e.To, e.Type); err != nil {
			return err
		}
	}
	for _, e := range c.Changes.EdgeDeletes {
		if err := insert("delete", "edge", e.From+"->"+e.To, ""); err != nil {
			return err
		}
	}
	return nil
}

// CommitAnalytics is the decoded form of a commit's summary + change rows,
// returned by GetAnalytics.
type CommitAnalytics struct {
	CommitID    string
	NodeCreates int
	NodeUpdates int
	NodeDeletes int
	EdgeCreates int
	EdgeUpdates int
	EdgeDeletes int
	Changes     []ChangeRow
}

// ChangeRow is one row of the commit_changes projection: operation ∈
// {create,update,delete}, the kind/id of the node or edge it touched, its
// domain type where the operation carries one (empty for deletes), and the
// millisecond timestamp the row was recorded at.
type ChangeRow struct {
	Seq          int
	Kind         string
	SubjectKind  string
	SubjectID    string
	SubjectType  string
	RecordedAtMs int64
}

// GetAnalytics returns the summary and change rows for a commit, or nil if
// the commit is unknown or analytics were disabled when it was written.
func (s *Store) GetAnalytics(ctx context.Context, commitID string) (*CommitAnalytics, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT node_creates, node_updates, node_deletes, edge_creates, edge_updates, edge_deletes
		FROM commit_summaries WHERE commit_id = ?`, commitID)

	var a CommitAnalytics
	a.CommitID = commitID
	err := row.Scan(&a.NodeCreates, &a.NodeUpdates, &a.NodeDeletes, &a.EdgeCreates, &a.EdgeUpdates, &a.EdgeDeletes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read commit summary for %q: %w", commitID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, subject_kind, subject_id, subject_type, recorded_at_ms FROM commit_changes
		WHERE commit_id = ? ORDER BY seq`, commitID)
	if err != nil {
		return nil, fmt.Errorf("read commit changes for %q: %w", commitID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cr ChangeRow
		var subjectType sql.NullString
		if err := rows.Scan(&cr.Seq, &cr.Kind, &cr.SubjectKind, &cr.SubjectID, &subjectType, &cr.RecordedAtMs); err != nil {
			return nil, fmt.Errorf("scan change row for %q: %w", commitID, err)
		}
		cr.SubjectType = subjectType.String
		a.Changes = append(a.Changes, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read commit change rows for %q: %w", commitID, err)
	}
	return &a, nil
}
