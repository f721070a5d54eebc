// Package store defines the persistent-store contract the commit engine is
// built against: durable maps of commit-id→commit, branch→head, and
// tag→commit-id, with optimistic concurrency on branch heads.
package store

import (
	"context"

	"github.com/steveyegge/graphengine/internal/graph"
)

// Commit is the durable record of one commit: its summary fields plus the
// full normalized changeset needed to replay it against its first parent.
type Commit struct {
	ID          string
	Branch      string
	Parents     []string
	Author      string
	Time        string
	Message     string
	Tags        []string
	ChangeCount uint64
	Changes     graph.Changeset
}

// CommitWrite bundles everything a single commit operation must make
// durable atomically: the commit itself, its snapshot tag, and the branch
// head advance. See Store.WriteCommit.
type CommitWrite struct {
	Commit       Commit
	Tag          string
	Branch       string
	ExpectedHead *string
}

// Store is the durable persistence contract. Every method may block on I/O.
type Store interface {
	// WriteCommit persists commit, its snapshot tag, and its branch-head CAS
	// in one durable transaction, along with the sibling analytics rows
	// (§4.E) — so the commit, tag, head, and analytics are all visible, or
	// none are. Duplicate commit ids return an error wrapping ErrConflict;
	// a head mismatch returns a *ConflictError wrapping ErrConflict.
	WriteCommit(ctx context.Context, w CommitWrite) error

	// PutCommit inserts an immutable commit by id, with its analytics rows,
	// but without touching any branch head — used when replaying or seeding
	// commits whose head advance is handled separately. Inserting an id that
	// already exists returns an error wrapping ErrConflict.
	PutCommit(ctx context.Context, commit Commit) error

	// GetCommit returns the commit, or nil if id is unknown.
	GetCommit(ctx context.Context, id string) (*Commit, error)

	// EnsureBranch idempotently creates a branch with no head.
	EnsureBranch(ctx context.Context, name string) error

	// CompareAndSwapBranch atomically transitions name's head from expected
	// to next. nil means "no commit" at either position. A mismatch returns
	// a *ConflictError wrapping ErrConflict, carrying the actual head.
	CompareAndSwapBranch(ctx context.Context, name string, expected, next *string) error

	// GetBranchHead returns the branch's head, or an error wrapping
	// ErrNotFound if the branch does not exist.
	GetBranchHead(ctx context.Context, name string) (*string, error)

	// ListBranches returns every branch and its current head.
	ListBranches(ctx context.Context) (map[string]*string, error)

	// PutTag upserts tag to point at commitID, reporting whether a prior
	// binding for tag existed (so a caller can tell a fresh tag from a
	// repoint).
	PutTag(ctx context.Context, tag, commitID string) (bool, error)

	// GetTag returns the commit id a tag points to, or nil if unknown.
	GetTag(ctx context.Context, tag string) (*string, error)

	// ListTags returns every tag and the commit id it points to.
	ListTags(ctx context.Context) (map[string]string, error)

	// Close releases the store's underlying resources.
	Close() error
}
