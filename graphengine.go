// Package graphengine provides a minimal public API for embedding the temporal
// graph engine into host applications.
//
// Most callers should construct an engine against a SQLite-backed store and
// drive it through the operations re-exported here; the internal packages
// (metamodel, graph, store, engine) are implementation detail.
package graphengine

import (
	"github.com/steveyegge/graphengine/internal/engine"
	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/metamodel"
	"github.com/steveyegge/graphengine/internal/store"
	"github.com/steveyegge/graphengine/internal/store/sqlite"
)

// Core types for working with the commit engine.
type (
	Engine    = engine.Engine
	Config    = engine.Config
	ErrKind   = engine.ErrKind
	Error     = engine.Error
	Node      = graph.Node
	Edge      = graph.Edge
	Snapshot  = graph.Snapshot
	Changeset = graph.Changeset

	CommitRequest = engine.CommitRequest
	CommitRef     = engine.CommitRef
	BranchInfo    = engine.BranchInfo
	StateAtArgs   = engine.StateAtArgs
	StateAtResult = engine.StateAtResult
	DiffArgs      = engine.DiffArgs
	DiffSummary   = engine.DiffSummary
	MergeRequest  = engine.MergeRequest
	MergeResponse = engine.MergeResponse
	CommitSummary = engine.CommitSummary

	TopologyDeltaResult = engine.TopologyDeltaResult
	MergeConflict       = engine.MergeConflict
	Document            = metamodel.Document
)

// Error kind constants identifying why an operation failed.
const (
	ErrUnknownBranch      = engine.ErrUnknownBranch
	ErrUnknownCommit      = engine.ErrUnknownCommit
	ErrConcurrencyConflict = engine.ErrConcurrencyConflict
	ErrValidationFailed   = engine.ErrValidationFailed
	ErrIntegrityViolation = engine.ErrIntegrityViolation
	ErrMergeConflict      = engine.ErrMergeConflict
)

// RefID builds a CommitRef that resolves v as a commit id, or (if unknown)
// as a branch name at its current head.
func RefID(v string) CommitRef { return engine.RefID(v) }

// RefBranch builds a CommitRef pinned to branch, optionally at an explicit
// commit id (empty means "branch head").
func RefBranch(branch, at string) CommitRef { return engine.RefBranch(branch, at) }

// Store is the durable persistence contract the engine is built against.
type Store = store.Store

// StoreOption configures optional behavior on NewSQLiteStore.
type StoreOption = sqlite.Option

// WithAnalytics toggles whether commits populate the analytics projection
// (commit_summaries/commit_changes). Enabled by default.
func WithAnalytics(enabled bool) StoreOption { return sqlite.WithAnalytics(enabled) }

// NewSQLiteStore opens a graph-engine datastore directory for programmatic access,
// provisioning it on first use.
func NewSQLiteStore(dir string, opts ...StoreOption) (Store, error) {
	return sqlite.OpenOrCreate(dir, opts...)
}

// New constructs an engine over an already-open store, loading the meta-model
// document at cfg.MetaModelPath (or the embedded default when empty).
func New(cfg Config, st Store) (*Engine, error) {
	registry, err := metamodel.Load(cfg.MetaModelPath)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, st, registry)
}
