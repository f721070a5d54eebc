// Package engine implements the commit/snapshot engine: branch-scoped
// commit history over immutable graph snapshots, backed by a store.Store.
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/graphengine/internal/metamodel"
	"github.com/steveyegge/graphengine/internal/store"
)

var tracer = otel.Tracer("github.com/steveyegge/graphengine/internal/engine")

// Engine is the concurrency-safe façade over the engine's in-memory state:
// every public method takes the engine's mutex for its full duration,
// matching the store's own single-connection serialization below it.
type Engine struct {
	mu    sync.Mutex
	inner *inner
}

// New constructs an Engine over an already-open store and resolved schema
// registry.
func New(cfg Config, st store.Store, registry *metamodel.Registry) (*Engine, error) {
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = DefaultConfig().DefaultBranch
	}
	if cfg.CommitIDPrefix == "" {
		cfg.CommitIDPrefix = DefaultConfig().CommitIDPrefix
	}
	in, err := newInner(context.Background(), cfg, st, registry)
	if err != nil {
		return nil, err
	}
	return &Engine{inner: in}, nil
}

// withSpan wraps fn in a trace span tagged with a fresh request-scoped
// correlation id, so a commit/merge's span and any log lines it emits can be
// tied back together without passing a logger down through every inner call.
func (e *Engine) withSpan(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	reqID := uuid.NewString()
	attrs = append(attrs, attribute.String("request_id", reqID))
	ctx, span := tracer.Start(ctx, "engine."+op, trace.WithAttributes(attrs...))
	defer span.End()
	return fn(ctx)
}

// Commit validates, normalizes, and applies req.Changes on top of its
// resolved parent, persisting the result atomically and advancing the
// branch head.
func (e *Engine) Commit(ctx context.Context, req CommitRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var id string
	err := e.withSpan(ctx, "commit", []attribute.KeyValue{attribute.String("branch", req.Branch)}, func(ctx context.Context) error {
		var err error
		id, err = e.inner.commit(ctx, req)
		return err
	})
	return id, err
}

// CreateBranch registers a new branch pointed at from (or main's head).
func (e *Engine) CreateBranch(ctx context.Context, name string, from *CommitRef) (BranchInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var info BranchInfo
	err := e.withSpan(ctx, "create_branch", []attribute.KeyValue{attribute.String("branch", name)}, func(ctx context.Context) error {
		var err error
		info, err = e.inner.createBranch(ctx, name, from)
		return err
	})
	return info, err
}

// ListCommits returns branch's history, root-to-head.
func (e *Engine) ListCommits(ctx context.Context, branch string) ([]CommitSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []CommitSummary
	err := e.withSpan(ctx, "list_commits", []attribute.KeyValue{attribute.String("branch", branch)}, func(ctx context.Context) error {
		var err error
		out, err = e.inner.listCommits(ctx, branch)
		return err
	})
	return out, err
}

// ListBranches returns every known branch and its head.
func (e *Engine) ListBranches(ctx context.Context) ([]BranchInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []BranchInfo
	err := e.withSpan(ctx, "list_branches", nil, func(context.Context) error {
		out = e.inner.listBranches()
		return nil
	})
	return out, err
}

// StateAt resolves args.AsOf and returns the materialized snapshot's stats.
func (e *Engine) StateAt(ctx context.Context, args StateAtArgs) (StateAtResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out StateAtResult
	err := e.withSpan(ctx, "state_at", nil, func(ctx context.Context) error {
		var err error
		out, err = e.inner.stateAt(ctx, args)
		return err
	})
	return out, err
}

// DiffSummary resolves both endpoints and returns the six-count diff.
func (e *Engine) DiffSummary(ctx context.Context, args DiffArgs) (DiffSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out DiffSummary
	err := e.withSpan(ctx, "diff_summary", nil, func(ctx context.Context) error {
		var err error
		out, err = e.inner.diffSummary(ctx, args)
		return err
	})
	return out, err
}

// TopologyDelta resolves both endpoints and returns the adds/dels-only diff.
func (e *Engine) TopologyDelta(ctx context.Context, args DiffArgs) (TopologyDeltaResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out TopologyDeltaResult
	err := e.withSpan(ctx, "topology_delta", nil, func(ctx context.Context) error {
		var err error
		out, err = e.inner.topologyDelta(ctx, args)
		return err
	})
	return out, err
}

// Merge three-way merges source into target, returning either a commit id
// (a new merge commit, or target's unchanged head when the filtered
// changeset is empty) or the set of conflicts blocking an automatic merge.
func (e *Engine) Merge(ctx context.Context, req MergeRequest) (MergeResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out MergeResponse
	err := e.withSpan(ctx, "merge", []attribute.KeyValue{
		attribute.String("source", req.Source),
		attribute.String("target", req.Target),
	}, func(ctx context.Context) error {
		var err error
		out, err = e.inner.merge(ctx, req)
		return err
	})
	return out, err
}

// StatsForCommit returns the node/edge counts of commitID's snapshot.
func (e *Engine) StatsForCommit(ctx context.Context, commitID string) (StateAtResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out StateAtResult
	err := e.withSpan(ctx, "stats_for_commit", []attribute.KeyValue{attribute.String("commit", commitID)}, func(ctx context.Context) error {
		var err error
		out, err = e.inner.statsForCommit(ctx, commitID)
		return err
	})
	return out, err
}

// MetaModel returns the resolved schema document.
func (e *Engine) MetaModel() metamodel.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.registry.Document()
}

// InvalidateCache drops every cached snapshot replay and refreshes branch
// heads from the store. Wire this to external signals that the underlying
// datastore file changed out from under the process, such as
// internal/store/layout.Watch's onSwap callback.
func (e *Engine) InvalidateCache(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.invalidate(ctx)
}
