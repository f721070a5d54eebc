package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/metamodel"
	"github.com/steveyegge/graphengine/internal/store"
)

// commitRecord is a replayed commit: its durable summary, the changeset it
// applied, and the resulting snapshot — cached so repeated reads along the
// same history don't re-replay from genesis.
type commitRecord struct {
	summary CommitSummary
	changes graph.Changeset
	snap    graph.Snapshot
}

// branchState is the in-memory mirror of one branch's head.
type branchState struct {
	head *string
}

// inner is the engine's single mutable core: every public operation
// acquires the engine's mutex before touching it. Replay is memoized in
// commits and deduplicated across concurrent callers via replayGroup.
type inner struct {
	cfg      Config
	st       store.Store
	registry *metamodel.Registry
	log      *slog.Logger

	branches map[string]*branchState
	commits  map[string]*commitRecord

	replayGroup singleflight.Group
}

func newInner(ctx context.Context, cfg Config, st store.Store, registry *metamodel.Registry) (*inner, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	in := &inner{
		cfg:      cfg,
		st:       st,
		registry: registry,
		log:      log,
		branches: make(map[string]*branchState),
		commits:  make(map[string]*commitRecord),
	}

	existing, err := st.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	for name, head := range existing {
		in.branches[name] = &branchState{head: head}
	}

	if _, ok := in.branches[cfg.DefaultBranch]; !ok {
		if err := st.EnsureBranch(ctx, cfg.DefaultBranch); err != nil {
			return nil, fmt.Errorf("ensure default branch %q: %w", cfg.DefaultBranch, err)
		}
		in.branches[cfg.DefaultBranch] = &branchState{}
	}

	return in, nil
}

// recordFor returns the replayed record for commitID, from cache if present,
// else by loading the persisted commit and replaying it on top of its first
// parent's snapshot. Concurrent callers requesting the same unresolved id
// collapse into one replay via replayGroup.
func (in *inner) recordFor(ctx context.Context, commitID string) (*commitRecord, error) {
	if rec, ok := in.commits[commitID]; ok {
		return rec, nil
	}

	result, err, _ := in.replayGroup.Do(commitID, func() (any, error) {
		persisted, err := in.st.GetCommit(ctx, commitID)
		if err != nil {
			return nil, fmt.Errorf("load commit %q: %w", commitID, err)
		}
		if persisted == nil {
			return nil, newError(ErrUnknownCommit, "unknown commit %q", commitID)
		}

		base := graph.Empty()
		if len(persisted.Parents) > 0 {
			parentSnap, err := in.snapshotFor(ctx, persisted.Parents[0])
			if err != nil {
				return nil, err
			}
			base = parentSnap
		}

		snap, err := base.Apply(persisted.Changes, in.registry)
		if err != nil {
			return nil, wrapError(ErrIntegrityViolation, err, "replay commit %q", commitID)
		}

		rec := &commitRecord{
			summary: CommitSummary{
				ID:          persisted.ID,
				Parents:     persisted.Parents,
				Branch:      persisted.Branch,
				Author:      persisted.Author,
				Time:        persisted.Time,
				Message:     persisted.Message,
				Tags:        persisted.Tags,
				ChangeCount: persisted.ChangeCount,
			},
			changes: persisted.Changes,
			snap:    snap,
		}
		in.commits[commitID] = rec
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*commitRecord), nil
}

func (in *inner) snapshotFor(ctx context.Context, commitID string) (graph.Snapshot, error) {
	rec, err := in.recordFor(ctx, commitID)
	if err != nil {
		return graph.Snapshot{}, err
	}
	return rec.snap, nil
}

// invalidate drops every cached replay record and refreshes the branch-head
// mirror from the store, so an underlying datastore file swapped out from
// under this process (see internal/store/layout.Watch) becomes visible
// without a restart.
func (in *inner) invalidate(ctx context.Context) error {
	existing, err := in.st.ListBranches(ctx)
	if err != nil {
		return fmt.Errorf("list branches: %w", err)
	}
	branches := make(map[string]*branchState, len(existing))
	for name, head := range existing {
		branches[name] = &branchState{head: head}
	}
	in.branches = branches
	in.commits = make(map[string]*commitRecord)
	in.log.Info("engine cache invalidated", "branches", len(branches))
	return nil
}
