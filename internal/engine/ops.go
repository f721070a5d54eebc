package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/store"
)

func (in *inner) commit(ctx context.Context, req CommitRequest) (string, error) {
	if err := validateBranchName(req.Branch); err != nil {
		return "", err
	}

	if !in.cfg.AllowEmptyCommits && req.Changes.IsEmpty() {
		return "", newError(ErrValidationFailed, "empty commits are disabled")
	}

	if _, ok := in.branches[req.Branch]; !ok {
		if err := in.st.EnsureBranch(ctx, req.Branch); err != nil {
			return "", fmt.Errorf("ensure branch %q: %w", req.Branch, err)
		}
		in.branches[req.Branch] = &branchState{}
	}

	currentHead := in.branches[req.Branch].head

	var expectedParent *string
	switch {
	case req.Parent != nil && (currentHead == nil || *req.Parent != *currentHead):
		return "", &Error{
			Kind:    ErrConcurrencyConflict,
			Message: fmt.Sprintf("branch %q: expected head %s, actual %s", req.Branch, *req.Parent, refStr(currentHead)),
		}
	case req.Parent != nil:
		expectedParent = req.Parent
	default:
		expectedParent = currentHead
	}

	base := graph.Empty()
	if expectedParent != nil {
		snap, err := in.snapshotFor(ctx, *expectedParent)
		if err != nil {
			return "", err
		}
		base = snap
	}

	normalized := req.Changes.Normalize()
	if !in.cfg.AllowEmptyCommits && normalized.IsEmpty() {
		return "", newError(ErrValidationFailed, "empty commits are disabled")
	}

	snap, err := base.Apply(normalized, in.registry)
	if err != nil {
		return "", wrapError(ErrValidationFailed, err, "apply changeset")
	}

	var parents []string
	if expectedParent != nil {
		parents = []string{*expectedParent}
	}
	timestamp := req.Time
	if timestamp == "" {
		timestamp = currentTimestamp()
	}

	commitID, err := deriveCommitID(in.cfg.CommitIDPrefix, req.Branch, parents, req.Author, req.Message, req.Tags, normalized)
	if err != nil {
		return "", err
	}

	if existing, err := in.st.GetCommit(ctx, commitID); err != nil {
		return "", fmt.Errorf("check existing commit %q: %w", commitID, err)
	} else if existing != nil {
		return "", newError(ErrIntegrityViolation, "commit %q already exists", commitID)
	}

	summary := CommitSummary{
		ID:          commitID,
		Parents:     parents,
		Branch:      req.Branch,
		Author:      req.Author,
		Time:        timestamp,
		Message:     req.Message,
		Tags:        req.Tags,
		ChangeCount: uint64(normalized.Len()),
	}

	if err := in.persistCommit(ctx, summary, normalized, req.Branch, currentHead); err != nil {
		return "", err
	}
	maybeVacuum(ctx, in.st)

	in.branches[req.Branch].head = strPtr(commitID)
	in.commits[commitID] = &commitRecord{summary: summary, changes: normalized, snap: snap}

	in.log.Info("commit created", "commit_id", commitID, "branch", req.Branch, "change_count", summary.ChangeCount)
	return commitID, nil
}

// persistCommit bundles the commit, its snapshot tag, and the branch-head
// CAS into one store transaction.
func (in *inner) persistCommit(ctx context.Context, summary CommitSummary, changes graph.Changeset, branch string, expectedHead *string) error {
	err := in.st.WriteCommit(ctx, store.CommitWrite{
		Commit: store.Commit{
			ID:          summary.ID,
			Branch:      summary.Branch,
			Parents:     summary.Parents,
			Author:      summary.Author,
			Time:        summary.Time,
			Message:     summary.Message,
			Tags:        summary.Tags,
			ChangeCount: summary.ChangeCount,
			Changes:     changes,
		},
		Tag:          snapshotTag(summary.ID),
		Branch:       branch,
		ExpectedHead: expectedHead,
	})
	if err == nil {
		return nil
	}
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return &Error{
			Kind:    ErrConcurrencyConflict,
			Message: fmt.Sprintf("branch %q: expected head %s, actual %s", conflict.Branch, refStr(conflict.Expected), refStr(conflict.Actual)),
			Cause:   err,
		}
	}
	return wrapError(ErrIntegrityViolation, err, "persist commit %q", summary.ID)
}

func (in *inner) createBranch(ctx context.Context, name string, from *CommitRef) (BranchInfo, error) {
	if err := validateBranchName(name); err != nil {
		return BranchInfo{}, err
	}
	if _, ok := in.branches[name]; ok {
		return BranchInfo{}, newError(ErrValidationFailed, "branch %q already exists", name)
	}

	var head *string
	if from != nil {
		id, err := in.resolveCommitID(ctx, *from, "")
		if err != nil {
			return BranchInfo{}, err
		}
		head = &id
	} else if main, ok := in.branches[in.cfg.DefaultBranch]; ok {
		head = main.head
	}

	if err := in.st.EnsureBranch(ctx, name); err != nil {
		return BranchInfo{}, fmt.Errorf("ensure branch %q: %w", name, err)
	}
	if err := in.st.CompareAndSwapBranch(ctx, name, nil, head); err != nil {
		return BranchInfo{}, wrapError(ErrIntegrityViolation, err, "initialize branch %q head", name)
	}
	in.branches[name] = &branchState{head: head}

	in.log.Info("branch created", "branch", name, "head", refStr(head))
	return BranchInfo{Name: name, Head: head}, nil
}

func (in *inner) listCommits(ctx context.Context, branch string) ([]CommitSummary, error) {
	state, ok := in.branches[branch]
	if !ok {
		return nil, newError(ErrUnknownBranch, "unknown branch %q", branch)
	}

	var ordered []CommitSummary
	cursor := state.head
	for cursor != nil {
		rec, err := in.recordFor(ctx, *cursor)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, rec.summary)
		if len(rec.summary.Parents) > 0 {
			cursor = &rec.summary.Parents[0]
		} else {
			cursor = nil
		}
	}
	reverse(ordered)
	return ordered, nil
}

func (in *inner) listBranches() []BranchInfo {
	out := make([]BranchInfo, 0, len(in.branches))
	for name, state := range in.branches {
		out = append(out, BranchInfo{Name: name, Head: state.head})
	}
	return out
}

func (in *inner) stateAt(ctx context.Context, args StateAtArgs) (StateAtResult, error) {
	commitID, snap, branch, err := in.resolveSnapshot(ctx, args.AsOf, args.Scenario)
	if err != nil {
		return StateAtResult{}, err
	}
	stats := snap.Stats()
	return StateAtResult{
		AsOf:       commitID,
		Scenario:   branch,
		Confidence: args.Confidence,
		Nodes:      uint64(stats.NodeCount),
		Edges:      uint64(stats.EdgeCount),
	}, nil
}

func (in *inner) diffSummary(ctx context.Context, args DiffArgs) (DiffSummary, error) {
	fromID, fromSnap, _, err := in.resolveSnapshot(ctx, args.From, "")
	if err != nil {
		return DiffSummary{}, err
	}
	toID, toSnap, _, err := in.resolveSnapshot(ctx, args.To, "")
	if err != nil {
		return DiffSummary{}, err
	}
	patch := fromSnap.Diff(toSnap)
	return DiffSummary{
		From:     fromID,
		To:       toID,
		NodeAdds: uint64(len(patch.NodeAdds)),
		NodeMods: uint64(len(patch.NodeMods)),
		NodeDels: uint64(len(patch.NodeDels)),
		EdgeAdds: uint64(len(patch.EdgeAdds)),
		EdgeMods: uint64(len(patch.EdgeMods)),
		EdgeDels: uint64(len(patch.EdgeDels)),
	}, nil
}

func (in *inner) topologyDelta(ctx context.Context, args DiffArgs) (TopologyDeltaResult, error) {
	fromID, fromSnap, _, err := in.resolveSnapshot(ctx, args.From, "")
	if err != nil {
		return TopologyDeltaResult{}, err
	}
	toID, toSnap, _, err := in.resolveSnapshot(ctx, args.To, "")
	if err != nil {
		return TopologyDeltaResult{}, err
	}
	patch := fromSnap.Diff(toSnap)
	return TopologyDeltaResult{
		From:     fromID,
		To:       toID,
		NodeAdds: uint64(len(patch.NodeAdds)),
		NodeDels: uint64(len(patch.NodeDels)),
		EdgeAdds: uint64(len(patch.EdgeAdds)),
		EdgeDels: uint64(len(patch.EdgeDels)),
	}, nil
}

func (in *inner) statsForCommit(ctx context.Context, commitID string) (StateAtResult, error) {
	rec, err := in.recordFor(ctx, commitID)
	if err != nil {
		return StateAtResult{}, err
	}
	stats := rec.snap.Stats()
	return StateAtResult{AsOf: commitID, Nodes: uint64(stats.NodeCount), Edges: uint64(stats.EdgeCount)}, nil
}

// resolveCommitID implements CommitRef resolution: an id-form ref first
// tries a known commit, then a branch head, then scenarioHint's branch
// head; a branch-form ref uses its explicit "at" or the branch head.
func (in *inner) resolveCommitID(ctx context.Context, ref CommitRef, scenarioHint string) (string, error) {
	if ref.isBranchForm() {
		if ref.at != "" {
			if _, err := in.recordFor(ctx, ref.at); err != nil {
				return "", err
			}
			return ref.at, nil
		}
		state, ok := in.branches[ref.branch]
		if !ok {
			return "", newError(ErrUnknownBranch, "unknown branch %q", ref.branch)
		}
		if state.head == nil {
			return "", newError(ErrUnknownCommit, "branch %q has no commits", ref.branch)
		}
		return *state.head, nil
	}

	value := ref.id
	if _, err := in.recordFor(ctx, value); err == nil {
		return value, nil
	}
	if state, ok := in.branches[value]; ok {
		if state.head == nil {
			return "", newError(ErrUnknownCommit, "branch %q has no commits", value)
		}
		return *state.head, nil
	}
	if scenarioHint != "" {
		state, ok := in.branches[scenarioHint]
		if !ok {
			return "", newError(ErrUnknownBranch, "unknown branch %q", scenarioHint)
		}
		if state.head == nil {
			return "", newError(ErrUnknownCommit, "branch %q has no commits", scenarioHint)
		}
		return *state.head, nil
	}
	return "", newError(ErrUnknownCommit, "unknown commit %q", value)
}

func (in *inner) resolveSnapshot(ctx context.Context, ref CommitRef, scenarioHint string) (string, graph.Snapshot, string, error) {
	commitID, err := in.resolveCommitID(ctx, ref, scenarioHint)
	if err != nil {
		return "", graph.Snapshot{}, "", err
	}
	rec, err := in.recordFor(ctx, commitID)
	if err != nil {
		return "", graph.Snapshot{}, "", err
	}
	return commitID, rec.snap, rec.summary.Branch, nil
}

// collectAncestors performs an iterative BFS over first-and-further parent
// links starting at head, returning the visited set in discovery order.
func (in *inner) collectAncestors(ctx context.Context, head string) ([]string, map[string]bool, error) {
	visited := map[string]bool{}
	var order []string
	queue := []string{head}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)
		rec, err := in.recordFor(ctx, id)
		if err != nil {
			continue // unreachable/unknown ancestor: stop walking this branch, matching the reference's "ok" swallow
		}
		queue = append(queue, rec.summary.Parents...)
	}
	return order, visited, nil
}

// findCommonAncestor collects the ancestor sets of both heads concurrently,
// then returns the first id in target's BFS order that is also an ancestor
// of source — the deterministic merge base the reference implementation
// picks by BFS-ing from the target side against source's full ancestor set.
func (in *inner) findCommonAncestor(ctx context.Context, source, target string) (string, bool, error) {
	var sourceOrder, targetOrder []string
	var sourceSet map[string]bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		order, set, err := in.collectAncestors(gctx, source)
		sourceOrder, sourceSet = order, set
		return err
	})
	g.Go(func() error {
		order, _, err := in.collectAncestors(gctx, target)
		targetOrder = order
		return err
	})
	if err := g.Wait(); err != nil {
		return "", false, err
	}
	_ = sourceOrder

	for _, id := range targetOrder {
		if sourceSet[id] {
			return id, true, nil
		}
	}
	return "", false, nil
}

func strPtr(v string) *string { return &v }

func refStr(v *string) string {
	if v == nil {
		return "<none>"
	}
	return *v
}

func reverse(s []CommitSummary) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
