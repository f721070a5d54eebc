package engine

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/steveyegge/graphengine/internal/graph"
)

func (in *inner) merge(ctx context.Context, req MergeRequest) (MergeResponse, error) {
	sourceState, ok := in.branches[req.Source]
	if !ok {
		return MergeResponse{}, newError(ErrUnknownBranch, "unknown branch %q", req.Source)
	}
	if sourceState.head == nil {
		return MergeResponse{}, newError(ErrUnknownCommit, "branch %q has no commits", req.Source)
	}
	targetState, ok := in.branches[req.Target]
	if !ok {
		return MergeResponse{}, newError(ErrUnknownBranch, "unknown branch %q", req.Target)
	}
	if targetState.head == nil {
		return MergeResponse{}, newError(ErrUnknownCommit, "branch %q has no commits", req.Target)
	}
	sourceHead, targetHead := *sourceState.head, *targetState.head

	base, found, err := in.findCommonAncestor(ctx, sourceHead, targetHead)
	if err != nil {
		return MergeResponse{}, err
	}
	if !found {
		return MergeResponse{}, newError(ErrMergeConflict, "branches do not share a common ancestor")
	}

	baseSnap, err := in.snapshotFor(ctx, base)
	if err != nil {
		return MergeResponse{}, err
	}
	sourceSnap, err := in.snapshotFor(ctx, sourceHead)
	if err != nil {
		return MergeResponse{}, err
	}
	targetSnap, err := in.snapshotFor(ctx, targetHead)
	if err != nil {
		return MergeResponse{}, err
	}

	sourcePatch := baseSnap.Diff(sourceSnap)
	targetPatch := baseSnap.Diff(targetSnap)

	conflicts := detectConflicts(sourcePatch, targetPatch)
	if len(conflicts) > 0 {
		in.log.Info("merge conflict", "source", req.Source, "target", req.Target, "conflicts", len(conflicts))
		return MergeResponse{Conflicts: conflicts}, nil
	}

	changes := buildChangeSet(targetSnap, sourcePatch)
	if changes.IsEmpty() {
		head := targetHead
		in.log.Info("merge fast-forwarded", "source", req.Source, "target", req.Target, "result", head)
		return MergeResponse{Result: &head}, nil
	}
	normalized := changes.Normalize()

	parents := []string{targetHead, sourceHead}
	message := fmt.Sprintf("merge %s -> %s", req.Source, req.Target)
	tags := []string{"merge"}

	commitID, err := deriveCommitID(in.cfg.CommitIDPrefix, req.Target, parents, "", message, tags, normalized)
	if err != nil {
		return MergeResponse{}, err
	}
	if existing, err := in.st.GetCommit(ctx, commitID); err != nil {
		return MergeResponse{}, fmt.Errorf("check existing commit %q: %w", commitID, err)
	} else if existing != nil {
		return MergeResponse{}, newError(ErrIntegrityViolation, "commit %q already exists", commitID)
	}

	snap, err := targetSnap.Apply(normalized, in.registry)
	if err != nil {
		return MergeResponse{}, wrapError(ErrValidationFailed, err, "apply merge changeset")
	}

	summary := CommitSummary{
		ID:          commitID,
		Parents:     parents,
		Branch:      req.Target,
		Time:        currentTimestamp(),
		Message:     message,
		Tags:        tags,
		ChangeCount: uint64(normalized.Len()),
	}
	if err := in.persistCommit(ctx, summary, normalized, req.Target, &targetHead); err != nil {
		return MergeResponse{}, err
	}

	in.branches[req.Target].head = strPtr(commitID)
	in.commits[commitID] = &commitRecord{summary: summary, changes: normalized, snap: snap}

	in.log.Info("merge completed", "source", req.Source, "target", req.Target, "commit_id", commitID)
	return MergeResponse{Result: &commitID}, nil
}

func detectConflicts(source, target graph.Patch) []MergeConflict {
	var conflicts []MergeConflict

	targetModNodes := nodeIDSet(target.NodeMods)
	targetDelNodes := tombstoneIDSet(target.NodeDels)
	targetAddNodes := nodeIDSet(target.NodeAdds)

	for _, n := range source.NodeMods {
		if targetModNodes[n.ID] || targetDelNodes[n.ID] {
			conflicts = append(conflicts, MergeConflict{Reference: n.ID, Kind: "node", Message: "both branches modify or delete the node"})
		}
	}
	for _, t := range source.NodeDels {
		if targetAddNodes[t.ID] || targetModNodes[t.ID] {
			conflicts = append(conflicts, MergeConflict{Reference: t.ID, Kind: "node", Message: "delete conflicts with target updates"})
		}
	}

	targetModEdges := edgeKeySet(target.EdgeMods)
	targetDelEdges := edgeTombstoneKeySet(target.EdgeDels)
	targetAddEdges := edgeKeySet(target.EdgeAdds)

	for _, e := range source.EdgeMods {
		key := e.From + "\x00" + e.To
		if targetModEdges[key] || targetDelEdges[key] {
			conflicts = append(conflicts, MergeConflict{Reference: e.From + "->" + e.To, Kind: "edge", Message: "both branches modify or delete the edge"})
		}
	}
	for _, t := range source.EdgeDels {
		key := t.From + "\x00" + t.To
		if targetAddEdges[key] || targetModEdges[key] {
			conflicts = append(conflicts, MergeConflict{Reference: t.From + "->" + t.To, Kind: "edge", Message: "delete conflicts with target updates"})
		}
	}

	return conflicts
}

// buildChangeSet derives the changeset the merge commit should apply,
// filtering source's patch against the target snapshot so no-ops are
// dropped: adds that already exist with equal payload, mods that wouldn't
// change anything, deletes of already-absent subjects.
func buildChangeSet(target graph.Snapshot, patch graph.Patch) graph.Changeset {
	var changes graph.Changeset

	for _, n := range patch.NodeAdds {
		if existing, ok := target.Node(n.ID); !ok || !cmp.Equal(existing, n) {
			changes.NodeCreates = append(changes.NodeCreates, n)
		}
	}
	for _, n := range patch.NodeMods {
		if existing, ok := target.Node(n.ID); !ok || !cmp.Equal(existing, n) {
			changes.NodeUpdates = append(changes.NodeUpdates, n)
		}
	}
	for _, t := range patch.NodeDels {
		if target.HasNode(t.ID) {
			changes.NodeDeletes = append(changes.NodeDeletes, t)
		}
	}

	for _, e := range patch.EdgeAdds {
		if existing, ok := target.Edge(edgeKeyOf(e)); !ok || !cmp.Equal(existing, e) {
			changes.EdgeCreates = append(changes.EdgeCreates, e)
		}
	}
	for _, e := range patch.EdgeMods {
		if existing, ok := target.Edge(edgeKeyOf(e)); !ok || !cmp.Equal(existing, e) {
			changes.EdgeUpdates = append(changes.EdgeUpdates, e)
		}
	}
	for _, t := range patch.EdgeDels {
		if hasEdgeTombstone(target, t) {
			changes.EdgeDeletes = append(changes.EdgeDeletes, t)
		}
	}

	return changes
}

func edgeKeyOf(e graph.Edge) graph.EdgeKey {
	return graph.EdgeKey{ID: e.ID, From: e.From, To: e.To}
}

func hasEdgeTombstone(snap graph.Snapshot, t graph.EdgeTombstone) bool {
	for _, e := range snap.Edges() {
		if e.From == t.From && e.To == t.To {
			return true
		}
	}
	return false
}

func nodeIDSet(nodes []graph.Node) map[string]bool {
	out := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		out[n.ID] = true
	}
	return out
}

func tombstoneIDSet(tombs []graph.NodeTombstone) map[string]bool {
	out := make(map[string]bool, len(tombs))
	for _, t := range tombs {
		out[t.ID] = true
	}
	return out
}

func edgeKeySet(edges []graph.Edge) map[string]bool {
	out := make(map[string]bool, len(edges))
	for _, e := range edges {
		out[e.From+"\x00"+e.To] = true
	}
	return out
}

func edgeTombstoneKeySet(tombs []graph.EdgeTombstone) map[string]bool {
	out := make(map[string]bool, len(tombs))
	for _, t := range tombs {
		out[t.From+"\x00"+t.To] = true
	}
	return out
}
