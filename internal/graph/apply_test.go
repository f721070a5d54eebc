package graph

import (
	"testing"

	"github.com/steveyegge/graphengine/internal/metamodel"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, allowDuplicate bool) *metamodel.Registry {
	t.Helper()
	doc := metamodel.Document{
		Types: []metamodel.TypeDoc{{ID: "A"}, {ID: "B"}},
		Relationships: []metamodel.RelationshipDoc{
			{ID: "rel", From: []string{"A"}, To: []string{"B"}},
		},
		Validation: metamodel.ValidationDoc{
			Relationships: map[string]metamodel.RelationshipFlags{
				"rel": {AllowSelf: true, AllowDuplicate: allowDuplicate},
			},
		},
	}
	reg, err := metamodel.NewRegistry(doc)
	require.NoError(t, err)
	return reg
}

func TestApplyRejectsEdgesWithMissingEndpoints(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot := Empty()
	change := Changeset{EdgeCreates: []Edge{{ID: "e1", From: "missing", To: "missing2", Type: "rel"}}}
	_, err := snapshot.Apply(change, registry)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "missing node")
}

func TestApplyRejectsDeletingMissingNode(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot := Empty()
	_, err := snapshot.Apply(Changeset{NodeDeletes: []NodeTombstone{{ID: "missing"}}}, registry)
	require.Contains(t, err.Error(), "does not exist for delete")
}

func TestApplyRejectsCreatingDuplicateNode(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot := Empty()
	first, err := snapshot.Apply(Changeset{NodeCreates: []Node{{ID: "n1", Type: "A"}}}, registry)
	require.NoError(t, err)
	_, err = first.Apply(Changeset{NodeCreates: []Node{{ID: "n1", Type: "A"}}}, registry)
	require.Contains(t, err.Error(), "already exists")
}

func TestApplyRejectsUpdatingMissingNode(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot := Empty()
	_, err := snapshot.Apply(Changeset{NodeUpdates: []Node{{ID: "missing", Type: "A"}}}, registry)
	require.Contains(t, err.Error(), "missing for update")
}

func TestApplyRejectsDeletingMissingEdge(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot, err := Empty().Apply(Changeset{NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}}}, registry)
	require.NoError(t, err)
	_, err = snapshot.Apply(Changeset{EdgeDeletes: []EdgeTombstone{{From: "a", To: "b"}}}, registry)
	require.Contains(t, err.Error(), "does not exist for delete")
}

func TestApplyRejectsEdgeMissingType(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot, err := Empty().Apply(Changeset{NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}}}, registry)
	require.NoError(t, err)
	_, err = snapshot.Apply(Changeset{EdgeCreates: []Edge{{ID: "e1", From: "a", To: "b"}}}, registry)
	require.Contains(t, err.Error(), "missing relationship type")
}

func TestApplyRejectsDuplicateRelationshipsWhenDisallowed(t *testing.T) {
	registry := testRegistry(t, false)
	change := Changeset{
		NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}},
		EdgeCreates: []Edge{
			{ID: "e1", From: "a", To: "b", Type: "rel"},
			{ID: "e2", From: "a", To: "b", Type: "rel"},
		},
	}
	_, err := Empty().Apply(change, registry)
	require.Contains(t, err.Error(), "already exists")
}

func TestApplyAllowsDuplicateRelationshipsWhenPermitted(t *testing.T) {
	registry := testRegistry(t, true)
	change := Changeset{
		NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}},
		EdgeCreates: []Edge{
			{ID: "e1", From: "a", To: "b", Type: "rel"},
			{ID: "e2", From: "a", To: "b", Type: "rel"},
		},
	}
	snapshot, err := Empty().Apply(change, registry)
	require.NoError(t, err)
	require.Equal(t, 2, snapshot.Stats().EdgeCount)
}

func TestApplyEdgeUpdateResolvesByID(t *testing.T) {
	registry := testRegistry(t, true)
	snapshot, err := Empty().Apply(Changeset{
		NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}},
		EdgeCreates: []Edge{{ID: "e1", From: "a", To: "b", Type: "rel"}},
	}, registry)
	require.NoError(t, err)

	updated, err := snapshot.Apply(Changeset{
		EdgeUpdates: []Edge{{ID: "e1", From: "a", To: "b", Type: "rel", Props: map[string]any{"k": "v"}}},
	}, registry)
	require.NoError(t, err)
	edge, ok := updated.Edge(EdgeKey{ID: "e1", From: "a", To: "b"})
	require.True(t, ok)
	require.Equal(t, "v", edge.Props["k"])
}

func TestApplyEdgeUpdateByEndpointsIsAmbiguousWithTwoMatches(t *testing.T) {
	registry := testRegistry(t, true)
	snapshot, err := Empty().Apply(Changeset{
		NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}},
		EdgeCreates: []Edge{
			{ID: "e1", From: "a", To: "b", Type: "rel"},
			{ID: "e2", From: "a", To: "b", Type: "rel"},
		},
	}, registry)
	require.NoError(t, err)

	_, err = snapshot.Apply(Changeset{
		EdgeUpdates: []Edge{{From: "a", To: "b", Type: "rel"}},
	}, registry)
	require.Contains(t, err.Error(), "ambiguous")
}

func TestApplyRejectsDanglingEdgeAfterNodeDeleteInSameChangeset(t *testing.T) {
	registry := testRegistry(t, false)
	snapshot, err := Empty().Apply(Changeset{
		NodeCreates: []Node{{ID: "a", Type: "A"}, {ID: "b", Type: "B"}},
		EdgeCreates: []Edge{{ID: "e1", From: "a", To: "b", Type: "rel"}},
	}, registry)
	require.NoError(t, err)

	// Deleting "a" without also deleting the edge leaves it dangling; the
	// per-step edge-delete check never runs on it, so the post-apply
	// snapshot-level invariant check must reject it.
	_, err = snapshot.Apply(Changeset{NodeDeletes: []NodeTombstone{{ID: "a"}}}, registry)
	require.ErrorIs(t, err, ErrIntegrity)
}
