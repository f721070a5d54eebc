package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/metamodel"
)

func mustSnapshot(t *testing.T, changes graph.Changeset) graph.Snapshot {
	t.Helper()
	registry, err := metamodel.NewRegistry(metamodel.DefaultDocument())
	require.NoError(t, err)
	snap, err := graph.Empty().Apply(changes, registry)
	require.NoError(t, err)
	return snap
}

func TestDetectConflictsFlagsOverlappingNodeChanges(t *testing.T) {
	source := graph.Patch{NodeMods: []graph.Node{{ID: "n1", Type: "Entity"}}}
	target := graph.Patch{NodeMods: []graph.Node{{ID: "n1", Type: "Entity"}}}

	conflicts := detectConflicts(source, target)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "n1", conflicts[0].Reference)
	assert.Equal(t, "node", conflicts[0].Kind)
}

func TestDetectConflictsFlagsDeleteVsUpdate(t *testing.T) {
	source := graph.Patch{NodeDels: []graph.NodeTombstone{{ID: "n1"}}}
	target := graph.Patch{NodeMods: []graph.Node{{ID: "n1", Type: "Entity"}}}

	conflicts := detectConflicts(source, target)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "n1", conflicts[0].Reference)
}

func TestDetectConflictsIgnoresDisjointChanges(t *testing.T) {
	source := graph.Patch{NodeMods: []graph.Node{{ID: "n1", Type: "Entity"}}}
	target := graph.Patch{NodeMods: []graph.Node{{ID: "n2", Type: "Entity"}}}

	conflicts := detectConflicts(source, target)
	assert.Empty(t, conflicts)
}

func TestDetectConflictsFlagsOverlappingEdgeChanges(t *testing.T) {
	edge := graph.Edge{From: "a", To: "b", Type: "related_to"}
	source := graph.Patch{EdgeMods: []graph.Edge{edge}}
	target := graph.Patch{EdgeMods: []graph.Edge{edge}}

	conflicts := detectConflicts(source, target)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "edge", conflicts[0].Kind)
	assert.Equal(t, "a->b", conflicts[0].Reference)
}

func TestBuildChangeSetFiltersNoopsAgainstTargetSnapshot(t *testing.T) {
	target := mustSnapshot(t, graph.Changeset{
		NodeCreates: []graph.Node{{ID: "n1", Type: "Entity"}},
	})

	patch := graph.Patch{
		NodeAdds: []graph.Node{{ID: "n1", Type: "Entity"}}, // already present, same payload
		NodeDels: []graph.NodeTombstone{{ID: "missing"}},   // already absent
	}

	changes := buildChangeSet(target, patch)
	assert.True(t, changes.IsEmpty())
}

func TestBuildChangeSetKeepsMeaningfulEdgeUpdates(t *testing.T) {
	target := mustSnapshot(t, graph.Changeset{
		NodeCreates: []graph.Node{{ID: "a", Type: "Entity"}, {ID: "b", Type: "Entity"}},
		EdgeCreates: []graph.Edge{{From: "a", To: "b", Type: "related_to", Props: map[string]any{"k": "old"}}},
	})

	patch := graph.Patch{
		EdgeMods: []graph.Edge{{From: "a", To: "b", Type: "related_to", Props: map[string]any{"k": "new"}}},
	}

	changes := buildChangeSet(target, patch)
	require.Len(t, changes.EdgeUpdates, 1)
	assert.Equal(t, "new", changes.EdgeUpdates[0].Props["k"])
}
