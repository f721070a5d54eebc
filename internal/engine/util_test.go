package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/store"
)

func TestValidateBranchNameRejectsEmptyOrInvalidSegments(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"main", false},
		{"feature/login", false},
		{"feature.v2", false},
		{"", true},
		{"  ", true},
		{"a//b", true},
		{".", true},
		{"..", true},
		{"feature/../etc", true},
		{"bad name", true},
		{"bad$name", true},
	}
	for _, c := range cases {
		err := validateBranchName(c.name)
		if c.wantErr {
			assert.Error(t, err, "name=%q", c.name)
		} else {
			assert.NoError(t, err, "name=%q", c.name)
		}
	}
}

func TestDeriveCommitIDIsDeterministic(t *testing.T) {
	changes := graph.Changeset{NodeCreates: []graph.Node{{ID: "n1", Type: "Entity"}}}

	id1, err := deriveCommitID("gc-", "main", nil, "alice", "msg", nil, changes)
	require.NoError(t, err)
	id2, err := deriveCommitID("gc-", "main", nil, "alice", "msg", nil, changes)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.True(t, len(id1) > len("gc-"))
}

func TestDeriveCommitIDVariesWithInputs(t *testing.T) {
	changes := graph.Changeset{NodeCreates: []graph.Node{{ID: "n1", Type: "Entity"}}}

	base, err := deriveCommitID("gc-", "main", nil, "alice", "msg", nil, changes)
	require.NoError(t, err)

	diffBranch, err := deriveCommitID("gc-", "other", nil, "alice", "msg", nil, changes)
	require.NoError(t, err)
	assert.NotEqual(t, base, diffBranch)

	diffMsg, err := deriveCommitID("gc-", "main", nil, "alice", "different", nil, changes)
	require.NoError(t, err)
	assert.NotEqual(t, base, diffMsg)
}

func TestSnapshotTagIsPrefixed(t *testing.T) {
	assert.Equal(t, "snapshot/abc123", snapshotTag("abc123"))
}

type vacuumingStore struct {
	store.Store
	calls int
}

func (v *vacuumingStore) MaybeVacuum(ctx context.Context) error {
	v.calls++
	return nil
}

func TestMaybeVacuumCallsOptionalInterface(t *testing.T) {
	v := &vacuumingStore{}
	maybeVacuum(context.Background(), v)
	assert.Equal(t, 1, v.calls)
}

func TestMaybeVacuumSkipsStoresWithoutIt(t *testing.T) {
	var plain store.Store
	assert.NotPanics(t, func() { maybeVacuum(context.Background(), plain) })
}

func TestCommitRefWireShapes(t *testing.T) {
	idForm := RefID("gc-abcdef")
	data, err := idForm.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"gc-abcdef"`, string(data))

	branchForm := RefBranch("main", "gc-abcdef")
	data, err = branchForm.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"branch":"main","at":"gc-abcdef"}`, string(data))

	var decoded CommitRef
	require.NoError(t, decoded.UnmarshalJSON([]byte(`"gc-abcdef"`)))
	assert.Equal(t, idForm, decoded)

	require.NoError(t, decoded.UnmarshalJSON([]byte(`{"branch":"main","at":"gc-abcdef"}`)))
	assert.Equal(t, branchForm, decoded)
}
