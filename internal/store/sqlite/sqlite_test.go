package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/graphengine/internal/graph"
	"github.com/steveyegge/graphengine/internal/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenOrCreate(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleCommit(id string) store.Commit {
	return store.Commit{
		ID:      id,
		Branch:  "main",
		Message: "test commit",
		Changes: graph.Changeset{NodeCreates: []graph.Node{{ID: "n1", Type: "Entity"}}},
	}
}

func TestWriteCommitBundlesCommitTagAndHead(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)

	require.NoError(t, st.EnsureBranch(ctx, "main"))

	c := sampleCommit("gc-1")
	require.NoError(t, st.WriteCommit(ctx, store.CommitWrite{
		Commit: c,
		Tag:    "snapshot/gc-1",
		Branch: "main",
	}))

	got, err := st.GetCommit(ctx, "gc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.Message, got.Message)
	assert.Equal(t, c.Changes, got.Changes)

	tag, err := st.GetTag(ctx, "snapshot/gc-1")
	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "gc-1", *tag)

	head, err := st.GetBranchHead(ctx, "main")
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "gc-1", *head)
}

func TestWriteCommitRejectsStaleExpectedHead(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	require.NoError(t, st.EnsureBranch(ctx, "main"))

	require.NoError(t, st.WriteCommit(ctx, store.CommitWrite{
		Commit: sampleCommit("gc-1"), Tag: "snapshot/gc-1", Branch: "main",
	}))

	stale := "wrong-head"
	err := st.WriteCommit(ctx, store.CommitWrite{
		Commit: sampleCommit("gc-2"), Tag: "snapshot/gc-2", Branch: "main", ExpectedHead: &stale,
	})
	require.Error(t, err)

	// The failed write must not have landed any part of its bundle.
	got, err := st.GetCommit(ctx, "gc-2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompareAndSwapBranchDetectsConflict(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	require.NoError(t, st.EnsureBranch(ctx, "main"))

	head := "gc-1"
	require.NoError(t, st.CompareAndSwapBranch(ctx, "main", nil, &head))

	err := st.CompareAndSwapBranch(ctx, "main", nil, &head)
	require.Error(t, err)
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestGetCommitUnknownReturnsNilNotError(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)

	got, err := st.GetCommit(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListBranchesAndTags(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)

	require.NoError(t, st.EnsureBranch(ctx, "main"))
	require.NoError(t, st.EnsureBranch(ctx, "feature"))
	replaced, err := st.PutTag(ctx, "release/v1", "gc-1")
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = st.PutTag(ctx, "release/v1", "gc-2")
	require.NoError(t, err)
	assert.True(t, replaced)

	branches, err := st.ListBranches(ctx)
	require.NoError(t, err)
	assert.Len(t, branches, 2)
	assert.Contains(t, branches, "main")
	assert.Contains(t, branches, "feature")

	tags, err := st.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gc-2", tags["release/v1"])
}

func TestGetAnalyticsReflectsCommitChanges(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	require.NoError(t, st.EnsureBranch(ctx, "main"))

	c := store.Commit{
		ID:     "gc-1",
		Branch: "main",
		Changes: graph.Changeset{
			NodeCreates: []graph.Node{{ID: "n1", Type: "Entity"}, {ID: "n2", Type: "Entity"}},
			EdgeCreates: []graph.Edge{{From: "n1", To: "n2", Type: "related_to"}},
		},
	}
	require.NoError(t, st.WriteCommit(ctx, store.CommitWrite{Commit: c, Tag: "snapshot/gc-1", Branch: "main"}))

	analytics, err := st.GetAnalytics(ctx, "gc-1")
	require.NoError(t, err)
	require.NotNil(t, analytics)
	assert.Equal(t, 2, analytics.NodeCreates)
	assert.Equal(t, 1, analytics.EdgeCreates)
	require.Len(t, analytics.Changes, 3)

	for _, row := range analytics.Changes {
		assert.Equal(t, "create", row.Kind)
		assert.NotZero(t, row.RecordedAtMs)
		switch row.SubjectKind {
		case "node":
			assert.Equal(t, "Entity", row.SubjectType)
		case "edge":
			assert.Equal(t, "related_to", row.SubjectType)
		default:
			t.Fatalf("unexpected subject_kind %q", row.SubjectKind)
		}
	}
}

func TestAnalyticsDisabledSkipsProjection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := OpenOrCreate(dir, WithAnalytics(false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.EnsureBranch(ctx, "main"))
	require.NoError(t, st.WriteCommit(ctx, store.CommitWrite{Commit: sampleCommit("gc-1"), Tag: "snapshot/gc-1", Branch: "main"}))

	analytics, err := st.GetAnalytics(ctx, "gc-1")
	require.NoError(t, err)
	assert.Nil(t, analytics)
}

func TestMigrationsAreIdempotentAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	st1, err := OpenOrCreate(dir)
	require.NoError(t, err)
	require.NoError(t, st1.Close())

	st2, err := OpenOrCreate(dir)
	require.NoError(t, err)
	defer st2.Close()

	require.NoError(t, st2.EnsureBranch(context.Background(), "main"))
}

func TestMaybeVacuumBackToBackCallsSucceed(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)

	require.NoError(t, st.MaybeVacuum(ctx))
	// Called again immediately: the rate gate should skip the work (and
	// therefore also skip re-running PRAGMA/ANALYZE) rather than error.
	require.NoError(t, st.MaybeVacuum(ctx))
}
