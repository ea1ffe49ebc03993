package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weichx/FastExpressionCompiler/internal/testutil"
)

func TestRecord_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Record(ctx, createTestMaterialization("doubler", "aa"))
	require.NoError(t, err)
	second, err := s.Record(ctx, createTestMaterialization("greeter", "bb"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	id, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRecord_UsesIDGenerator(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithIDGenerator(testutil.NewSequentialIDs("mat")))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	first, err := s.Record(ctx, createTestMaterialization("a", "h"))
	require.NoError(t, err)
	second, err := s.Record(ctx, createTestMaterialization("b", "h"))
	require.NoError(t, err)

	assert.Equal(t, "mat-0001", first.ID)
	assert.Equal(t, "mat-0002", second.ID)
}

func TestRecord_KeepsExplicitID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m := createTestMaterialization("doubler", "aa")
	m.ID = "fixed-id"
	stored, err := s.Record(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", stored.ID)

	_, err = s.Record(ctx, m)
	assert.Error(t, err, "duplicate ids are rejected")
}

func TestRecord_RequiresNameAndHash(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Record(context.Background(), createTestMaterialization("", "aa"))
	assert.Error(t, err)
	_, err = s.Record(context.Background(), createTestMaterialization("doubler", ""))
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	stored, err := s.Record(ctx, createTestMaterialization("doubler", "aa"))
	require.NoError(t, err)

	got, err := s.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Record(ctx, createTestMaterialization(name, "h-"+name))
		require.NoError(t, err)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(all))

	recent, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(recent))
}

func TestFindByHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, m := range []Materialization{
		createTestMaterialization("a", "same"),
		createTestMaterialization("b", "other"),
		createTestMaterialization("c", "same"),
	} {
		_, err := s.Record(ctx, m)
		require.NoError(t, err)
	}

	found, err := s.FindByHash(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(found))

	none, err := s.FindByHash(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecord_ConcurrentWritersGetDistinctSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Record(ctx, createTestMaterialization("w", "h"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, writers)
	for i, m := range all {
		assert.Equal(t, int64(i+1), m.Seq)
	}
}

func names(records []Materialization) []string {
	out := make([]string, len(records))
	for i, m := range records {
		out[i] = m.Name
	}
	return out
}
