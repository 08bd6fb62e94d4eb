package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/vector"
	"github.com/lexlapax/atlas/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(prompt string) memory.MemoryRecord {
	vz := vector.NewBagOfTokens()
	return memory.MemoryRecord{
		Prompt:   prompt,
		Intent:   prompt,
		Summary:  prompt,
		Response: prompt,
		Tags:     []string{"test"},
		Mode:     memory.ModeManual,
		Vector:   vz.Vectorize(prompt),
	}
}

func newTestStore(t *testing.T) (*SQLiteStore, func()) {
	db, cleanup := testutil.CreateInMemorySQLiteDB(t)
	store := NewSQLiteStore(db)
	require.NoError(t, store.Initialize(context.Background()))
	return store, cleanup
}

func TestSQLiteStore_AppendAndRoundTrip(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	record := testRecord("fix bug in parser")
	record.Note = "flaky on CI"

	id, err := store.Append(ctx, record)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, record.Prompt, got.Prompt)
	assert.Equal(t, record.Intent, got.Intent)
	assert.Equal(t, record.Summary, got.Summary)
	assert.Equal(t, record.Response, got.Response)
	assert.Equal(t, record.Note, got.Note)
	assert.Equal(t, record.Tags, got.Tags)
	assert.Equal(t, record.Mode, got.Mode)
	assert.Equal(t, record.Vector, got.Vector)
	assert.WithinDuration(t, time.Now(), got.Timestamp, 5*time.Second)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for _, p := range []string{"first", "second", "third"} {
		_, err := store.Append(ctx, testRecord(p))
		require.NoError(t, err)
	}

	listed, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "third", listed[0].Prompt)
	assert.Equal(t, "second", listed[1].Prompt)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_DuplicateIDRejected(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	record := testRecord("one of a kind")
	record.ID = "fixed-id"

	_, err := store.Append(ctx, record)
	require.NoError(t, err)

	_, err = store.Append(ctx, record)
	require.Error(t, err)
}

func TestSQLiteStore_MalformedVectorIsCorrupt(t *testing.T) {
	db, cleanup := testutil.CreateInMemorySQLiteDB(t)
	defer cleanup()

	store := NewSQLiteStore(db)
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))

	_, err := db.ExecContext(ctx,
		`INSERT INTO memory_records (id, timestamp, prompt, vector)
		 VALUES ('bad', ?, 'prompt', '{broken')`, time.Now().UTC())
	require.NoError(t, err)

	_, err = store.All(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCorruptStore))
	assert.Contains(t, err.Error(), "bad", "error should name the record")
}
