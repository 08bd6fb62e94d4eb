package boltdb

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
	bolt "go.etcd.io/bbolt"
)

func testRecord(prompt string) memory.MemoryRecord {
	vz := vector.NewBagOfTokens()
	return memory.MemoryRecord{
		Prompt:   prompt,
		Intent:   prompt,
		Summary:  prompt,
		Response: prompt,
		Mode:     memory.ModeManual,
		Vector:   vz.Vectorize(prompt),
	}
}

func TestBoltStore_Append(t *testing.T) {
	db, _, cleanup := testutil.CreateTempBoltDB(t)
	defer cleanup()

	store := NewBoltStore(db)
	require.NoError(t, store.Initialize(context.Background()))

	ctx := context.Background()
	record := testRecord("test memory content")
	record.Tags = []string{"work", "important"}

	id, err := store.Append(ctx, record)
	assert.NoError(t, err)
	assert.NotEmpty(t, id, "ID should be generated and not empty")

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, record.Prompt, all[0].Prompt)
	assert.Equal(t, record.Tags, all[0].Tags)
	assert.Equal(t, record.Vector, all[0].Vector)
	assert.WithinDuration(t, time.Now(), all[0].Timestamp, 5*time.Second)
}

func TestBoltStore_OrderingAndList(t *testing.T) {
	db, _, cleanup := testutil.CreateTempBoltDB(t)
	defer cleanup()

	store := NewBoltStore(db)
	require.NoError(t, store.Initialize(context.Background()))

	ctx := context.Background()
	prompts := []string{"first", "second", "third"}
	for _, p := range prompts {
		_, err := store.Append(ctx, testRecord(p))
		require.NoError(t, err)
	}

	t.Run("all in insertion order", func(t *testing.T) {
		all, err := store.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, p := range prompts {
			assert.Equal(t, p, all[i].Prompt)
		}
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		listed, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "third", listed[0].Prompt)
		assert.Equal(t, "second", listed[1].Prompt)
	})

	t.Run("list without limit", func(t *testing.T) {
		listed, err := store.List(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, listed, 3)
	})
}

func TestBoltStore_EmptyDatabase(t *testing.T) {
	db, _, cleanup := testutil.CreateTempBoltDB(t)
	defer cleanup()

	store := NewBoltStore(db)

	ctx := context.Background()
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	listed, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestBoltStore_MalformedRecordIsCorrupt(t *testing.T) {
	db, _, cleanup := testutil.CreateTempBoltDB(t)
	defer cleanup()

	store := NewBoltStore(db)
	require.NoError(t, store.Initialize(context.Background()))

	// Plant a malformed value directly in the bucket.
	err := db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put(sequenceKey(1), []byte("{broken"))
	})
	require.NoError(t, err)

	_, err = store.All(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCorruptStore))
}
