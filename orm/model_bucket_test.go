package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/store"
)

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	mb := NewModelBucket(newCounterBucket())

	require.NoError(t, mb.Put(db, []byte("one"), &counter{Count: 5}))

	var got counter
	require.NoError(t, mb.One(db, []byte("one"), &got))
	assert.Equal(t, int64(5), got.Count)
}

func TestModelBucketOneNotFound(t *testing.T) {
	db := store.MemStore()
	mb := NewModelBucket(newCounterBucket())

	var got counter
	err := mb.One(db, []byte("nope"), &got)
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
}

func TestModelBucketPutRequiresKey(t *testing.T) {
	db := store.MemStore()
	mb := NewModelBucket(newCounterBucket())

	err := mb.Put(db, nil, &counter{Count: 1})
	assert.True(t, errors.ErrEmpty.Is(err), "unexpected error: %+v", err)
}

func TestModelBucketHasDelete(t *testing.T) {
	db := store.MemStore()
	mb := NewModelBucket(newCounterBucket())

	require.NoError(t, mb.Put(db, []byte("k"), &counter{Count: 1}))
	assert.NoError(t, mb.Has(db, []byte("k")))

	require.NoError(t, mb.Delete(db, []byte("k")))
	err := mb.Has(db, []byte("k"))
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)

	err = mb.Delete(db, []byte("k"))
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
}

func TestModelBucketIndexKeys(t *testing.T) {
	db := store.MemStore()
	mb := NewModelBucket(newCounterBucket().WithIndex("parity", evenIndexer, false))

	require.NoError(t, mb.Put(db, []byte("a"), &counter{Count: 2}))
	require.NoError(t, mb.Put(db, []byte("b"), &counter{Count: 3}))

	keys, err := mb.IndexKeys(db, "parity", []byte("odd"))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, []byte("b"), keys[0])
}
