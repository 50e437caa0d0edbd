package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap/store"
)

func TestBucketSaveGet(t *testing.T) {
	db := store.MemStore()
	b := newCounterBucket()

	obj := NewSimpleObj([]byte("first"), &counter{Count: 7})
	require.NoError(t, b.Save(db, obj))

	got, err := b.Get(db, []byte("first"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("first"), got.Key())
	assert.Equal(t, int64(7), got.Value().(*counter).Count)

	// Missing keys return nil, not an error.
	missing, err := b.Get(db, []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBucketSaveInvalid(t *testing.T) {
	db := store.MemStore()
	b := newCounterBucket()

	// No key.
	err := b.Save(db, NewSimpleObj(nil, &counter{Count: 1}))
	assert.Error(t, err)

	// Invalid value.
	err = b.Save(db, NewSimpleObj([]byte("x"), &counter{Count: -1}))
	assert.Error(t, err)
}

func TestBucketDelete(t *testing.T) {
	db := store.MemStore()
	b := newCounterBucket()

	require.NoError(t, b.Save(db, NewSimpleObj([]byte("gone"), &counter{Count: 1})))
	require.NoError(t, b.Delete(db, []byte("gone")))

	got, err := b.Get(db, []byte("gone"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBucketPrefixesDoNotCollide(t *testing.T) {
	db := store.MemStore()
	a := NewBucket("aaa", NewSimpleObj(nil, new(counter)))
	b := NewBucket("bbb", NewSimpleObj(nil, new(counter)))

	require.NoError(t, a.Save(db, NewSimpleObj([]byte("k"), &counter{Count: 1})))
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("k"), &counter{Count: 2})))

	got, err := a.Get(db, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Value().(*counter).Count)
}

func TestBucketIndex(t *testing.T) {
	db := store.MemStore()
	b := newCounterBucket().WithIndex("parity", evenIndexer, false)

	require.NoError(t, b.Save(db, NewSimpleObj([]byte("a"), &counter{Count: 2})))
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("b"), &counter{Count: 4})))
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("c"), &counter{Count: 3})))

	evens, err := b.GetIndexed(db, "parity", []byte("even"))
	require.NoError(t, err)
	assert.Len(t, evens, 2)

	odds, err := b.GetIndexed(db, "parity", []byte("odd"))
	require.NoError(t, err)
	assert.Len(t, odds, 1)
	assert.Equal(t, []byte("c"), odds[0].Key())

	// Updating an object moves it between index values.
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("c"), &counter{Count: 6})))
	evens, err = b.GetIndexed(db, "parity", []byte("even"))
	require.NoError(t, err)
	assert.Len(t, evens, 3)
	odds, err = b.GetIndexed(db, "parity", []byte("odd"))
	require.NoError(t, err)
	assert.Len(t, odds, 0)

	// Deleting removes it from the index.
	require.NoError(t, b.Delete(db, []byte("a")))
	keys, err := b.IndexKeys(db, "parity", []byte("even"))
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestBucketUniqueIndexRejectsDuplicate(t *testing.T) {
	db := store.MemStore()
	// Unique on parity means only one even and one odd counter.
	b := newCounterBucket().WithIndex("parity", evenIndexer, true)

	require.NoError(t, b.Save(db, NewSimpleObj([]byte("a"), &counter{Count: 2})))
	err := b.Save(db, NewSimpleObj([]byte("b"), &counter{Count: 4}))
	assert.Error(t, err)
}

func TestBucketQueryByKey(t *testing.T) {
	db := store.MemStore()
	b := newCounterBucket()
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("q"), &counter{Count: 9})))

	models, err := b.Query(db, "", []byte("q"))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, b.DBKey([]byte("q")), models[0].Key)

	models, err = b.Query(db, "", []byte("nope"))
	require.NoError(t, err)
	assert.Len(t, models, 0)
}
