/*
Package iavl provides the disk-backed CommitKVStore of the engine.

State lives in a versioned merkle tree. Every commit persists a new
tree version, so the engine can prove its state and recover a stable
version after a crash.
*/
package iavl

import (
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/store"
)

// cacheSize is the number of inner tree nodes held in memory.
const cacheSize = 10000

// CommitStore manages the iavl committed state.
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing under the given
// directory. The name selects the database file within.
func NewCommitStore(dir, name string) (CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return CommitStore{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return CommitStore{tree: iavl.NewMutableTree(db, cacheSize)}, nil
}

// MockCommitStore returns a commit store backed by memory only, for
// tests.
func MockCommitStore() CommitStore {
	return CommitStore{tree: iavl.NewMutableTree(dbm.NewMemDB(), cacheSize)}
}

// Get returns the value at the current working state, nil if the key
// does not exist.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, value := s.tree.Get(key)
	return value, nil
}

// Has checks if a key exists in the current working state.
func (s CommitStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set adds or overwrites a value in the working state. It only becomes
// durable on Commit.
func (s CommitStore) Set(key, value []byte) error {
	s.tree.Set(key, value)
	return nil
}

// Delete removes a key from the working state.
func (s CommitStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// Commit persists the working state as the next version and returns
// its id.
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{Version: version, Hash: hash}, nil
}

// LoadLatestVersion loads the latest persisted version. If there was a
// crash during the last commit, it is guaranteed to load a stable
// state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk.
func (s CommitStore) LatestVersion() store.CommitID {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}
}

// CacheWrap gives a scratch pad over the working state. Write applies
// the changes to the tree, Discard drops them. Nothing is persisted
// until Commit.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, store.NewNonAtomicBatch(s), nil)
}
