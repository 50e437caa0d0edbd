package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/store/iavl"
)

func TestCommitStoreIsolation(t *testing.T) {
	cs := NewCommitStore(iavl.MockCommitStore())

	require.NoError(t, cs.DeliverStore().Set([]byte("k"), []byte("v")))

	// The check cache works on its own scratch pad.
	ok, err := cs.CheckStore().Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)

	before := cs.CommitInfo()
	id, err := cs.Commit()
	require.NoError(t, err)
	assert.Equal(t, before.Version+1, id.Version)

	// After the commit both fresh caches observe the write.
	ok, err = cs.CheckStore().Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cs.DeliverStore().Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

// markerInit writes a fixed key so tests can observe genesis ran.
type markerInit struct{}

func (markerInit) FromGenesis(opts vaultswap.Options, kv vaultswap.KVStore) error {
	var value string
	if err := opts.ReadOptions("marker", &value); err != nil {
		return err
	}
	return kv.Set([]byte("marker"), []byte(value))
}

func TestStoreAppInitState(t *testing.T) {
	db := iavl.MockCommitStore()
	s := NewStoreApp("engine-test", db, vaultswap.NewQueryRouter(), context.Background()).
		WithInit(markerInit{})

	require.NoError(t, s.InitState("test-chain-1", []byte(`{"marker": "set"}`)))
	assert.Equal(t, "test-chain-1", s.GetChainID())

	raw, err := s.DeliverStore().Get([]byte("marker"))
	require.NoError(t, err)
	assert.Equal(t, []byte("set"), raw)

	// A second initialization must be refused.
	err = s.InitState("test-chain-2", []byte(`{}`))
	assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)

	// The chain id survives a restart on the same database.
	_, err = s.Commit()
	require.NoError(t, err)
	restarted := NewStoreApp("engine-test", db, vaultswap.NewQueryRouter(), context.Background())
	assert.Equal(t, "test-chain-1", restarted.GetChainID())
}

func TestStoreAppRejectsEmptyState(t *testing.T) {
	s := NewStoreApp("engine-test", iavl.MockCommitStore(), vaultswap.NewQueryRouter(), context.Background())
	err := s.InitState("test-chain-1", nil)
	assert.True(t, errors.ErrEmpty.Is(err), "unexpected error: %+v", err)
}

func TestStoreAppUnknownQueryPath(t *testing.T) {
	s := NewStoreApp("engine-test", iavl.MockCommitStore(), vaultswap.NewQueryRouter(), context.Background())
	_, err := s.Query("/nothing", []byte("key"))
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
}
