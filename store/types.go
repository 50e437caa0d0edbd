package store

import "github.com/vaultswap/vaultswap"

// Aliases for all storage types of the root package, for shorter
// names everywhere in the storage implementations.

type ReadOnlyKVStore = vaultswap.ReadOnlyKVStore
type KVStore = vaultswap.KVStore
type SetDeleter = vaultswap.SetDeleter
type Batch = vaultswap.Batch
type CacheableKVStore = vaultswap.CacheableKVStore
type KVCacheWrap = vaultswap.KVCacheWrap
type CommitKVStore = vaultswap.CommitKVStore
type CommitID = vaultswap.CommitID
type Model = vaultswap.Model
