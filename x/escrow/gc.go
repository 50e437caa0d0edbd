package escrow

import (
	"time"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/orm"
)

// DefaultRetention is how long closed escrow records stay available
// for audit before the sweeper purges them.
const DefaultRetention = 14 * 24 * time.Hour

// Sweeper purges closed escrow records once their retention period is
// over. It implements the vaultswap.Ticker interface and is meant to
// run on the block boundary, outside of any transaction.
type Sweeper struct {
	bucket    orm.ModelBucket
	retention time.Duration
}

var _ vaultswap.Ticker = (*Sweeper)(nil)

// NewSweeper returns a sweeper deleting closed records older than the
// given retention period. A non-positive retention falls back to
// DefaultRetention.
func NewSweeper(retention time.Duration) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{
		bucket:    NewBucket(),
		retention: retention,
	}
}

// Tick removes all expired closed records. All deletions of one tick
// are applied atomically.
func (s *Sweeper) Tick(ctx vaultswap.Context, store vaultswap.CacheableKVStore) error {
	cache := store.CacheWrap()
	if err := s.sweep(ctx, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "sweep")
	}
	return cache.Write()
}

func (s *Sweeper) sweep(ctx vaultswap.Context, db vaultswap.KVStore) error {
	now, err := vaultswap.BlockTime(ctx)
	if err != nil {
		return errors.Wrap(err, "block time")
	}

	keys, err := s.bucket.IndexKeys(db, "state", []byte{byte(StateClosed)})
	if err != nil {
		return errors.Wrap(err, "state index")
	}
	for _, key := range keys {
		var escrow Escrow
		if err := s.bucket.One(db, key, &escrow); err != nil {
			return errors.Wrapf(err, "escrow %X", key)
		}
		cutoff := escrow.ClosedAt.Add(s.retention)
		if cutoff > vaultswap.AsUnixTime(now) {
			continue
		}
		if err := s.bucket.Delete(db, key); err != nil {
			return errors.Wrapf(err, "delete %X", key)
		}
	}
	return nil
}
