package utils

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// Savepoint will isolate all data writes inside of the call, and
// commit or rollback based on the result. This is what gives every
// operation its all-or-nothing character.
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ vaultswap.Decorator = Savepoint{}

// NewSavepoint creates a Savepoint decorator, but you must call
// OnCheck/OnDeliver so it will be triggered.
func NewSavepoint() Savepoint {
	return Savepoint{}
}

// OnCheck returns a savepoint that will trigger on CheckTx.
func (s Savepoint) OnCheck() Savepoint {
	return Savepoint{
		onCheck:   true,
		onDeliver: s.onDeliver,
	}
}

// OnDeliver returns a savepoint that will trigger on DeliverTx.
func (s Savepoint) OnDeliver() Savepoint {
	return Savepoint{
		onCheck:   s.onCheck,
		onDeliver: true,
	}
}

// Check will optionally set a checkpoint.
func (s Savepoint) Check(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Checker) (*vaultswap.CheckResult, error) {
	if !s.onCheck {
		return next.Check(ctx, store, tx)
	}

	cstore, ok := store.(vaultswap.CacheableKVStore)
	if !ok {
		return next.Check(ctx, store, tx)
	}

	cache := cstore.CacheWrap()
	res, err := next.Check(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if werr := cache.Write(); werr != nil {
		return nil, errors.Wrap(werr, "writing savepoint")
	}
	return res, nil
}

// Deliver will optionally set a checkpoint.
func (s Savepoint) Deliver(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Deliverer) (*vaultswap.DeliverResult, error) {
	if !s.onDeliver {
		return next.Deliver(ctx, store, tx)
	}

	cstore, ok := store.(vaultswap.CacheableKVStore)
	if !ok {
		return next.Deliver(ctx, store, tx)
	}

	cache := cstore.CacheWrap()
	res, err := next.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if werr := cache.Write(); werr != nil {
		return nil, errors.Wrap(werr, "writing savepoint")
	}
	return res, nil
}
