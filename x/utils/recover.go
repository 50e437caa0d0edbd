package utils

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// Recovery is a decorator to recover from panics in transactions, so
// we can log them as errors.
type Recovery struct{}

var _ vaultswap.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator.
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors.
func (r Recovery) Check(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Checker) (_ *vaultswap.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors.
func (r Recovery) Deliver(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Deliverer) (_ *vaultswap.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
