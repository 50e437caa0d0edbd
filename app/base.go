package app

import (
	"time"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// BaseApp adds DeliverTx, CheckTx, and BeginBlock dispatch to the
// storage and query functionality of StoreApp.
type BaseApp struct {
	*StoreApp
	decoder vaultswap.TxDecoder
	handler vaultswap.Handler
	ticker  vaultswap.Ticker
}

// NewBaseApp constructs the dispatching application. The ticker may be
// nil when no begin-block housekeeping is wanted.
func NewBaseApp(
	store *StoreApp,
	decoder vaultswap.TxDecoder,
	handler vaultswap.Handler,
	ticker vaultswap.Ticker,
) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		ticker:   ticker,
	}
}

// DeliverTx dispatches to the handler against the deliver state.
func (b BaseApp) DeliverTx(txBytes []byte) (*vaultswap.DeliverResult, error) {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return nil, err
	}

	ctx := vaultswap.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", vaultswap.GetPath(tx))

	return b.handler.Deliver(ctx, b.DeliverStore(), tx)
}

// CheckTx dispatches to the handler against the check state.
func (b BaseApp) CheckTx(txBytes []byte) (*vaultswap.CheckResult, error) {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return nil, err
	}

	ctx := vaultswap.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", vaultswap.GetPath(tx))

	return b.handler.Check(ctx, b.CheckStore(), tx)
}

// BeginBlock sets up the block context and runs the ticker. A ticker
// failure is logged but does not stop the block, housekeeping is
// retried on the next one.
func (b BaseApp) BeginBlock(height int64, blockTime time.Time) {
	b.StoreApp.BeginBlock(height, blockTime)

	if b.ticker != nil {
		ctx := vaultswap.WithLogInfo(b.BlockContext(), "call", "begin_block")
		if err := b.ticker.Tick(ctx, b.DeliverStore()); err != nil {
			vaultswap.GetLogger(ctx).Error("ticker failed", "err", err)
		}
	}
}

// loadTx calls the decoder, and captures any panics
func (b BaseApp) loadTx(txBytes []byte) (tx vaultswap.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}
