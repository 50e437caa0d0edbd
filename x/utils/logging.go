package utils

import (
	"time"

	"github.com/vaultswap/vaultswap"
)

// Logging is a decorator to log messages as they pass through.
type Logging struct{}

var _ vaultswap.Decorator = Logging{}

// NewLogging creates a Logging decorator.
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> info, success -> debug.
func (r Logging) Check(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Checker) (*vaultswap.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info.
func (r Logging) Deliver(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Deliverer) (*vaultswap.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, resLog, err, false)
	return res, err
}

// logDuration writes information about the time and result to the
// logger.
func logDuration(ctx vaultswap.Context, start time.Time, msg string, err error, lowPrio bool) {
	delta := time.Since(start)
	logger := vaultswap.GetLogger(ctx).With("duration", delta/time.Microsecond)

	if err != nil {
		logger = logger.With("err", err)
		logger.Error(msg)
		return
	}

	// Although the message can be empty, we still want to emit a log
	// entry because it contains other relevant information.
	if lowPrio {
		logger.Debug(msg)
	} else {
		logger.Info(msg)
	}
}
