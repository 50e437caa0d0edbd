package vaultswap

import (
	"context"
	"regexp"
	"time"

	"github.com/tendermint/tendermint/libs/log"
	"github.com/vaultswap/vaultswap/errors"
)

// Context is just the standard context, used to carry information
// about the current execution between app, middleware, and handlers.
//
// There should exist two functions for every XYZ of type T
// that we want to support in Context:
//
//   WithXYZ(Context, T) Context
//   XYZ(Context) (val T, err error)
type Context = context.Context

type contextKey int

const (
	contextKeyHeight contextKey = iota
	contextKeyTime
	contextKeyLogger
	contextKeyChainID
)

// DefaultLogger is used for all contexts that have not
// set anything themselves
var DefaultLogger = log.NewNopLogger()

// WithHeight sets the execution height for the current run.
func WithHeight(ctx Context, height int64) Context {
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current execution height if set.
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the execution time for the current run.
// Everything within one dispatch observes the same time.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyTime, t)
}

// BlockTime returns the execution time if set.
func BlockTime(ctx Context) (time.Time, error) {
	val, ok := ctx.Value(contextKeyTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	return val, nil
}

// IsExpired returns true if given time is in the past as compared to
// the current execution time. This is used by the garbage collection
// of closed escrow records.
// This function panics if the block time is not present in the context.
func IsExpired(ctx Context, t UnixTime) bool {
	now, err := BlockTime(ctx)
	if err != nil {
		panic(err)
	}
	return t <= AsUnixTime(now)
}

// validChainID is the RegExp to ensure valid chain IDs
var validChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`)

// IsValidChainID checks if the chain id is allowed
func IsValidChainID(chainID string) bool {
	return validChainID.MatchString(chainID)
}

// WithChainID sets the chain id for the lifetime of the engine. It
// panics on an invalid id to expose the configuration error early.
func WithChainID(ctx Context, chainID string) Context {
	if !IsValidChainID(chainID) {
		panic("invalid chain id: " + chainID)
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the chain id stored in the context, or an empty
// string if not present.
func GetChainID(ctx Context) string {
	val, _ := ctx.Value(contextKeyChainID).(string)
	return val
}

// WithLogger sets the logger for this context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger stored in the context,
// or DefaultLogger if none was set.
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}
