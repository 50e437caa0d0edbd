package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/store"
	"github.com/vaultswap/vaultswap/swaptest"
)

// markDecorator appends its name to the result log to expose the
// execution order.
type markDecorator struct {
	name string
}

func (d markDecorator) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Checker) (*vaultswap.CheckResult, error) {
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Log = d.name + res.Log
	return res, nil
}

func (d markDecorator) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx, next vaultswap.Deliverer) (*vaultswap.DeliverResult, error) {
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Log = d.name + res.Log
	return res, nil
}

func TestChainDecoratorsOrder(t *testing.T) {
	h := &swaptest.Handler{
		CheckResult:   vaultswap.CheckResult{Log: "h"},
		DeliverResult: vaultswap.DeliverResult{Log: "h"},
	}
	stack := ChainDecorators(
		markDecorator{"a"},
		nil, // ignored
		markDecorator{"b"},
	).Chain(
		markDecorator{"c"},
	).WithHandler(h)

	tx := &swaptest.Tx{Msg: &swaptest.Msg{RoutePath: "test/any"}}

	cres, err := stack.Check(context.Background(), store.MemStore(), tx)
	require.NoError(t, err)
	// the first decorator of the chain wraps the outermost
	assert.Equal(t, "abch", cres.Log)

	dres, err := stack.Deliver(context.Background(), store.MemStore(), tx)
	require.NoError(t, err)
	assert.Equal(t, "abch", dres.Log)
	assert.Equal(t, 2, h.CallCount())
}

func TestChainNilDecorators(t *testing.T) {
	h := &swaptest.Handler{}
	var nilPtr *markDecorator
	stack := ChainDecorators(nil, nilPtr).WithHandler(h)

	tx := &swaptest.Tx{Msg: &swaptest.Msg{RoutePath: "test/any"}}
	_, err := stack.Deliver(context.Background(), store.MemStore(), tx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())
}
