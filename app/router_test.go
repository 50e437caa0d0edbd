package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/store"
	"github.com/vaultswap/vaultswap/swaptest"
)

func TestRouterSuccess(t *testing.T) {
	r := NewRouter()
	h := &swaptest.Handler{}
	r.Handle(&swaptest.Msg{RoutePath: "test/good"}, h)

	tx := &swaptest.Tx{Msg: &swaptest.Msg{RoutePath: "test/good"}}
	db := store.MemStore()

	_, err := r.Check(context.Background(), db, tx)
	require.NoError(t, err)
	_, err = r.Deliver(context.Background(), db, tx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.CallCount())
}

func TestRouterNoHandler(t *testing.T) {
	r := NewRouter()
	tx := &swaptest.Tx{Msg: &swaptest.Msg{RoutePath: "test/nowhere"}}

	_, err := r.Check(context.Background(), store.MemStore(), tx)
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
	_, err = r.Deliver(context.Background(), store.MemStore(), tx)
	assert.True(t, errors.ErrNotFound.Is(err), "unexpected error: %+v", err)
}

func TestRouterBrokenTx(t *testing.T) {
	r := NewRouter()
	tx := &swaptest.Tx{Err: errors.ErrInput}

	_, err := r.Deliver(context.Background(), store.MemStore(), tx)
	assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)
}

func TestRouterDuplicatePanics(t *testing.T) {
	r := NewRouter()
	r.Handle(&swaptest.Msg{RoutePath: "test/dup"}, &swaptest.Handler{})
	assert.Panics(t, func() {
		r.Handle(&swaptest.Msg{RoutePath: "test/dup"}, &swaptest.Handler{})
	})
}

func TestRouterInvalidPathPanics(t *testing.T) {
	r := NewRouter()
	assert.Panics(t, func() {
		r.Handle(&swaptest.Msg{RoutePath: "no spaces allowed"}, &swaptest.Handler{})
	})
}
