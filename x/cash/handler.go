package cash

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r vaultswap.Registry, auth x.Authenticator, control Controller) {
	r.Handle(&SendMsg{}, NewSendHandler(auth, control))
}

// RegisterQuery will register this bucket as "/wallets".
func RegisterQuery(qr vaultswap.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

// SendHandler will handle sending coins.
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ vaultswap.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg.
func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
	}
}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h SendHandler) Check(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	var msg SendMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	// Make sure we have permission from the source.
	if !h.auth.HasAddress(ctx, msg.Src) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}

	return &vaultswap.CheckResult{GasAllocated: sendTxCost}, nil
}

// Deliver moves the tokens from source to destination if all
// preconditions are met.
func (h SendHandler) Deliver(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	var msg SendMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	// Make sure we have permission from the source.
	if !h.auth.HasAddress(ctx, msg.Src) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}

	if err := h.control.MoveCoins(store, msg.Src, msg.Dest, *msg.Amount); err != nil {
		return nil, err
	}
	return &vaultswap.DeliverResult{}, nil
}
