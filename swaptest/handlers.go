package swaptest

import "github.com/vaultswap/vaultswap"

// Handler is a mock implementation of the vaultswap.Handler interface.
type Handler struct {
	checkCall   int
	CheckResult vaultswap.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult vaultswap.DeliverResult
	DeliverErr    error
}

var _ vaultswap.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
