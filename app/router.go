package app

import (
	"regexp"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// isPath is the RegExp to ensure the routes make sense.
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different paths and
// then direct each message to the proper handler.
type Router struct {
	handlers map[string]vaultswap.Handler
}

var _ vaultswap.Registry = (*Router)(nil)
var _ vaultswap.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]vaultswap.Handler, 10),
	}
}

// Handle implements the Registry interface. It panics on a malformed
// path or a double registration to expose the coding error on start up.
func (r *Router) Handle(m vaultswap.Msg, h vaultswap.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic("invalid path: " + path)
	}
	if _, ok := r.handlers[path]; ok {
		panic("re-registering route: " + path)
	}
	r.handlers[path] = h
}

// handler returns the registered Handler for this path. If no path is
// found, it returns a noSuchPathHandler that errors on all operations.
func (r *Router) handler(m vaultswap.Msg) vaultswap.Handler {
	path := m.Path()
	if h, ok := r.handlers[path]; ok {
		return h
	}
	return noSuchPathHandler{path}
}

// Check dispatches to the proper handler based on the message path.
func (r *Router) Check(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on the message path.
func (r *Router) Deliver(ctx vaultswap.Context, store vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Deliver(ctx, store, tx)
}

type noSuchPathHandler struct {
	path string
}

var _ vaultswap.Handler = noSuchPathHandler{}

func (h noSuchPathHandler) Check(vaultswap.Context, vaultswap.KVStore, vaultswap.Tx) (*vaultswap.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}

func (h noSuchPathHandler) Deliver(vaultswap.Context, vaultswap.KVStore, vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}
