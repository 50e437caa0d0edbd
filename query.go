package vaultswap

import "fmt"

// Query modifiers. An empty modifier means an exact key lookup.
const (
	KeyQueryMod = ""
)

// QueryHandler is anything that can process read-only queries against
// the committed state.
type QueryHandler interface {
	// Query returns a list of key-value pairs for the given lookup.
	// An unknown key returns an empty result, not an error.
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRouter allows us to register many query handlers to be
// selected by their path.
type QueryRouter struct {
	routes map[string]QueryHandler
}

// NewQueryRouter initializes a QueryRouter with no routes.
func NewQueryRouter() QueryRouter {
	return QueryRouter{
		routes: make(map[string]QueryHandler, 10),
	}
}

// RegisterQuery adds a handler under the given path. Panics on
// duplicate registration to expose the coding error on start up.
func (r QueryRouter) RegisterQuery(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Handler returns the registered handler for the path, or nil.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}
