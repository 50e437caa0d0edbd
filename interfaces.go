package vaultswap

import (
	"encoding/json"

	"github.com/vaultswap/vaultswap/errors"
)

// Marshaller is anything that can be represented in binary
//
// Marshall may validate the data before serializing it and
// unless you previously validated the struct,
// errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
//
// As with Marshaller, this may do internal validation on the data
// and errors should be expected.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Msg is a request to make a state transition. It is just the
// arguments, and must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Return the message path.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds to them.
	//
	// Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate makes sure the basic rules are enforced upon the
	// input data before any state is touched.
	Validate() error
}

// Tx represents the data sent from the caller to the engine.
// It includes the actual message, along with anything needed to pass
// through middleware.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// TxDecoder can parse raw bytes into a Tx. This is the entry point of
// every operation handed to the dispatcher.
type TxDecoder func(txBytes []byte) (Tx, error)

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg extracts the message from the transaction, verifies it
// against the given destination type and validates it. This is the
// first call of almost every handler.
func LoadMsg(tx Tx, dest Msg) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "get msg")
	}
	if msg.Path() != dest.Path() {
		return errors.Wrapf(errors.ErrType, "want %q, got %q", dest.Path(), msg.Path())
	}
	raw, err := msg.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal msg")
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "unmarshal into %T", dest)
	}
	return dest.Validate()
}

// Handler is a core engine that can process a few specific messages.
// This could represent "create an escrow", or "settle a swap".
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a
// transaction. It is its own interface to allow better type controls
// in the next arguments in Decorator.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication, or fee-handling, to many Handlers
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Ticker is a method that is called on a regular schedule, outside of
// any transaction. It can be used to perform periodic or delayed
// tasks, like purging long-closed escrow records.
type Ticker interface {
	Tick(ctx Context, store CacheableKVStore) error
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	// Handle assigns given handler to handle processing of every
	// message of provided type.
	Handle(msg Msg, h Handler)
}

// Options are the app initialization options.
// Each extension can look up its key and parse the raw JSON as desired.
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}
