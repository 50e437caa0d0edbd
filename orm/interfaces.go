/*
Package orm provides an easy to use db wrapper.

It breaks the state space into prefixed sections called Buckets. Each
bucket contains only one type of object, has a primary key, and may
possess secondary indexes for alternate lookups.
*/
package orm

import (
	"github.com/vaultswap/vaultswap"
)

// Object is what is stored in the bucket.
// Key is joined with the bucket prefix to form the full db key.
// Value is the data stored.
type Object interface {
	Keyed
	Cloneable

	// Validate returns an error if the object is not in a valid state
	// to save to the db (eg. field missing, out of range, ...)
	Validate() error

	Value() vaultswap.Persistent
}

// Reader defines an interface that allows reading objects from the db.
type Reader interface {
	Get(db vaultswap.ReadOnlyKVStore, key []byte) (Object, error)
}

// Keyed is anything that can identify itself.
type Keyed interface {
	Key() []byte
	SetKey([]byte)
}

// Cloneable will create a new object that can be loaded into.
type Cloneable interface {
	Clone() Object
}

// CloneableData is an intelligent Value that can be embedded in a
// simple object to handle much of the details.
type CloneableData interface {
	Validate() error
	vaultswap.Persistent
	Copy() CloneableData
}

// Model is implemented by any entity that can be stored using
// ModelBucket.
//
// This is the same interface as CloneableData. Using the right type
// name provides an easier to read API.
type Model interface {
	vaultswap.Persistent
	Validate() error
	Copy() CloneableData
}
