package orm

import (
	"reflect"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// ModelBucket is implemented by buckets that operate on Models rather
// than Objects.
type ModelBucket interface {
	// One queries the database for a single model instance. Lookup is
	// done by the primary index key. Result is loaded into the given
	// destination model.
	// This method returns ErrNotFound if the entity does not exist in
	// the database.
	// If the given model type cannot be used to contain the stored
	// entity, ErrType is returned.
	One(db vaultswap.ReadOnlyKVStore, key []byte, dest Model) error

	// Put saves the given model in the database under the given key.
	Put(db vaultswap.KVStore, key []byte, m Model) error

	// Delete removes an entity with the given primary key from the
	// database. It returns ErrNotFound if an entity with the given key
	// does not exist.
	Delete(db vaultswap.KVStore, key []byte) error

	// Has returns nil if an entity with the given primary key exists,
	// ErrNotFound otherwise.
	Has(db vaultswap.ReadOnlyKVStore, key []byte) error

	// IndexKeys returns the primary keys the named index holds under
	// the given value.
	IndexKeys(db vaultswap.ReadOnlyKVStore, indexName string, key []byte) ([][]byte, error)

	// Register registers this bucket and all its indexes for queries.
	Register(name string, r vaultswap.QueryRouter)
}

// NewModelBucket returns a ModelBucket instance. This implementation
// relies on a bucket instance.
func NewModelBucket(b Bucket) ModelBucket {
	return &modelBucket{
		b: b,
	}
}

type modelBucket struct {
	b Bucket
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) One(db vaultswap.ReadOnlyKVStore, key []byte, dest Model) error {
	obj, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if obj == nil || obj.Value() == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	res := obj.Value()

	if !reflect.TypeOf(res).AssignableTo(reflect.TypeOf(dest)) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %T", res, dest)
	}

	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(res).Elem())
	return nil
}

func (mb *modelBucket) Put(db vaultswap.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	data, ok := m.(CloneableData)
	if !ok {
		return errors.Wrapf(errors.ErrType, "%T is not cloneable", m)
	}
	obj := NewSimpleObj(key, data)
	if err := mb.b.Save(db, obj); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db vaultswap.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	return mb.b.Delete(db, key)
}

func (mb *modelBucket) Has(db vaultswap.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		// With an empty key, none of the manipulation can work.
		return errors.Wrap(errors.ErrNotFound, "empty key")
	}
	ok, err := db.Has(mb.b.DBKey(key))
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "no such key")
	}
	return nil
}

func (mb *modelBucket) IndexKeys(db vaultswap.ReadOnlyKVStore, indexName string, key []byte) ([][]byte, error) {
	return mb.b.IndexKeys(db, indexName, key)
}

func (mb *modelBucket) Register(name string, r vaultswap.QueryRouter) {
	mb.b.Register(name, r)
}
