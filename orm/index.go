package orm

import (
	"bytes"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

const idxPrefix = "_i."

// Indexer calculates the secondary index key for a given object.
type Indexer func(Object) ([]byte, error)

// MultiKeyIndexer calculates the secondary index keys for a given
// object.
type MultiKeyIndexer func(Object) ([][]byte, error)

// index represents a secondary index on some data.
// It is indexed by an arbitrary key returned by Indexer. The value is
// one primary key (unique), or a MultiRef of primary keys (!unique).
// All indexed entities for one value are stored as a set under a
// single db key, so this implementation should only be used for small
// sized index collections.
type index struct {
	name   string
	id     []byte
	unique bool
	index  MultiKeyIndexer
	refKey func([]byte) []byte
}

var _ Indexed = index{}

// NewMultiKeyIndex constructs an index with a multikey indexer.
// Indexer calculates the index value(s) for an object, unique enforces
// a unique constraint on the index, refKey calculates the absolute
// dbkey for a ref.
func NewMultiKeyIndex(name string, indexer MultiKeyIndexer, unique bool, refKey func([]byte) []byte) Indexed {
	return index{
		name:   name,
		id:     append([]byte(idxPrefix), []byte(name+":")...),
		index:  indexer,
		unique: unique,
		refKey: refKey,
	}
}

func asMultiKeyIndexer(indexer Indexer) MultiKeyIndexer {
	return func(obj Object) ([][]byte, error) {
		key, err := indexer(obj)
		switch {
		case err != nil:
			return nil, err
		case key == nil:
			return nil, nil
		}
		return [][]byte{key}, nil
	}
}

// indexKey is the full key we store in the db, including prefix.
// We copy into a new array rather than use append, as we don't want
// consecutive calls to overwrite the same byte array.
func (i index) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update handles updating the reference to the object in the secondary
// index.
//
// prev == nil means insert
// save == nil means delete
// both == nil is an error
// if both != nil and prev.Key() != save.Key() this is an error
//
// Otherwise, it will check indexer(prev) and indexer(save) and make
// sure the key is now stored in the right location.
func (i index) Update(db vaultswap.KVStore, prev Object, save Object) error {
	type s struct{ a, b bool }
	sw := s{prev == nil, save == nil}
	switch sw {
	case s{true, true}:
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	case s{true, false}:
		keys, err := i.index(save)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := i.insert(db, key, save.Key()); err != nil {
				return err
			}
		}
		return nil
	case s{false, true}:
		keys, err := i.index(prev)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := i.remove(db, key, prev.Key()); err != nil {
				return err
			}
		}
		return nil
	case s{false, false}:
		return i.move(db, prev, save)
	}
	return errors.Wrap(errors.ErrHuman, "you have violated the rules of boolean logic")
}

// GetAt returns a list of all primary keys that were indexed under the
// given value, may be nil when empty.
func (i index) GetAt(db vaultswap.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	val, err := db.Get(i.indexKey(value))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	if i.unique {
		return [][]byte{val}, nil
	}
	var data MultiRef
	if err := data.Unmarshal(val); err != nil {
		return nil, err
	}
	return data.Refs, nil
}

// Query handles queries from the QueryRouter.
func (i index) Query(db vaultswap.ReadOnlyKVStore, mod string, data []byte) ([]vaultswap.Model, error) {
	switch mod {
	case vaultswap.KeyQueryMod:
		refs, err := i.GetAt(db, data)
		if err != nil {
			return nil, err
		}
		return i.loadRefs(db, refs)
	default:
		return nil, errors.Wrap(errors.ErrHuman, "not implemented: "+mod)
	}
}

func (i index) loadRefs(db vaultswap.ReadOnlyKVStore, refs [][]byte) ([]vaultswap.Model, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	res := make([]vaultswap.Model, len(refs))
	for j, ref := range refs {
		key := i.refKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		res[j] = vaultswap.Model{
			Key:   key,
			Value: value,
		}
	}
	return res, nil
}

func (i index) move(db vaultswap.KVStore, prev Object, save Object) error {
	// if the primary key is not equal, we have a problem
	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrImmutable, "cannot modify the primary key of an object")
	}

	oldKeys, err := i.index(prev)
	if err != nil {
		return err
	}
	newKeys, err := i.index(save)
	if err != nil {
		return err
	}
	keysToAdd := subtract(newKeys, oldKeys)
	keysToRemove := subtract(oldKeys, newKeys)

	// check unique constraints first
	if i.unique {
		for _, newKey := range keysToAdd {
			val, err := db.Get(i.indexKey(newKey))
			if err != nil {
				return err
			}
			if val != nil {
				return errors.Wrap(errors.ErrDuplicate, i.name)
			}
		}
	}

	// remove unused keys
	for _, oldKey := range keysToRemove {
		if err := i.remove(db, oldKey, prev.Key()); err != nil {
			return err
		}
	}

	// add new keys
	for _, newKey := range keysToAdd {
		if err := i.insert(db, newKey, prev.Key()); err != nil {
			return err
		}
	}
	return nil
}

// subtract returns all elements of minuend that are not in subtrahend.
func subtract(minuend [][]byte, subtrahend [][]byte) [][]byte {
	if minuend == nil {
		return nil
	}
	r := make([][]byte, 0)
OUTER:
	for _, m := range minuend {
		for _, s := range subtrahend {
			if bytes.Equal(m, s) {
				continue OUTER
			}
		}
		r = append(r, m)
	}
	return r
}

func (i index) remove(db vaultswap.KVStore, value []byte, pk []byte) error {
	// don't deal with empty keys
	if len(value) == 0 {
		return nil
	}

	key := i.indexKey(value)
	cur, err := db.Get(key)
	if err != nil {
		return err
	}
	if cur == nil {
		return errors.Wrap(errors.ErrNotFound, "cannot remove index from nothing")
	}
	if i.unique {
		// if something else was here, don't delete
		if !bytes.Equal(cur, pk) {
			return errors.Wrap(errors.ErrNotFound, "cannot remove index from invalid object")
		}
		return db.Delete(key)
	}

	// otherwise, remove one from a list....
	var data MultiRef
	if err := data.Unmarshal(cur); err != nil {
		return err
	}
	if err := data.Remove(pk); err != nil {
		return err
	}
	// nothing left, delete this key
	if data.Size() == 0 {
		return db.Delete(key)
	}
	// others left, just update state
	save, err := data.Marshal()
	if err != nil {
		return err
	}
	return db.Set(key, save)
}

func (i index) insert(db vaultswap.KVStore, value []byte, pk []byte) error {
	// don't deal with empty keys
	if len(value) == 0 {
		return nil
	}

	key := i.indexKey(value)
	cur, err := db.Get(key)
	if err != nil {
		return err
	}

	if i.unique {
		if cur != nil {
			return errors.Wrap(errors.ErrDuplicate, i.name)
		}
		return db.Set(key, pk)
	}

	// otherwise, add one to a list....
	var data MultiRef
	if cur != nil {
		if err := data.Unmarshal(cur); err != nil {
			return err
		}
	}
	if err := data.Add(pk); err != nil {
		return err
	}
	save, err := data.Marshal()
	if err != nil {
		return err
	}
	return db.Set(key, save)
}
