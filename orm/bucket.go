package orm

import (
	"fmt"
	"regexp"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// SeqID is a constant to use to get a default ID sequence.
const SeqID = "id"

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Indexed is implemented by the secondary indexes of a bucket.
type Indexed interface {
	vaultswap.QueryHandler

	// Update reflects a change of an object in the index.
	// prev == nil means insert, save == nil means delete.
	Update(db vaultswap.KVStore, prev Object, save Object) error

	// GetAt returns the primary keys indexed under the given value.
	GetAt(db vaultswap.ReadOnlyKVStore, index []byte) ([][]byte, error)
}

// Bucket is a generic holder that stores data as well as references to
// secondary indexes and sequences.
//
// This is a generic building block that should generally be embedded
// in a type-safe wrapper to ensure all data is the same type.
// Bucket is a prefixed subspace of the DB, proto defines the default
// Model, all elements of this type.
type Bucket struct {
	name    string
	prefix  []byte
	proto   Cloneable
	indexes map[string]Indexed
}

var _ vaultswap.QueryHandler = Bucket{}

// NewBucket creates a bucket to store data.
func NewBucket(name string, proto Cloneable) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket: %s", name))
	}

	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		proto:  proto,
	}
}

// Register registers this Bucket and all indexes. You can define a
// name here for queries, which is different than the bucket name used
// to prefix the data.
func (b Bucket) Register(name string, r vaultswap.QueryRouter) {
	if name == "" {
		name = b.name
	}
	root := "/" + name
	r.RegisterQuery(root, b)
	for name, idx := range b.indexes {
		r.RegisterQuery(root+"/"+name, idx)
	}
}

// Query handles queries from the QueryRouter.
func (b Bucket) Query(db vaultswap.ReadOnlyKVStore, mod string, data []byte) ([]vaultswap.Model, error) {
	switch mod {
	case vaultswap.KeyQueryMod:
		key := b.DBKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		// return nothing on miss
		if value == nil {
			return nil, nil
		}
		return []vaultswap.Model{{Key: key, Value: value}}, nil
	default:
		return nil, errors.Wrap(errors.ErrHuman, "not implemented: "+mod)
	}
}

// DBKey is the full key we store in the db, including prefix.
// We copy into a new array rather than use append, as we don't want
// consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get one element.
func (b Bucket) Get(db vaultswap.ReadOnlyKVStore, key []byte) (Object, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, nil
	}
	return b.Parse(key, bz)
}

// Parse takes a key and value data and reconstructs the data this
// Bucket would return.
//
// Used internally as part of Get. It is exposed mainly as a test
// helper, but can work for any code that wants to parse.
func (b Bucket) Parse(key, value []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(value); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	obj.SetKey(key)
	return obj, nil
}

// Save will write a model, it must be of the same type as proto.
func (b Bucket) Save(db vaultswap.KVStore, model Object) error {
	if err := model.Validate(); err != nil {
		return err
	}

	bz, err := model.Value().Marshal()
	if err != nil {
		return err
	}
	if err := b.updateIndexes(db, model.Key(), model); err != nil {
		return err
	}

	// now save this one
	return db.Set(b.DBKey(model.Key()), bz)
}

// Delete will remove the value at a key.
func (b Bucket) Delete(db vaultswap.KVStore, key []byte) error {
	if err := b.updateIndexes(db, key, nil); err != nil {
		return err
	}

	// now remove this one
	return db.Delete(b.DBKey(key))
}

func (b Bucket) updateIndexes(db vaultswap.KVStore, key []byte, model Object) error {
	if len(b.indexes) == 0 {
		return nil
	}
	prev, err := b.Get(db, key)
	if err != nil {
		return err
	}
	if prev == nil && model == nil {
		return nil
	}
	for _, idx := range b.indexes {
		if err := idx.Update(db, prev, model); err != nil {
			return err
		}
	}
	return nil
}

// Sequence returns a Sequence by name.
func (b Bucket) Sequence(name string) Sequence {
	return NewSequence(b.name, name)
}

// WithIndex returns a copy of this bucket with given index, panics if
// an index with that name is already registered.
//
// Designed to be chained.
func (b Bucket) WithIndex(name string, indexer Indexer, unique bool) Bucket {
	return b.WithMultiKeyIndex(name, asMultiKeyIndexer(indexer), unique)
}

// WithMultiKeyIndex returns a copy of this bucket with a multikey
// index attached.
func (b Bucket) WithMultiKeyIndex(name string, indexer MultiKeyIndexer, unique bool) Bucket {
	// no duplicate indexes! (panic on init)
	if _, ok := b.indexes[name]; ok {
		panic(fmt.Sprintf("index %s registered twice", name))
	}

	iname := b.name + "_" + name
	add := NewMultiKeyIndex(iname, indexer, unique, b.DBKey)
	indexes := make(map[string]Indexed, len(b.indexes)+1)
	for n, i := range b.indexes {
		indexes[n] = i
	}
	indexes[name] = add
	b.indexes = indexes
	return b
}

// GetIndexed queries the named index for the given key.
func (b Bucket) GetIndexed(db vaultswap.ReadOnlyKVStore, name string, key []byte) ([]Object, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "no such index: %s", name)
	}
	refs, err := idx.GetAt(db, key)
	if err != nil {
		return nil, err
	}
	return b.readRefs(db, refs)
}

// IndexKeys returns the primary keys the named index holds under the
// given value, without loading the objects.
func (b Bucket) IndexKeys(db vaultswap.ReadOnlyKVStore, name string, key []byte) ([][]byte, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "no such index: %s", name)
	}
	return idx.GetAt(db, key)
}

func (b Bucket) readRefs(db vaultswap.ReadOnlyKVStore, refs [][]byte) ([]Object, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	var err error
	objs := make([]Object, len(refs))
	for i, key := range refs {
		objs[i], err = b.Get(db, key)
		if err != nil {
			return nil, err
		}
	}
	return objs, nil
}
