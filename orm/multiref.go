package orm

import (
	"bytes"
	"io"
	"sort"

	"github.com/gogo/protobuf/proto"

	"github.com/vaultswap/vaultswap/errors"
)

// MultiRef is a set of primary keys referenced by a non-unique index
// entry. The refs are kept sorted and unique.
type MultiRef struct {
	Refs [][]byte
}

// multiRefFieldRefs is the wire tag of the repeated refs field.
const multiRefFieldRefs = 1

// NewMultiRef creates a MultiRef with any number of initial references.
func NewMultiRef(refs ...[]byte) (*MultiRef, error) {
	m := new(MultiRef)
	for _, r := range refs {
		if err := m.Add(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add inserts this reference in the multiref, sorted by order.
// Returns an error if it is already there.
func (m *MultiRef) Add(ref []byte) error {
	i, found := m.findRef(ref)
	if found {
		return errors.Wrap(errors.ErrDuplicate, "cannot add a ref twice")
	}
	// append to end
	if i == len(m.Refs) {
		m.Refs = append(m.Refs, ref)
		return nil
	}
	// or insert in the middle
	m.Refs = append(m.Refs, nil)
	copy(m.Refs[i+1:], m.Refs[i:])
	m.Refs[i] = ref
	return nil
}

// Remove removes this reference from the multiref.
// Returns an error if it was not present.
func (m *MultiRef) Remove(ref []byte) error {
	i, found := m.findRef(ref)
	if !found {
		return errors.Wrap(errors.ErrNotFound, "cannot remove a ref that is not present")
	}
	m.Refs = append(m.Refs[:i], m.Refs[i+1:]...)
	return nil
}

// Size returns the number of references held.
func (m *MultiRef) Size() int {
	return len(m.Refs)
}

// findRef returns the position of the ref, or the insert position if
// absent.
func (m *MultiRef) findRef(ref []byte) (int, bool) {
	i := sort.Search(len(m.Refs), func(i int) bool {
		return bytes.Compare(m.Refs[i], ref) >= 0
	})
	found := i < len(m.Refs) && bytes.Equal(m.Refs[i], ref)
	return i, found
}

// Marshal encodes the refs as a repeated bytes field.
func (m *MultiRef) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	for _, ref := range m.Refs {
		_ = buf.EncodeVarint(multiRefFieldRefs<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(ref)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the refs from their binary representation.
func (m *MultiRef) Unmarshal(raw []byte) error {
	m.Refs = nil
	buf := proto.NewBuffer(raw)
	for {
		key, err := buf.DecodeVarint()
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		if key != multiRefFieldRefs<<3|proto.WireBytes {
			return errors.Wrapf(errors.ErrInput, "unknown field %d", key>>3)
		}
		ref, err := buf.DecodeRawBytes(true)
		if err != nil {
			return errors.Wrap(errors.ErrInput, "ref value")
		}
		m.Refs = append(m.Refs, ref)
	}
}
