package orm

import (
	"encoding/binary"

	"github.com/vaultswap/vaultswap/errors"
)

// counter is a minimal model used across the package tests.
type counter struct {
	Count int64
}

var _ Model = (*counter)(nil)

func (c *counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrAmount, "negative counter")
	}
	return nil
}

func (c *counter) Copy() CloneableData {
	return &counter{Count: c.Count}
}

func (c *counter) Marshal() ([]byte, error) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(c.Count))
	return bz, nil
}

func (c *counter) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrap(errors.ErrInput, "invalid counter data")
	}
	c.Count = int64(binary.BigEndian.Uint64(raw))
	return nil
}

func newCounterBucket() Bucket {
	return NewBucket("cntr", NewSimpleObj(nil, new(counter)))
}

// evenIndexer indexes all even counters under one value.
func evenIndexer(obj Object) ([]byte, error) {
	if obj == nil {
		return nil, nil
	}
	c, ok := obj.Value().(*counter)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "not a counter")
	}
	if c.Count%2 == 0 {
		return []byte("even"), nil
	}
	return []byte("odd"), nil
}
