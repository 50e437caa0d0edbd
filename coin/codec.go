package coin

import (
	"io"

	"github.com/gogo/protobuf/proto"

	"github.com/vaultswap/vaultswap/errors"
)

// Field tags of the Coin wire format. The encoding is standard
// protobuf so external tooling can decode persisted values.
const (
	coinFieldTicker = 1 // string
	coinFieldAmount = 2 // sint64
)

// Marshal encodes the coin into its binary representation.
func (c *Coin) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	if c.Ticker != "" {
		_ = buf.EncodeVarint(coinFieldTicker<<3 | proto.WireBytes)
		_ = buf.EncodeStringBytes(c.Ticker)
	}
	if c.Amount != 0 {
		_ = buf.EncodeVarint(coinFieldAmount<<3 | proto.WireVarint)
		_ = buf.EncodeZigzag64(uint64(c.Amount))
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the coin from its binary representation.
func (c *Coin) Unmarshal(raw []byte) error {
	*c = Coin{}
	buf := proto.NewBuffer(raw)
	for {
		key, err := buf.DecodeVarint()
		if err == io.ErrUnexpectedEOF {
			// End of the input.
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		switch field, wire := key>>3, key&0x7; field {
		case coinFieldTicker:
			if wire != proto.WireBytes {
				return errors.Wrap(errors.ErrInput, "ticker wire type")
			}
			s, err := buf.DecodeStringBytes()
			if err != nil {
				return errors.Wrap(errors.ErrInput, "ticker value")
			}
			c.Ticker = s
		case coinFieldAmount:
			if wire != proto.WireVarint {
				return errors.Wrap(errors.ErrInput, "amount wire type")
			}
			n, err := buf.DecodeZigzag64()
			if err != nil {
				return errors.Wrap(errors.ErrInput, "amount value")
			}
			c.Amount = int64(n)
		default:
			return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
		}
	}
}
