package cash

import (
	"io"

	"github.com/gogo/protobuf/proto"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
)

// Set keeps the balance of a wallet: a sorted set of coins, one per
// ticker.
type Set struct {
	Coins coin.Coins
}

// Validate requires that all coins are in alphabetical order and
// positive.
func (s *Set) Validate() error {
	return s.Coins.Validate()
}

// Copy makes a new set with the same coins.
func (s *Set) Copy() *Set {
	return &Set{
		Coins: s.Coins.Clone(),
	}
}

const setFieldCoins = 1

// Marshal encodes the set as a repeated embedded coin field.
func (s *Set) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	for _, c := range s.Coins {
		raw, err := c.Marshal()
		if err != nil {
			return nil, err
		}
		_ = buf.EncodeVarint(setFieldCoins<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(raw)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the set from its binary representation.
func (s *Set) Unmarshal(raw []byte) error {
	s.Coins = nil
	buf := proto.NewBuffer(raw)
	for {
		key, err := buf.DecodeVarint()
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		if key != setFieldCoins<<3|proto.WireBytes {
			return errors.Wrapf(errors.ErrInput, "unknown field %d", key>>3)
		}
		data, err := buf.DecodeRawBytes(true)
		if err != nil {
			return errors.Wrap(errors.ErrInput, "coin value")
		}
		var c coin.Coin
		if err := c.Unmarshal(data); err != nil {
			return err
		}
		s.Coins = append(s.Coins, &c)
	}
}

// SendMsg transfers coins between two wallets.
type SendMsg struct {
	Src    vaultswap.Address
	Dest   vaultswap.Address
	Amount *coin.Coin
	// Memo is a human readable note attached to the transfer.
	Memo string
	// Ref is an optional binary reference to an external document.
	Ref []byte
}

// SendMsg wire field tags.
const (
	sendFieldSrc    = 1
	sendFieldDest   = 2
	sendFieldAmount = 3
	sendFieldMemo   = 4
	sendFieldRef    = 5
)

// Marshal encodes the message into its binary representation.
func (m *SendMsg) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	if len(m.Src) > 0 {
		_ = buf.EncodeVarint(sendFieldSrc<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(m.Src)
	}
	if len(m.Dest) > 0 {
		_ = buf.EncodeVarint(sendFieldDest<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(m.Dest)
	}
	if m.Amount != nil {
		raw, err := m.Amount.Marshal()
		if err != nil {
			return nil, err
		}
		_ = buf.EncodeVarint(sendFieldAmount<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(raw)
	}
	if m.Memo != "" {
		_ = buf.EncodeVarint(sendFieldMemo<<3 | proto.WireBytes)
		_ = buf.EncodeStringBytes(m.Memo)
	}
	if len(m.Ref) > 0 {
		_ = buf.EncodeVarint(sendFieldRef<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(m.Ref)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the message from its binary representation.
func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	buf := proto.NewBuffer(raw)
	for {
		key, err := buf.DecodeVarint()
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		if key&0x7 != proto.WireBytes {
			return errors.Wrapf(errors.ErrInput, "wire type of field %d", key>>3)
		}
		data, err := buf.DecodeRawBytes(true)
		if err != nil {
			return errors.Wrap(errors.ErrInput, "field value")
		}
		switch key >> 3 {
		case sendFieldSrc:
			m.Src = data
		case sendFieldDest:
			m.Dest = data
		case sendFieldAmount:
			var c coin.Coin
			if err := c.Unmarshal(data); err != nil {
				return err
			}
			m.Amount = &c
		case sendFieldMemo:
			m.Memo = string(data)
		case sendFieldRef:
			m.Ref = data
		default:
			return errors.Wrapf(errors.ErrInput, "unknown field %d", key>>3)
		}
	}
}
