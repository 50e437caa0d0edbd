package cash

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
)

var _ vaultswap.Msg = (*SendMsg)(nil)

const (
	sendTxCost int64 = 100

	maxMemoSize int = 128
	maxRefSize  int = 64
)

// Path returns the routing path for this message.
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible.
func (m *SendMsg) Validate() error {
	if coin.IsEmpty(m.Amount) || !m.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive send: %#v", m.Amount)
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if err := m.Src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := m.Dest.Validate(); err != nil {
		return errors.Wrap(err, "dest")
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrap(errors.ErrInput, "memo too long")
	}
	if len(m.Ref) > maxRefSize {
		return errors.Wrap(errors.ErrInput, "ref too long")
	}
	return nil
}
