package escrow

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
)

const (
	pathCreateFeeConfigMsg = "escrow/fee_config"
	pathUpdateSignerMsg    = "escrow/update_signer"
	pathCreateMsg          = "escrow/create"
	pathCancelMsg          = "escrow/cancel"
	pathExchangeMsg        = "escrow/exchange"

	maxMemoSize int = 128
)

var _ vaultswap.Msg = (*CreateFeeConfigMsg)(nil)
var _ vaultswap.Msg = (*UpdateSignerMsg)(nil)
var _ vaultswap.Msg = (*CreateMsg)(nil)
var _ vaultswap.Msg = (*CancelMsg)(nil)
var _ vaultswap.Msg = (*ExchangeMsg)(nil)

// Path fulfills vaultswap.Msg interface to allow routing.
func (CreateFeeConfigMsg) Path() string {
	return pathCreateFeeConfigMsg
}

// Path fulfills vaultswap.Msg interface to allow routing.
func (UpdateSignerMsg) Path() string {
	return pathUpdateSignerMsg
}

// Path fulfills vaultswap.Msg interface to allow routing.
func (CreateMsg) Path() string {
	return pathCreateMsg
}

// Path fulfills vaultswap.Msg interface to allow routing.
func (CancelMsg) Path() string {
	return pathCancelMsg
}

// Path fulfills vaultswap.Msg interface to allow routing.
func (ExchangeMsg) Path() string {
	return pathExchangeMsg
}

// Validate makes sure that this is sensible.
func (m *CreateFeeConfigMsg) Validate() error {
	if !coin.IsCC(m.FeeTicker) {
		return errors.Wrapf(errors.ErrCurrency, "fee ticker: %q", m.FeeTicker)
	}
	if err := m.Collector.Validate(); err != nil {
		return errors.Wrap(err, "collector")
	}
	return nil
}

// Validate makes sure that this is sensible.
func (m *UpdateSignerMsg) Validate() error {
	if m.Pubkey == nil {
		return errors.Wrap(errors.ErrEmpty, "pubkey")
	}
	return m.Pubkey.Validate()
}

// Validate makes sure that this is sensible. Both swap amounts must be
// positive, fee amounts may be zero but never negative.
func (m *CreateMsg) Validate() error {
	if m.PrincipalAmount <= 0 {
		return errors.Wrapf(ErrInvalidInitializerAmount, "%d", m.PrincipalAmount)
	}
	if m.CounterAmount <= 0 {
		return errors.Wrapf(ErrInvalidTakerAmount, "%d", m.CounterAmount)
	}
	if m.FeeInitializer < 0 {
		return errors.Wrapf(errors.ErrAmount, "initializer fee: %d", m.FeeInitializer)
	}
	if m.FeeTaker < 0 {
		return errors.Wrapf(errors.ErrAmount, "taker fee: %d", m.FeeTaker)
	}
	if !coin.IsCC(m.PrincipalTicker) {
		return errors.Wrapf(errors.ErrCurrency, "principal ticker: %q", m.PrincipalTicker)
	}
	if !coin.IsCC(m.CounterTicker) {
		return errors.Wrapf(errors.ErrCurrency, "counter ticker: %q", m.CounterTicker)
	}
	if m.PrincipalTicker == m.CounterTicker {
		return errors.Wrap(errors.ErrCurrency, "same asset on both sides")
	}
	if m.FeeInitializer > 0 || m.FeeTaker > 0 {
		if !coin.IsCC(m.FeeTicker) {
			return errors.Wrapf(errors.ErrCurrency, "fee ticker: %q", m.FeeTicker)
		}
	}
	if m.FeeInitializer > 0 {
		if err := m.FeeAccount.Validate(); err != nil {
			return errors.Wrap(err, "fee account")
		}
	}
	if err := m.DepositAccount.Validate(); err != nil {
		return errors.Wrap(err, "deposit account")
	}
	if err := m.ReceiveAccount.Validate(); err != nil {
		return errors.Wrap(err, "receive account")
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo %s", m.Memo)
	}
	// optional fields
	return validateAddresses(m.Source, m.CancelAccount)
}

// Validate makes sure that this is sensible.
func (m *CancelMsg) Validate() error {
	return validateEscrowID(m.EscrowId)
}

// Validate makes sure that this is sensible.
func (m *ExchangeMsg) Validate() error {
	if err := validateEscrowID(m.EscrowId); err != nil {
		return err
	}
	if err := m.DepositAccount.Validate(); err != nil {
		return errors.Wrap(err, "deposit account")
	}
	if err := m.ReceiveAccount.Validate(); err != nil {
		return errors.Wrap(err, "receive account")
	}
	if m.Authorization != nil {
		if err := m.Authorization.Validate(); err != nil {
			return errors.Wrap(err, "authorization")
		}
	}
	// FeeAccount is only required when the taker fee is non-zero,
	// which is known once the record is loaded.
	return validateAddresses(m.FeeAccount)
}

// Validate makes sure that this is sensible.
func (a *FeeAuthorization) Validate() error {
	if a.FeeInitializer < 0 || a.FeeTaker < 0 {
		return errors.Wrap(errors.ErrAmount, "negative fee")
	}
	if a.Signature == nil {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	return validateAddresses(a.InitializerCollector, a.TakerCollector)
}

// validateAddresses returns an error if any address doesn't validate.
// Nil is considered valid here.
func validateAddresses(addrs ...vaultswap.Address) error {
	for _, a := range addrs {
		if a != nil {
			if err := a.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEscrowID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "escrow id: %X", id)
	}
	return nil
}
