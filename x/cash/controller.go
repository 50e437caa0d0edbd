package cash

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
)

// Controller is the functionality needed by other extensions that
// move funds. This is implemented by CashController and may be
// mocked out in tests.
type Controller interface {
	// MoveCoins removes funds from the source account and adds them to
	// the destination account. This operation is atomic.
	MoveCoins(store vaultswap.KVStore, src vaultswap.Address, dest vaultswap.Address, amount coin.Coin) error

	// Balance returns the coins possessed by the given account. An
	// account that was never funded returns ErrNotFound.
	Balance(store vaultswap.KVStore, src vaultswap.Address) (coin.Coins, error)

	// CloseEmptyAccount removes the account if it holds no value. A
	// missing account is not an error, a funded one is.
	CloseEmptyAccount(store vaultswap.KVStore, addr vaultswap.Address) error
}

// CashController is the standard Controller implementation over the
// wallet bucket.
type CashController struct {
	bucket Bucket
}

var _ Controller = CashController{}

// NewController returns a controller using the given bucket to store
// the data.
func NewController(bucket Bucket) CashController {
	return CashController{bucket: bucket}
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient coins, it fails.
func (c CashController) MoveCoins(store vaultswap.KVStore, src vaultswap.Address, dest vaultswap.Address, amount coin.Coin) error {
	if amount.IsZero() {
		return errors.Wrap(errors.ErrAmount, "zero transfer")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "negative transfer: %#v", &amount)
	}

	sender, err := c.bucket.Get(store, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	if !sender.Coins().Contains(amount) {
		return errors.Wrap(errors.ErrInsufficientAmount, "funds")
	}

	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	if err := sender.Subtract(amount); err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}

	// save them and return
	if err := c.bucket.Save(store, sender); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}

// Balance returns the amount of funds stored under the given account
// address.
func (c CashController) Balance(store vaultswap.KVStore, src vaultswap.Address) (coin.Coins, error) {
	wallet, err := c.bucket.Get(store, src)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get wallet")
	}
	if wallet == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no wallet %s", src)
	}
	return wallet.Coins(), nil
}

// CloseEmptyAccount removes the wallet from the store once it holds no
// value, so emptied vaults do not accumulate.
func (c CashController) CloseEmptyAccount(store vaultswap.KVStore, addr vaultswap.Address) error {
	wallet, err := c.bucket.Get(store, addr)
	if err != nil {
		return err
	}
	if wallet == nil {
		return nil
	}
	if !wallet.IsEmpty() {
		return errors.Wrapf(errors.ErrState, "account %s is not empty", addr)
	}
	return c.bucket.Delete(store, addr)
}

// IssueCoins attempts to add the given amount of coins to the
// destination address. Used to seed accounts on initialization.
func (c CashController) IssueCoins(store vaultswap.KVStore, dest vaultswap.Address, amount coin.Coin) error {
	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}
