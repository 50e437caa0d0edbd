package escrow

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/x/cash"
)

// Controller runs the asset movement of the swap engine on top of the
// cash ledger. All balance checks happen before the first transfer, so
// a failing operation leaves no partial state behind even without the
// dispatcher's cache boundary.
type Controller struct {
	bank cash.Controller
}

// NewController returns a controller moving funds through the given
// ledger.
func NewController(bank cash.Controller) Controller {
	return Controller{bank: bank}
}

// holds returns nil if the account balance covers the amount. A zero
// amount is always covered. A failing check is reported with the
// provided insufficiency error, so the caller learns which leg of the
// swap was underfunded.
func (c Controller) holds(db vaultswap.KVStore, addr vaultswap.Address, amount coin.Coin, insufficiency *errors.Error) error {
	if amount.IsZero() {
		return nil
	}
	balance, err := c.bank.Balance(db, addr)
	if errors.ErrNotFound.Is(err) {
		return errors.Wrapf(insufficiency, "account %s does not exist", addr)
	}
	if err != nil {
		return err
	}
	if !balance.Contains(amount) {
		return errors.Wrapf(insufficiency, "account %s holds %s, needs %s", addr, balance, amount)
	}
	return nil
}

// Deposit moves the principal into the escrow vault and the initializer
// fee into the shared fee vault.
func (c Controller) Deposit(db vaultswap.KVStore, esc *Escrow, feeVault vaultswap.Address) error {
	principal := coin.NewCoin(esc.PrincipalAmount, esc.PrincipalTicker)
	fee := coin.NewCoin(esc.FeeInitializer, esc.FeeTicker)

	if err := c.holds(db, esc.DepositAccount, principal, ErrInitializerFunds); err != nil {
		return err
	}
	if err := c.holds(db, esc.FeeAccount, fee, ErrInitializerFee); err != nil {
		return err
	}

	if err := c.bank.MoveCoins(db, esc.DepositAccount, esc.Vault, principal); err != nil {
		return errors.Wrap(err, "principal deposit")
	}
	if !fee.IsZero() {
		if err := c.bank.MoveCoins(db, esc.FeeAccount, feeVault, fee); err != nil {
			return errors.Wrap(err, "fee deposit")
		}
	}
	return nil
}

// Cancel returns the vaulted principal and the vaulted initializer fee
// to the initializer's accounts and closes the emptied vault. The vault
// close must come last so the preceding transfer does not reference a
// removed account.
func (c Controller) Cancel(db vaultswap.KVStore, id []byte, esc *Escrow, feeVault vaultswap.Address) error {
	principal := coin.NewCoin(esc.PrincipalAmount, esc.PrincipalTicker)
	if err := c.releaseVault(db, id, esc, esc.CancelAccount, principal); err != nil {
		return err
	}
	if esc.FeeInitializer > 0 {
		fee := coin.NewCoin(esc.FeeInitializer, esc.FeeTicker)
		if err := c.releaseFeeVault(db, esc.FeeTicker, feeVault, esc.FeeAccount, fee); err != nil {
			return err
		}
	}
	return c.bank.CloseEmptyAccount(db, esc.Vault)
}

// Exchange settles the swap. Transfer order:
//
//  1. taker fee to the taker collector (skipped if zero)
//  2. vaulted initializer fee to the initializer collector (skipped if zero)
//  3. taker's counter payment to the initializer's receive account
//  4. vaulted principal to the taker's receive account
//  5. vault close
//
// Taker balances are revalidated before the first transfer.
func (c Controller) Exchange(db vaultswap.KVStore, id []byte, esc *Escrow, feeVault vaultswap.Address, msg *ExchangeMsg, initCollector, takerCollector vaultswap.Address) error {
	counter := coin.NewCoin(esc.CounterAmount, esc.CounterTicker)
	takerFee := coin.NewCoin(esc.FeeTaker, esc.CounterTicker)

	if err := c.holds(db, msg.DepositAccount, counter, ErrTakerFunds); err != nil {
		return err
	}
	if err := c.holds(db, msg.FeeAccount, takerFee, ErrTakerFee); err != nil {
		return err
	}

	if !takerFee.IsZero() {
		if err := c.bank.MoveCoins(db, msg.FeeAccount, takerCollector, takerFee); err != nil {
			return errors.Wrap(err, "taker fee")
		}
	}
	if esc.FeeInitializer > 0 {
		fee := coin.NewCoin(esc.FeeInitializer, esc.FeeTicker)
		if err := c.releaseFeeVault(db, esc.FeeTicker, feeVault, initCollector, fee); err != nil {
			return err
		}
	}
	if err := c.bank.MoveCoins(db, msg.DepositAccount, esc.ReceiveAccount, counter); err != nil {
		return errors.Wrap(err, "counter payment")
	}
	principal := coin.NewCoin(esc.PrincipalAmount, esc.PrincipalTicker)
	if err := c.releaseVault(db, id, esc, msg.ReceiveAccount, principal); err != nil {
		return err
	}
	return c.bank.CloseEmptyAccount(db, esc.Vault)
}

// releaseVault moves funds out of the escrow vault. The caller proves
// authority by reconstructing the vault condition from the escrow id;
// a mismatch with the recorded authority aborts the release.
func (c Controller) releaseVault(db vaultswap.KVStore, id []byte, esc *Escrow, dest vaultswap.Address, amount coin.Coin) error {
	cond := Condition(id)
	if !cond.Equals(esc.VaultAuthority) || !cond.Address().Equals(esc.Vault) {
		return errors.Wrap(errors.ErrUnauthorized, "vault authority mismatch")
	}
	if err := c.bank.MoveCoins(db, esc.Vault, dest, amount); err != nil {
		return errors.Wrap(err, "vault release")
	}
	return nil
}

// releaseFeeVault moves an initializer fee out of the shared fee vault,
// proving authority via the per-ticker fee condition.
func (c Controller) releaseFeeVault(db vaultswap.KVStore, ticker string, feeVault, dest vaultswap.Address, amount coin.Coin) error {
	if !FeeCondition(ticker).Address().Equals(feeVault) {
		return errors.Wrap(errors.ErrUnauthorized, "fee vault authority mismatch")
	}
	if err := c.bank.MoveCoins(db, feeVault, dest, amount); err != nil {
		return errors.Wrap(err, "fee release")
	}
	return nil
}
