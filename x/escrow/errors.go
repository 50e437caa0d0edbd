package escrow

import (
	"github.com/vaultswap/vaultswap/errors"
)

// Extension specific errors. The framework reserves codes below 1000,
// this package takes 1000-1010.
var (
	// ErrInvalidInitializerAmount is returned when an escrow is created
	// with a non-positive principal amount.
	ErrInvalidInitializerAmount = errors.Register(1000, "invalid initializer token amount")

	// ErrInvalidTakerAmount is returned when an escrow is created with a
	// non-positive counter amount.
	ErrInvalidTakerAmount = errors.Register(1001, "invalid taker token amount")

	// ErrInitializerFunds is returned when the initializer's deposit
	// account does not cover the principal amount.
	ErrInitializerFunds = errors.Register(1002, "initializer token amount insufficient")

	// ErrInitializerFee is returned when the initializer's fee account
	// does not cover the declared initializer fee.
	ErrInitializerFee = errors.Register(1003, "initializer fee amount insufficient")

	// ErrTakerFunds is returned when the taker's deposit account does
	// not cover the counter amount.
	ErrTakerFunds = errors.Register(1004, "taker token amount insufficient")

	// ErrTakerFee is returned when the taker's fee account does not
	// cover the declared taker fee.
	ErrTakerFee = errors.Register(1005, "taker fee amount insufficient")

	// ErrSignature is returned when the fee authorization presented on
	// exchange is missing or does not verify against the registered
	// signer key.
	ErrSignature = errors.Register(1006, "fee authorization rejected")
)
