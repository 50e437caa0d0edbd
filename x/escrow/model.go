package escrow

import (
	"crypto/sha256"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/orm"
)

// BucketName is where we store the escrows.
const BucketName = "esc"

// EscrowID deterministically derives the record key for one swap. An
// initializer can hold at most one active escrow per asset pair.
func EscrowID(source vaultswap.Address, principalTicker, counterTicker string) []byte {
	h := sha256.New()
	_, _ = h.Write(source)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(principalTicker))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(counterTicker))
	return h.Sum(nil)[:8]
}

// Condition derives the capability token controlling the vault of the
// escrow with the given id. Only code that can reconstruct this
// condition may move funds out of the vault.
func Condition(id []byte) vaultswap.Condition {
	return vaultswap.NewCondition("escrow", "vault", id)
}

// FeeCondition derives the capability token controlling the shared fee
// vault of one fee ticker.
func FeeCondition(ticker string) vaultswap.Condition {
	return vaultswap.NewCondition("escrow", "fees", []byte(ticker))
}

var _ orm.CloneableData = (*Escrow)(nil)

// Validate ensures the escrow is valid.
func (e *Escrow) Validate() error {
	if err := e.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if !coin.IsCC(e.PrincipalTicker) {
		return errors.Wrapf(errors.ErrCurrency, "principal ticker: %q", e.PrincipalTicker)
	}
	if !coin.IsCC(e.CounterTicker) {
		return errors.Wrapf(errors.ErrCurrency, "counter ticker: %q", e.CounterTicker)
	}
	if err := e.DepositAccount.Validate(); err != nil {
		return errors.Wrap(err, "deposit account")
	}
	if err := e.CancelAccount.Validate(); err != nil {
		return errors.Wrap(err, "cancel account")
	}
	if err := e.ReceiveAccount.Validate(); err != nil {
		return errors.Wrap(err, "receive account")
	}
	if err := e.Vault.Validate(); err != nil {
		return errors.Wrap(err, "vault")
	}
	if err := e.VaultAuthority.Validate(); err != nil {
		return errors.Wrap(err, "vault authority")
	}
	if e.PrincipalAmount <= 0 {
		return errors.Wrapf(ErrInvalidInitializerAmount, "%d", e.PrincipalAmount)
	}
	if e.CounterAmount <= 0 {
		return errors.Wrapf(ErrInvalidTakerAmount, "%d", e.CounterAmount)
	}
	if e.FeeInitializer < 0 || e.FeeTaker < 0 {
		return errors.Wrap(errors.ErrAmount, "negative fee")
	}
	if e.FeeInitializer > 0 {
		if !coin.IsCC(e.FeeTicker) {
			return errors.Wrapf(errors.ErrCurrency, "fee ticker: %q", e.FeeTicker)
		}
		if err := e.FeeAccount.Validate(); err != nil {
			return errors.Wrap(err, "fee account")
		}
	}
	if e.FeeInitializer > 0 || e.FeeTaker > 0 {
		if err := e.FeeCollector.Validate(); err != nil {
			return errors.Wrap(err, "fee collector")
		}
	}
	switch e.State {
	case StateActive:
		if !e.ClosedAt.IsZero() {
			return errors.Wrap(errors.ErrState, "active escrow with closure time")
		}
	case StateClosed:
		if e.ClosedAt.IsZero() {
			return errors.Wrap(errors.ErrState, "closed escrow without closure time")
		}
	default:
		return errors.Wrapf(errors.ErrState, "state: %s", e.State)
	}
	if len(e.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo %s", e.Memo)
	}
	return nil
}

// Copy makes a deep copy of the escrow.
func (e *Escrow) Copy() orm.CloneableData {
	cpy := *e
	cpy.Source = e.Source.Clone()
	cpy.DepositAccount = e.DepositAccount.Clone()
	cpy.CancelAccount = e.CancelAccount.Clone()
	cpy.ReceiveAccount = e.ReceiveAccount.Clone()
	cpy.FeeAccount = e.FeeAccount.Clone()
	cpy.Vault = e.Vault.Clone()
	cpy.FeeCollector = e.FeeCollector.Clone()
	if e.VaultAuthority != nil {
		cpy.VaultAuthority = append(vaultswap.Condition{}, e.VaultAuthority...)
	}
	return &cpy
}

// NewBucket returns the escrow bucket with its secondary indexes. The
// state index powers garbage collection, source and collector support
// client side lookups.
func NewBucket() orm.ModelBucket {
	b := orm.NewBucket(BucketName, orm.NewSimpleObj(nil, &Escrow{})).
		WithIndex("source", idxSource, false).
		WithIndex("collector", idxCollector, false).
		WithIndex("state", idxState, false)
	return orm.NewModelBucket(b)
}

func toEscrow(obj orm.Object) (*Escrow, error) {
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	esc, ok := obj.Value().(*Escrow)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "can only take index of Escrow")
	}
	return esc, nil
}

func idxSource(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Source, nil
}

func idxCollector(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	if len(esc.FeeCollector) == 0 {
		return nil, nil
	}
	return esc.FeeCollector, nil
}

func idxState(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return []byte{byte(esc.State)}, nil
}

// FeeConfigBucketName is where we store the per-ticker fee configs.
const FeeConfigBucketName = "escfee"

var _ orm.CloneableData = (*FeeConfig)(nil)

// Validate ensures the fee config is valid.
func (c *FeeConfig) Validate() error {
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if !coin.IsCC(c.FeeTicker) {
		return errors.Wrapf(errors.ErrCurrency, "fee ticker: %q", c.FeeTicker)
	}
	if err := c.Collector.Validate(); err != nil {
		return errors.Wrap(err, "collector")
	}
	if err := c.FeeVault.Validate(); err != nil {
		return errors.Wrap(err, "fee vault")
	}
	if err := c.FeeVaultAuthority.Validate(); err != nil {
		return errors.Wrap(err, "fee vault authority")
	}
	return nil
}

// Copy makes a deep copy of the fee config.
func (c *FeeConfig) Copy() orm.CloneableData {
	cpy := *c
	cpy.Owner = c.Owner.Clone()
	cpy.Collector = c.Collector.Clone()
	cpy.FeeVault = c.FeeVault.Clone()
	if c.FeeVaultAuthority != nil {
		cpy.FeeVaultAuthority = append(vaultswap.Condition{}, c.FeeVaultAuthority...)
	}
	return &cpy
}

// NewFeeConfigBucket returns the fee config bucket, keyed by ticker.
func NewFeeConfigBucket() orm.ModelBucket {
	b := orm.NewBucket(FeeConfigBucketName, orm.NewSimpleObj(nil, &FeeConfig{}))
	return orm.NewModelBucket(b)
}

// SignerBucketName is where we store the fee signer registry.
const SignerBucketName = "escsig"

// signerKey is the singleton key of the signer record.
var signerKey = []byte("current")

var _ orm.CloneableData = (*Signer)(nil)

// Validate ensures the signer record is valid.
func (s *Signer) Validate() error {
	if err := s.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrEmpty, "pubkey")
	}
	if err := s.Pubkey.Validate(); err != nil {
		return errors.Wrap(err, "pubkey")
	}
	if s.Version == 0 {
		return errors.Wrap(errors.ErrEmpty, "version")
	}
	return nil
}

// Copy makes a deep copy of the signer record.
func (s *Signer) Copy() orm.CloneableData {
	cpy := *s
	cpy.Owner = s.Owner.Clone()
	if s.Pubkey != nil {
		key := *s.Pubkey
		key.Ed25519 = append([]byte(nil), s.Pubkey.Ed25519...)
		cpy.Pubkey = &key
	}
	return &cpy
}

// NewSignerBucket returns the signer bucket holding a single record.
func NewSignerBucket() orm.ModelBucket {
	b := orm.NewBucket(SignerBucketName, orm.NewSimpleObj(nil, &Signer{}))
	return orm.NewModelBucket(b)
}
