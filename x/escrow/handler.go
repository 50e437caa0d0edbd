package escrow

import (
	"encoding/binary"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/orm"
	"github.com/vaultswap/vaultswap/x"
	"github.com/vaultswap/vaultswap/x/cash"
)

const (
	// pay escrow cost up-front
	createCost       int64 = 300
	cancelCost       int64 = 0
	exchangeCost     int64 = 0
	feeConfigCost    int64 = 100
	updateSignerCost int64 = 50
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r vaultswap.Registry, auth x.Authenticator, bank cash.Controller, emitter Emitter) {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	bucket := NewBucket()
	fees := NewFeeConfigBucket()
	signers := NewSignerBucket()
	ctrl := NewController(bank)

	r.Handle(&CreateFeeConfigMsg{}, CreateFeeConfigHandler{auth: auth, fees: fees})
	r.Handle(&UpdateSignerMsg{}, UpdateSignerHandler{auth: auth, signers: signers})
	r.Handle(&CreateMsg{}, CreateEscrowHandler{auth: auth, bucket: bucket, fees: fees, ctrl: ctrl, emitter: emitter})
	r.Handle(&CancelMsg{}, CancelEscrowHandler{auth: auth, bucket: bucket, fees: fees, ctrl: ctrl, emitter: emitter})
	r.Handle(&ExchangeMsg{}, ExchangeEscrowHandler{auth: auth, bucket: bucket, fees: fees, signers: signers, ctrl: ctrl, emitter: emitter})
}

// RegisterQuery will register the buckets of this package.
func RegisterQuery(qr vaultswap.QueryRouter) {
	NewBucket().Register("escrows", qr)
	NewFeeConfigBucket().Register("feeconfigs", qr)
	NewSignerBucket().Register("signers", qr)
}

// CreateFeeConfigHandler creates the one-time fee configuration of a
// ticker.
type CreateFeeConfigHandler struct {
	auth x.Authenticator
	fees orm.ModelBucket
}

var _ vaultswap.Handler = CreateFeeConfigHandler{}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h CreateFeeConfigHandler) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vaultswap.CheckResult{GasAllocated: feeConfigCost}, nil
}

// Deliver persists the fee config and derives its fee vault authority.
func (h CreateFeeConfigHandler) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	cond := FeeCondition(msg.FeeTicker)
	cfg := &FeeConfig{
		Owner:             owner,
		FeeTicker:         msg.FeeTicker,
		Collector:         msg.Collector,
		FeeVault:          cond.Address(),
		FeeVaultAuthority: cond,
	}
	if err := h.fees.Put(db, []byte(msg.FeeTicker), cfg); err != nil {
		return nil, errors.Wrap(err, "cannot store fee config")
	}
	return &vaultswap.DeliverResult{Data: []byte(msg.FeeTicker)}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateFeeConfigHandler) validate(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*CreateFeeConfigMsg, vaultswap.Address, error) {
	var msg CreateFeeConfigMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	owner := x.MainSigner(ctx, h.auth)
	if owner == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}

	// The config of a ticker is created at most once.
	if err := h.fees.Has(db, []byte(msg.FeeTicker)); err == nil {
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "fee config %s", msg.FeeTicker)
	} else if !errors.ErrNotFound.Is(err) {
		return nil, nil, err
	}

	return &msg, owner.Address(), nil
}

// UpdateSignerHandler rotates the fee authorization key. The first
// rotation creates the signer record and binds the caller as its owner.
type UpdateSignerHandler struct {
	auth    x.Authenticator
	signers orm.ModelBucket
}

var _ vaultswap.Handler = UpdateSignerHandler{}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h UpdateSignerHandler) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vaultswap.CheckResult{GasAllocated: updateSignerCost}, nil
}

// Deliver appends a new signer key version.
func (h UpdateSignerHandler) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	signer.Pubkey = msg.Pubkey
	signer.Version++
	if err := h.signers.Put(db, signerKey, signer); err != nil {
		return nil, errors.Wrap(err, "cannot store signer")
	}
	return &vaultswap.DeliverResult{}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h UpdateSignerHandler) validate(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*UpdateSignerMsg, *Signer, error) {
	var msg UpdateSignerMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	var signer Signer
	switch err := h.signers.One(db, signerKey, &signer); {
	case errors.ErrNotFound.Is(err):
		// First update binds the owner.
		owner := x.MainSigner(ctx, h.auth)
		if owner == nil {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
		}
		signer.Owner = owner.Address()
	case err != nil:
		return nil, nil, err
	default:
		if !h.auth.HasAddress(ctx, signer.Owner) {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "not the signer owner")
		}
	}

	return &msg, &signer, nil
}

// CreateEscrowHandler opens an escrow and funds its vault.
type CreateEscrowHandler struct {
	auth    x.Authenticator
	bucket  orm.ModelBucket
	fees    orm.ModelBucket
	ctrl    Controller
	emitter Emitter
}

var _ vaultswap.Handler = CreateEscrowHandler{}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h CreateEscrowHandler) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vaultswap.CheckResult{GasAllocated: createCost}, nil
}

// Deliver moves the principal and the initializer fee into custody and
// persists the active escrow record.
func (h CreateEscrowHandler) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// apply a default for source
	source := msg.Source
	if source == nil {
		source = x.MainSigner(ctx, h.auth).Address()
	}

	id := EscrowID(source, msg.PrincipalTicker, msg.CounterTicker)
	var existing Escrow
	switch err := h.bucket.One(db, id, &existing); {
	case err == nil:
		// A closed record awaiting garbage collection does not block
		// the asset pair, an active one does.
		if existing.State == StateActive {
			return nil, errors.Wrapf(errors.ErrDuplicate, "escrow %X", id)
		}
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	var cfg FeeConfig
	if msg.FeeInitializer > 0 || msg.FeeTaker > 0 {
		if err := h.fees.One(db, []byte(msg.FeeTicker), &cfg); err != nil {
			return nil, errors.Wrapf(err, "fee config %s", msg.FeeTicker)
		}
	}

	cancelAccount := msg.CancelAccount
	if cancelAccount == nil {
		cancelAccount = msg.DepositAccount
	}

	cond := Condition(id)
	escrow := &Escrow{
		Source:          source,
		PrincipalTicker: msg.PrincipalTicker,
		CounterTicker:   msg.CounterTicker,
		FeeTicker:       msg.FeeTicker,
		DepositAccount:  msg.DepositAccount,
		CancelAccount:   cancelAccount,
		ReceiveAccount:  msg.ReceiveAccount,
		FeeAccount:      msg.FeeAccount,
		Vault:           cond.Address(),
		VaultAuthority:  cond,
		PrincipalAmount: msg.PrincipalAmount,
		CounterAmount:   msg.CounterAmount,
		FeeInitializer:  msg.FeeInitializer,
		FeeTaker:        msg.FeeTaker,
		FeeCollector:    cfg.Collector,
		State:           StateActive,
		Memo:            msg.Memo,
	}

	if err := h.ctrl.Deposit(db, escrow, cfg.FeeVault); err != nil {
		return nil, err
	}
	if err := h.bucket.Put(db, id, escrow); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}

	h.emitter.Initialized(InitializeEvent{
		EscrowId:        id,
		Source:          source,
		PrincipalTicker: escrow.PrincipalTicker,
		CounterTicker:   escrow.CounterTicker,
		FeeTicker:       escrow.FeeTicker,
		PrincipalAmount: escrow.PrincipalAmount,
		CounterAmount:   escrow.CounterAmount,
		FeeInitializer:  escrow.FeeInitializer,
		FeeTaker:        escrow.FeeTaker,
	})
	return &vaultswap.DeliverResult{Data: id}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateEscrowHandler) validate(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*CreateMsg, error) {
	var msg CreateMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	// Source must authorize this (if not set, defaults to MainSigner).
	if msg.Source != nil {
		if !h.auth.HasAddress(ctx, msg.Source) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "source")
		}
	} else if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}

	// The debited accounts must authorize as well.
	if !h.auth.HasAddress(ctx, msg.DepositAccount) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "deposit account")
	}
	if msg.FeeInitializer > 0 && !h.auth.HasAddress(ctx, msg.FeeAccount) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "fee account")
	}

	return &msg, nil
}

// CancelEscrowHandler aborts an active escrow and returns custody to
// the initializer.
type CancelEscrowHandler struct {
	auth    x.Authenticator
	bucket  orm.ModelBucket
	fees    orm.ModelBucket
	ctrl    Controller
	emitter Emitter
}

var _ vaultswap.Handler = CancelEscrowHandler{}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h CancelEscrowHandler) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vaultswap.CheckResult{GasAllocated: cancelCost}, nil
}

// Deliver returns the principal and the vaulted fee to the initializer,
// closes the vault and marks the record closed.
func (h CancelEscrowHandler) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	msg, escrow, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	feeVault, err := h.feeVault(db, escrow)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Cancel(db, msg.EscrowId, escrow, feeVault); err != nil {
		return nil, err
	}
	if err := h.close(ctx, db, msg.EscrowId, escrow); err != nil {
		return nil, err
	}

	h.emitter.Canceled(CancelEvent{
		EscrowId: msg.EscrowId,
		Source:   escrow.Source,
	})
	return &vaultswap.DeliverResult{Data: msg.EscrowId}, nil
}

func (h CancelEscrowHandler) feeVault(db vaultswap.KVStore, escrow *Escrow) (vaultswap.Address, error) {
	if escrow.FeeInitializer == 0 {
		return nil, nil
	}
	var cfg FeeConfig
	if err := h.fees.One(db, []byte(escrow.FeeTicker), &cfg); err != nil {
		return nil, errors.Wrapf(err, "fee config %s", escrow.FeeTicker)
	}
	return cfg.FeeVault, nil
}

func (h CancelEscrowHandler) close(ctx vaultswap.Context, db vaultswap.KVStore, id []byte, escrow *Escrow) error {
	now, err := vaultswap.BlockTime(ctx)
	if err != nil {
		return errors.Wrap(err, "block time")
	}
	escrow.State = StateClosed
	escrow.ClosedAt = vaultswap.AsUnixTime(now)
	if err := h.bucket.Put(db, id, escrow); err != nil {
		return errors.Wrap(err, "cannot store escrow")
	}
	return nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CancelEscrowHandler) validate(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*CancelMsg, *Escrow, error) {
	var msg CancelMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	var escrow Escrow
	if err := h.bucket.One(db, msg.EscrowId, &escrow); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load escrow from the store")
	}
	if escrow.State != StateActive {
		return nil, nil, errors.Wrapf(errors.ErrState, "escrow %s", escrow.State)
	}

	// Only the initializer may cancel.
	if !h.auth.HasAddress(ctx, escrow.Source) {
		return nil, nil, errors.ErrUnauthorized
	}

	return &msg, &escrow, nil
}

// ExchangeEscrowHandler settles an active escrow as the taker.
type ExchangeEscrowHandler struct {
	auth    x.Authenticator
	bucket  orm.ModelBucket
	fees    orm.ModelBucket
	signers orm.ModelBucket
	ctrl    Controller
	emitter Emitter
}

var _ vaultswap.Handler = ExchangeEscrowHandler{}

// Check just verifies it is properly formed and returns the cost of
// executing it.
func (h ExchangeEscrowHandler) Check(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &vaultswap.CheckResult{GasAllocated: exchangeCost}, nil
}

// Deliver settles the swap, forwards the fees and closes the vault.
func (h ExchangeEscrowHandler) Deliver(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*vaultswap.DeliverResult, error) {
	msg, escrow, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// The signature gate runs before any transfer is attempted.
	initCollector, takerCollector, err := h.feeRouting(db, escrow, msg)
	if err != nil {
		return nil, err
	}

	var feeVault vaultswap.Address
	if escrow.FeeInitializer > 0 {
		var cfg FeeConfig
		if err := h.fees.One(db, []byte(escrow.FeeTicker), &cfg); err != nil {
			return nil, errors.Wrapf(err, "fee config %s", escrow.FeeTicker)
		}
		feeVault = cfg.FeeVault
	}

	if err := h.ctrl.Exchange(db, msg.EscrowId, escrow, feeVault, msg, initCollector, takerCollector); err != nil {
		return nil, err
	}

	now, err := vaultswap.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	escrow.State = StateClosed
	escrow.ClosedAt = vaultswap.AsUnixTime(now)
	if err := h.bucket.Put(db, msg.EscrowId, escrow); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}

	h.emitter.Exchanged(ExchangeEvent{
		EscrowId:        msg.EscrowId,
		TakerReceive:    msg.ReceiveAccount,
		PrincipalAmount: escrow.PrincipalAmount,
		CounterAmount:   escrow.CounterAmount,
		FeeInitializer:  escrow.FeeInitializer,
		FeeTaker:        escrow.FeeTaker,
	})
	return &vaultswap.DeliverResult{Data: msg.EscrowId}, nil
}

// feeRouting resolves the collectors the fees are forwarded to. With a
// registered signer every exchange must present a valid authorization
// over the routing; without one the configured collector is used for
// both legs.
func (h ExchangeEscrowHandler) feeRouting(db vaultswap.KVStore, escrow *Escrow, msg *ExchangeMsg) (vaultswap.Address, vaultswap.Address, error) {
	var signer Signer
	switch err := h.signers.One(db, signerKey, &signer); {
	case errors.ErrNotFound.Is(err):
		return escrow.FeeCollector, escrow.FeeCollector, nil
	case err != nil:
		return nil, nil, err
	}

	auth := msg.Authorization
	if auth == nil {
		return nil, nil, errors.Wrap(ErrSignature, "fee authorization required")
	}
	// The vaulted amounts cannot be renegotiated, only the routing.
	if auth.FeeInitializer != escrow.FeeInitializer || auth.FeeTaker != escrow.FeeTaker {
		return nil, nil, errors.Wrap(ErrSignature, "fee amounts do not match the escrow")
	}
	if escrow.FeeInitializer > 0 && len(auth.InitializerCollector) == 0 {
		return nil, nil, errors.Wrap(ErrSignature, "initializer collector missing")
	}
	if escrow.FeeTaker > 0 && len(auth.TakerCollector) == 0 {
		return nil, nil, errors.Wrap(ErrSignature, "taker collector missing")
	}
	if !signer.Pubkey.Verify(authorizationBytes(auth), auth.Signature) {
		return nil, nil, errors.Wrap(ErrSignature, "signature verification failed")
	}
	return auth.InitializerCollector, auth.TakerCollector, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h ExchangeEscrowHandler) validate(ctx vaultswap.Context, db vaultswap.KVStore, tx vaultswap.Tx) (*ExchangeMsg, *Escrow, error) {
	var msg ExchangeMsg
	if err := vaultswap.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}

	var escrow Escrow
	if err := h.bucket.One(db, msg.EscrowId, &escrow); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load escrow from the store")
	}
	if escrow.State != StateActive {
		return nil, nil, errors.Wrapf(errors.ErrState, "escrow %s", escrow.State)
	}

	if escrow.FeeTaker > 0 && len(msg.FeeAccount) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmpty, "fee account")
	}

	// The taker's debited accounts must authorize this.
	if !h.auth.HasAddress(ctx, msg.DepositAccount) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "deposit account")
	}
	if escrow.FeeTaker > 0 && !h.auth.HasAddress(ctx, msg.FeeAccount) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "fee account")
	}

	return &msg, &escrow, nil
}

// authorizationBytes builds the deterministic message the fee signer
// signs: both collector identities followed by both fee amounts as big
// endian 8 byte values.
func authorizationBytes(a *FeeAuthorization) []byte {
	out := make([]byte, 0, len(a.InitializerCollector)+len(a.TakerCollector)+16)
	out = append(out, a.InitializerCollector...)
	out = append(out, a.TakerCollector...)
	var amount [8]byte
	binary.BigEndian.PutUint64(amount[:], uint64(a.FeeInitializer))
	out = append(out, amount[:]...)
	binary.BigEndian.PutUint64(amount[:], uint64(a.FeeTaker))
	return append(out, amount[:]...)
}
