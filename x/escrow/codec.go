package escrow

import (
	"io"

	"github.com/gogo/protobuf/proto"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/crypto"
	"github.com/vaultswap/vaultswap/errors"
)

// State describes where an escrow is in its lifecycle.
type State int32

const (
	// StateUninitialized is the zero value and never persisted.
	StateUninitialized State = 0
	// StateActive means the vault is funded and the swap is open.
	StateActive State = 1
	// StateClosed means a terminal operation consumed the escrow. The
	// record remains for audit until the Sweeper purges it.
	StateClosed State = 2
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "invalid"
}

// Escrow is one pending (or recently settled) two-party swap.
//
// The initializer locked PrincipalAmount of PrincipalTicker in the
// vault and wants CounterAmount of CounterTicker in return. Fee fields
// describe the protocol fees both sides owe.
type Escrow struct {
	// Source is the initializer identity that may cancel.
	Source vaultswap.Address
	// PrincipalTicker is the asset locked in the vault.
	PrincipalTicker string
	// CounterTicker is the asset requested in return.
	CounterTicker string
	// FeeTicker is the asset the initializer fee is charged in.
	FeeTicker string
	// DepositAccount funded the vault.
	DepositAccount vaultswap.Address
	// CancelAccount receives the principal back on cancel.
	CancelAccount vaultswap.Address
	// ReceiveAccount receives the counter asset on exchange.
	ReceiveAccount vaultswap.Address
	// FeeAccount paid the initializer fee and receives it back on
	// cancel.
	FeeAccount vaultswap.Address
	// Vault is the custodial wallet holding the principal.
	Vault vaultswap.Address
	// VaultAuthority is the condition controlling the vault.
	VaultAuthority vaultswap.Condition
	PrincipalAmount int64
	CounterAmount   int64
	FeeInitializer  int64
	FeeTaker        int64
	// FeeCollector is the default destination for collected fees.
	FeeCollector vaultswap.Address
	State        State
	// ClosedAt is set when a terminal operation succeeds and drives
	// garbage collection.
	ClosedAt vaultswap.UnixTime
	Memo     string
}

// Escrow wire field tags.
const (
	escrowFieldSource          = 1
	escrowFieldPrincipalTicker = 2
	escrowFieldCounterTicker   = 3
	escrowFieldFeeTicker       = 4
	escrowFieldDepositAccount  = 5
	escrowFieldCancelAccount   = 6
	escrowFieldReceiveAccount  = 7
	escrowFieldFeeAccount      = 8
	escrowFieldVault           = 9
	escrowFieldVaultAuthority  = 10
	escrowFieldPrincipalAmount = 11
	escrowFieldCounterAmount   = 12
	escrowFieldFeeInitializer  = 13
	escrowFieldFeeTaker        = 14
	escrowFieldFeeCollector    = 15
	escrowFieldState           = 16
	escrowFieldClosedAt        = 17
	escrowFieldMemo            = 18
)

// Marshal encodes the escrow into its binary representation.
func (e *Escrow) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, escrowFieldSource, e.Source)
	encodeString(buf, escrowFieldPrincipalTicker, e.PrincipalTicker)
	encodeString(buf, escrowFieldCounterTicker, e.CounterTicker)
	encodeString(buf, escrowFieldFeeTicker, e.FeeTicker)
	encodeBytes(buf, escrowFieldDepositAccount, e.DepositAccount)
	encodeBytes(buf, escrowFieldCancelAccount, e.CancelAccount)
	encodeBytes(buf, escrowFieldReceiveAccount, e.ReceiveAccount)
	encodeBytes(buf, escrowFieldFeeAccount, e.FeeAccount)
	encodeBytes(buf, escrowFieldVault, e.Vault)
	encodeBytes(buf, escrowFieldVaultAuthority, e.VaultAuthority)
	encodeInt64(buf, escrowFieldPrincipalAmount, e.PrincipalAmount)
	encodeInt64(buf, escrowFieldCounterAmount, e.CounterAmount)
	encodeInt64(buf, escrowFieldFeeInitializer, e.FeeInitializer)
	encodeInt64(buf, escrowFieldFeeTaker, e.FeeTaker)
	encodeBytes(buf, escrowFieldFeeCollector, e.FeeCollector)
	encodeInt64(buf, escrowFieldState, int64(e.State))
	encodeInt64(buf, escrowFieldClosedAt, int64(e.ClosedAt))
	encodeString(buf, escrowFieldMemo, e.Memo)
	return buf.Bytes(), nil
}

// Unmarshal restores the escrow from its binary representation.
func (e *Escrow) Unmarshal(raw []byte) error {
	*e = Escrow{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case escrowFieldSource:
			return decodeBytes(buf, wire, (*[]byte)(&e.Source))
		case escrowFieldPrincipalTicker:
			return decodeString(buf, wire, &e.PrincipalTicker)
		case escrowFieldCounterTicker:
			return decodeString(buf, wire, &e.CounterTicker)
		case escrowFieldFeeTicker:
			return decodeString(buf, wire, &e.FeeTicker)
		case escrowFieldDepositAccount:
			return decodeBytes(buf, wire, (*[]byte)(&e.DepositAccount))
		case escrowFieldCancelAccount:
			return decodeBytes(buf, wire, (*[]byte)(&e.CancelAccount))
		case escrowFieldReceiveAccount:
			return decodeBytes(buf, wire, (*[]byte)(&e.ReceiveAccount))
		case escrowFieldFeeAccount:
			return decodeBytes(buf, wire, (*[]byte)(&e.FeeAccount))
		case escrowFieldVault:
			return decodeBytes(buf, wire, (*[]byte)(&e.Vault))
		case escrowFieldVaultAuthority:
			return decodeBytes(buf, wire, (*[]byte)(&e.VaultAuthority))
		case escrowFieldPrincipalAmount:
			return decodeInt64(buf, wire, &e.PrincipalAmount)
		case escrowFieldCounterAmount:
			return decodeInt64(buf, wire, &e.CounterAmount)
		case escrowFieldFeeInitializer:
			return decodeInt64(buf, wire, &e.FeeInitializer)
		case escrowFieldFeeTaker:
			return decodeInt64(buf, wire, &e.FeeTaker)
		case escrowFieldFeeCollector:
			return decodeBytes(buf, wire, (*[]byte)(&e.FeeCollector))
		case escrowFieldState:
			var v int64
			if err := decodeInt64(buf, wire, &v); err != nil {
				return err
			}
			e.State = State(v)
			return nil
		case escrowFieldClosedAt:
			var v int64
			if err := decodeInt64(buf, wire, &v); err != nil {
				return err
			}
			e.ClosedAt = vaultswap.UnixTime(v)
			return nil
		case escrowFieldMemo:
			return decodeString(buf, wire, &e.Memo)
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// FeeConfig binds a fee asset to the operator that collects it.
// Created at most once per fee ticker.
type FeeConfig struct {
	// Owner is the operator identity that created this config and may
	// rotate the signer key.
	Owner vaultswap.Address
	// FeeTicker is the asset this config covers.
	FeeTicker string
	// Collector is the default destination for collected fees.
	Collector vaultswap.Address
	// FeeVault holds initializer fees of all active escrows.
	FeeVault vaultswap.Address
	// FeeVaultAuthority is the condition controlling the fee vault. It
	// is set exactly once, during creation.
	FeeVaultAuthority vaultswap.Condition
}

// FeeConfig wire field tags.
const (
	feeConfigFieldOwner     = 1
	feeConfigFieldTicker    = 2
	feeConfigFieldCollector = 3
	feeConfigFieldVault     = 4
	feeConfigFieldAuthority = 5
)

// Marshal encodes the config into its binary representation.
func (c *FeeConfig) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, feeConfigFieldOwner, c.Owner)
	encodeString(buf, feeConfigFieldTicker, c.FeeTicker)
	encodeBytes(buf, feeConfigFieldCollector, c.Collector)
	encodeBytes(buf, feeConfigFieldVault, c.FeeVault)
	encodeBytes(buf, feeConfigFieldAuthority, c.FeeVaultAuthority)
	return buf.Bytes(), nil
}

// Unmarshal restores the config from its binary representation.
func (c *FeeConfig) Unmarshal(raw []byte) error {
	*c = FeeConfig{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case feeConfigFieldOwner:
			return decodeBytes(buf, wire, (*[]byte)(&c.Owner))
		case feeConfigFieldTicker:
			return decodeString(buf, wire, &c.FeeTicker)
		case feeConfigFieldCollector:
			return decodeBytes(buf, wire, (*[]byte)(&c.Collector))
		case feeConfigFieldVault:
			return decodeBytes(buf, wire, (*[]byte)(&c.FeeVault))
		case feeConfigFieldAuthority:
			return decodeBytes(buf, wire, (*[]byte)(&c.FeeVaultAuthority))
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// Signer is the versioned registry of the fee authorization key. Only
// the latest version is used for verification.
type Signer struct {
	// Owner was bound when the record was first created and is the only
	// identity allowed to rotate the key.
	Owner vaultswap.Address
	// Pubkey is the current verification key.
	Pubkey *crypto.PublicKey
	// Version counts rotations, starting at 1.
	Version uint32
}

// Signer wire field tags.
const (
	signerFieldOwner   = 1
	signerFieldPubkey  = 2
	signerFieldVersion = 3
)

// Marshal encodes the signer into its binary representation.
func (s *Signer) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, signerFieldOwner, s.Owner)
	if s.Pubkey != nil {
		raw, err := s.Pubkey.Marshal()
		if err != nil {
			return nil, err
		}
		encodeBytes(buf, signerFieldPubkey, raw)
	}
	encodeInt64(buf, signerFieldVersion, int64(s.Version))
	return buf.Bytes(), nil
}

// Unmarshal restores the signer from its binary representation.
func (s *Signer) Unmarshal(raw []byte) error {
	*s = Signer{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case signerFieldOwner:
			return decodeBytes(buf, wire, (*[]byte)(&s.Owner))
		case signerFieldPubkey:
			var data []byte
			if err := decodeBytes(buf, wire, &data); err != nil {
				return err
			}
			var pub crypto.PublicKey
			if err := pub.Unmarshal(data); err != nil {
				return err
			}
			s.Pubkey = &pub
			return nil
		case signerFieldVersion:
			var v int64
			if err := decodeInt64(buf, wire, &v); err != nil {
				return err
			}
			s.Version = uint32(v)
			return nil
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// CreateFeeConfigMsg registers the fee configuration for one ticker.
type CreateFeeConfigMsg struct {
	FeeTicker string
	// Collector is where forwarded fees end up.
	Collector vaultswap.Address
}

const (
	createFeeConfigFieldTicker    = 1
	createFeeConfigFieldCollector = 2
)

// Marshal encodes the message into its binary representation.
func (m *CreateFeeConfigMsg) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeString(buf, createFeeConfigFieldTicker, m.FeeTicker)
	encodeBytes(buf, createFeeConfigFieldCollector, m.Collector)
	return buf.Bytes(), nil
}

// Unmarshal restores the message from its binary representation.
func (m *CreateFeeConfigMsg) Unmarshal(raw []byte) error {
	*m = CreateFeeConfigMsg{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case createFeeConfigFieldTicker:
			return decodeString(buf, wire, &m.FeeTicker)
		case createFeeConfigFieldCollector:
			return decodeBytes(buf, wire, (*[]byte)(&m.Collector))
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// UpdateSignerMsg rotates the fee authorization key. The first update
// creates the signer record and binds its owner.
type UpdateSignerMsg struct {
	Pubkey *crypto.PublicKey
}

const updateSignerFieldPubkey = 1

// Marshal encodes the message into its binary representation.
func (m *UpdateSignerMsg) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	if m.Pubkey != nil {
		raw, err := m.Pubkey.Marshal()
		if err != nil {
			return nil, err
		}
		encodeBytes(buf, updateSignerFieldPubkey, raw)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the message from its binary representation.
func (m *UpdateSignerMsg) Unmarshal(raw []byte) error {
	*m = UpdateSignerMsg{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case updateSignerFieldPubkey:
			var data []byte
			if err := decodeBytes(buf, wire, &data); err != nil {
				return err
			}
			var pub crypto.PublicKey
			if err := pub.Unmarshal(data); err != nil {
				return err
			}
			m.Pubkey = &pub
			return nil
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// CreateMsg opens a new escrow and funds its vault.
type CreateMsg struct {
	// Source is the initializer. Optional, defaults to the main signer.
	Source vaultswap.Address
	// DepositAccount is debited for the principal.
	DepositAccount vaultswap.Address
	// CancelAccount receives the principal back on cancel. Optional,
	// defaults to DepositAccount.
	CancelAccount vaultswap.Address
	// ReceiveAccount receives the counter asset on exchange.
	ReceiveAccount vaultswap.Address
	// FeeAccount is debited for the initializer fee.
	FeeAccount      vaultswap.Address
	PrincipalTicker string
	CounterTicker   string
	FeeTicker       string
	PrincipalAmount int64
	CounterAmount   int64
	FeeInitializer  int64
	FeeTaker        int64
	Memo            string
}

// CreateMsg wire field tags.
const (
	createFieldSource          = 1
	createFieldDepositAccount  = 2
	createFieldCancelAccount   = 3
	createFieldReceiveAccount  = 4
	createFieldFeeAccount      = 5
	createFieldPrincipalTicker = 6
	createFieldCounterTicker   = 7
	createFieldFeeTicker       = 8
	createFieldPrincipalAmount = 9
	createFieldCounterAmount   = 10
	createFieldFeeInitializer  = 11
	createFieldFeeTaker        = 12
	createFieldMemo            = 13
)

// Marshal encodes the message into its binary representation.
func (m *CreateMsg) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, createFieldSource, m.Source)
	encodeBytes(buf, createFieldDepositAccount, m.DepositAccount)
	encodeBytes(buf, createFieldCancelAccount, m.CancelAccount)
	encodeBytes(buf, createFieldReceiveAccount, m.ReceiveAccount)
	encodeBytes(buf, createFieldFeeAccount, m.FeeAccount)
	encodeString(buf, createFieldPrincipalTicker, m.PrincipalTicker)
	encodeString(buf, createFieldCounterTicker, m.CounterTicker)
	encodeString(buf, createFieldFeeTicker, m.FeeTicker)
	encodeInt64(buf, createFieldPrincipalAmount, m.PrincipalAmount)
	encodeInt64(buf, createFieldCounterAmount, m.CounterAmount)
	encodeInt64(buf, createFieldFeeInitializer, m.FeeInitializer)
	encodeInt64(buf, createFieldFeeTaker, m.FeeTaker)
	encodeString(buf, createFieldMemo, m.Memo)
	return buf.Bytes(), nil
}

// Unmarshal restores the message from its binary representation.
func (m *CreateMsg) Unmarshal(raw []byte) error {
	*m = CreateMsg{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case createFieldSource:
			return decodeBytes(buf, wire, (*[]byte)(&m.Source))
		case createFieldDepositAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.DepositAccount))
		case createFieldCancelAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.CancelAccount))
		case createFieldReceiveAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.ReceiveAccount))
		case createFieldFeeAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.FeeAccount))
		case createFieldPrincipalTicker:
			return decodeString(buf, wire, &m.PrincipalTicker)
		case createFieldCounterTicker:
			return decodeString(buf, wire, &m.CounterTicker)
		case createFieldFeeTicker:
			return decodeString(buf, wire, &m.FeeTicker)
		case createFieldPrincipalAmount:
			return decodeInt64(buf, wire, &m.PrincipalAmount)
		case createFieldCounterAmount:
			return decodeInt64(buf, wire, &m.CounterAmount)
		case createFieldFeeInitializer:
			return decodeInt64(buf, wire, &m.FeeInitializer)
		case createFieldFeeTaker:
			return decodeInt64(buf, wire, &m.FeeTaker)
		case createFieldMemo:
			return decodeString(buf, wire, &m.Memo)
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// CancelMsg aborts an active escrow and returns the funds.
type CancelMsg struct {
	EscrowId []byte
}

const cancelFieldEscrowId = 1

// Marshal encodes the message into its binary representation.
func (m *CancelMsg) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, cancelFieldEscrowId, m.EscrowId)
	return buf.Bytes(), nil
}

// Unmarshal restores the message from its binary representation.
func (m *CancelMsg) Unmarshal(raw []byte) error {
	*m = CancelMsg{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case cancelFieldEscrowId:
			return decodeBytes(buf, wire, &m.EscrowId)
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// FeeAuthorization is a signed statement over the fee routing of one
// exchange. The fee amounts must match the escrow record; the
// collectors may differ from the configured default.
type FeeAuthorization struct {
	// InitializerCollector receives the vaulted initializer fee.
	InitializerCollector vaultswap.Address
	// TakerCollector receives the taker fee.
	TakerCollector vaultswap.Address
	FeeInitializer int64
	FeeTaker       int64
	Signature      *crypto.Signature
}

// FeeAuthorization wire field tags.
const (
	feeAuthFieldInitializerCollector = 1
	feeAuthFieldTakerCollector       = 2
	feeAuthFieldFeeInitializer       = 3
	feeAuthFieldFeeTaker             = 4
	feeAuthFieldSignature            = 5
)

// Marshal encodes the authorization into its binary representation.
func (a *FeeAuthorization) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, feeAuthFieldInitializerCollector, a.InitializerCollector)
	encodeBytes(buf, feeAuthFieldTakerCollector, a.TakerCollector)
	encodeInt64(buf, feeAuthFieldFeeInitializer, a.FeeInitializer)
	encodeInt64(buf, feeAuthFieldFeeTaker, a.FeeTaker)
	if a.Signature != nil {
		raw, err := a.Signature.Marshal()
		if err != nil {
			return nil, err
		}
		encodeBytes(buf, feeAuthFieldSignature, raw)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the authorization from its binary representation.
func (a *FeeAuthorization) Unmarshal(raw []byte) error {
	*a = FeeAuthorization{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case feeAuthFieldInitializerCollector:
			return decodeBytes(buf, wire, (*[]byte)(&a.InitializerCollector))
		case feeAuthFieldTakerCollector:
			return decodeBytes(buf, wire, (*[]byte)(&a.TakerCollector))
		case feeAuthFieldFeeInitializer:
			return decodeInt64(buf, wire, &a.FeeInitializer)
		case feeAuthFieldFeeTaker:
			return decodeInt64(buf, wire, &a.FeeTaker)
		case feeAuthFieldSignature:
			var data []byte
			if err := decodeBytes(buf, wire, &data); err != nil {
				return err
			}
			var sig crypto.Signature
			if err := sig.Unmarshal(data); err != nil {
				return err
			}
			a.Signature = &sig
			return nil
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// ExchangeMsg settles an active escrow as the taker.
type ExchangeMsg struct {
	EscrowId []byte
	// DepositAccount is debited for the counter amount.
	DepositAccount vaultswap.Address
	// ReceiveAccount receives the vaulted principal.
	ReceiveAccount vaultswap.Address
	// FeeAccount is debited for the taker fee, in the counter asset.
	FeeAccount vaultswap.Address
	// Authorization is required when a fee signer is registered.
	Authorization *FeeAuthorization
}

// ExchangeMsg wire field tags.
const (
	exchangeFieldEscrowId       = 1
	exchangeFieldDepositAccount = 2
	exchangeFieldReceiveAccount = 3
	exchangeFieldFeeAccount     = 4
	exchangeFieldAuthorization  = 5
)

// Marshal encodes the message into its binary representation.
func (m *ExchangeMsg) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(nil)
	encodeBytes(buf, exchangeFieldEscrowId, m.EscrowId)
	encodeBytes(buf, exchangeFieldDepositAccount, m.DepositAccount)
	encodeBytes(buf, exchangeFieldReceiveAccount, m.ReceiveAccount)
	encodeBytes(buf, exchangeFieldFeeAccount, m.FeeAccount)
	if m.Authorization != nil {
		raw, err := m.Authorization.Marshal()
		if err != nil {
			return nil, err
		}
		encodeBytes(buf, exchangeFieldAuthorization, raw)
	}
	return buf.Bytes(), nil
}

// Unmarshal restores the message from its binary representation.
func (m *ExchangeMsg) Unmarshal(raw []byte) error {
	*m = ExchangeMsg{}
	return decodeFields(raw, func(field uint64, buf *proto.Buffer, wire uint64) error {
		switch field {
		case exchangeFieldEscrowId:
			return decodeBytes(buf, wire, &m.EscrowId)
		case exchangeFieldDepositAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.DepositAccount))
		case exchangeFieldReceiveAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.ReceiveAccount))
		case exchangeFieldFeeAccount:
			return decodeBytes(buf, wire, (*[]byte)(&m.FeeAccount))
		case exchangeFieldAuthorization:
			var data []byte
			if err := decodeBytes(buf, wire, &data); err != nil {
				return err
			}
			var auth FeeAuthorization
			if err := auth.Unmarshal(data); err != nil {
				return err
			}
			m.Authorization = &auth
			return nil
		}
		return errors.Wrapf(errors.ErrInput, "unknown field %d", field)
	})
}

// Shared wire helpers. Bytes and strings use length-delimited fields,
// integers use zigzag varints. Zero values are skipped on encode.

func encodeBytes(buf *proto.Buffer, field uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	_ = buf.EncodeVarint(field<<3 | proto.WireBytes)
	_ = buf.EncodeRawBytes(data)
}

func encodeString(buf *proto.Buffer, field uint64, s string) {
	if s == "" {
		return
	}
	_ = buf.EncodeVarint(field<<3 | proto.WireBytes)
	_ = buf.EncodeStringBytes(s)
}

func encodeInt64(buf *proto.Buffer, field uint64, v int64) {
	if v == 0 {
		return
	}
	_ = buf.EncodeVarint(field<<3 | proto.WireVarint)
	_ = buf.EncodeZigzag64(uint64(v))
}

func decodeBytes(buf *proto.Buffer, wire uint64, dest *[]byte) error {
	if wire != proto.WireBytes {
		return errors.Wrap(errors.ErrInput, "expected bytes field")
	}
	data, err := buf.DecodeRawBytes(true)
	if err != nil {
		return errors.Wrap(errors.ErrInput, "field value")
	}
	*dest = data
	return nil
}

func decodeString(buf *proto.Buffer, wire uint64, dest *string) error {
	var data []byte
	if err := decodeBytes(buf, wire, &data); err != nil {
		return err
	}
	*dest = string(data)
	return nil
}

func decodeInt64(buf *proto.Buffer, wire uint64, dest *int64) error {
	if wire != proto.WireVarint {
		return errors.Wrap(errors.ErrInput, "expected varint field")
	}
	v, err := buf.DecodeZigzag64()
	if err != nil {
		return errors.Wrap(errors.ErrInput, "field value")
	}
	*dest = int64(v)
	return nil
}

// decodeFields drives a decode loop, dispatching every encountered
// field to fn until the input is exhausted.
func decodeFields(raw []byte, fn func(field uint64, buf *proto.Buffer, wire uint64) error) error {
	buf := proto.NewBuffer(raw)
	for {
		key, err := buf.DecodeVarint()
		if err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrInput, "malformed field key")
		}
		if err := fn(key>>3, buf, key&0x7); err != nil {
			return err
		}
	}
}
