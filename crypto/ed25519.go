/*
Package crypto wraps the key material used by the signature gate.

Only ed25519 is supported. Public keys double as conditions, so a key
can act as an authority over wallets the same way a derived vault
authority does.
*/
package crypto

import (
	"io"

	"github.com/gogo/protobuf/proto"
	"golang.org/x/crypto/ed25519"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// ExtensionName is used for the conditions we derive from signatures.
const ExtensionName = "sigs"

// Wire tags shared by the key and signature codecs. Each message
// carries a single raw bytes field.
const fieldRaw = 1

// PublicKey is an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte
}

// Verify returns true if the signature was created for this message
// with the private key matching this public key.
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	if sig == nil || len(sig.Ed25519) != ed25519.SignatureSize {
		return false
	}
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig.Ed25519)
}

// Condition encodes the public key into a condition.
func (p *PublicKey) Condition() vaultswap.Condition {
	return vaultswap.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is a shortcut for Condition().Address().
func (p *PublicKey) Address() vaultswap.Address {
	return p.Condition().Address()
}

// Validate ensures the key has the proper length.
func (p *PublicKey) Validate() error {
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInput, "invalid public key length: %d", len(p.Ed25519))
	}
	return nil
}

// Marshal encodes the key into its binary representation.
func (p *PublicKey) Marshal() ([]byte, error) {
	return marshalRaw(p.Ed25519), nil
}

// Unmarshal restores the key from its binary representation.
func (p *PublicKey) Unmarshal(raw []byte) error {
	data, err := unmarshalRaw(raw)
	if err != nil {
		return err
	}
	p.Ed25519 = data
	return nil
}

// Signature is an ed25519 signature.
type Signature struct {
	Ed25519 []byte
}

// Marshal encodes the signature into its binary representation.
func (s *Signature) Marshal() ([]byte, error) {
	return marshalRaw(s.Ed25519), nil
}

// Unmarshal restores the signature from its binary representation.
func (s *Signature) Unmarshal(raw []byte) error {
	data, err := unmarshalRaw(raw)
	if err != nil {
		return err
	}
	s.Ed25519 = data
	return nil
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	Ed25519 []byte
}

// Sign returns a matching signature for this private key.
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "invalid private key length: %d", len(p.Ed25519))
	}
	bz := ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message)
	return &Signature{Ed25519: bz}, nil
}

// PublicKey returns the corresponding PublicKey.
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(p.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 returns a random new private key.
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key
// from a given seed. Use if you have a strong source of external
// randomness, or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}

func marshalRaw(data []byte) []byte {
	buf := proto.NewBuffer(nil)
	if len(data) > 0 {
		_ = buf.EncodeVarint(fieldRaw<<3 | proto.WireBytes)
		_ = buf.EncodeRawBytes(data)
	}
	return buf.Bytes()
}

func unmarshalRaw(raw []byte) ([]byte, error) {
	buf := proto.NewBuffer(raw)
	key, err := buf.DecodeVarint()
	if err == io.ErrUnexpectedEOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "malformed field key")
	}
	if key != fieldRaw<<3|proto.WireBytes {
		return nil, errors.Wrapf(errors.ErrInput, "unknown field %d", key>>3)
	}
	data, err := buf.DecodeRawBytes(true)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "raw value")
	}
	return data, nil
}
