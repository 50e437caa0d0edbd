package cash

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
	"github.com/vaultswap/vaultswap/errors"
	"github.com/vaultswap/vaultswap/orm"
)

// BucketName is where we store the balances.
const BucketName = "cash"

// Wallet is the actual object that we want to pass around in our
// code. It contains a set of coins, as well as the address. It is
// connected to the Bucket to easily manipulate state.
//
// Wallet is a type-safe wrapper around orm.SimpleObj.
type Wallet struct {
	key   []byte
	value *Set
}

var _ orm.Object = (*Wallet)(nil)

// NewWallet creates an empty wallet with this address.
func NewWallet(key vaultswap.Address) *Wallet {
	return &Wallet{
		key:   key,
		value: new(Set),
	}
}

// WalletWith creates an wallet with a balance.
func WalletWith(key vaultswap.Address, coins ...*coin.Coin) (*Wallet, error) {
	w := NewWallet(key)
	for _, c := range coins {
		if err := w.Add(*c); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Value gets the value stored in the object.
func (w Wallet) Value() vaultswap.Persistent {
	return w.value
}

// Key returns the key to store the object under.
func (w Wallet) Key() []byte {
	return w.key
}

// Validate makes sure the fields aren't empty.
// And delegates to the value validator if present.
func (w Wallet) Validate() error {
	if err := vaultswap.Address(w.key).Validate(); err != nil {
		return err
	}
	return w.value.Validate()
}

// SetKey may be used to update a wallet key.
func (w *Wallet) SetKey(key []byte) {
	w.key = key
}

// Clone will make a copy of this object.
func (w *Wallet) Clone() orm.Object {
	res := &Wallet{
		value: w.value.Copy(),
	}
	// only copy key if non-nil
	if len(w.key) > 0 {
		res.key = append([]byte(nil), w.key...)
	}
	return res
}

// Coins returns the coins stored in the wallet.
func (w Wallet) Coins() coin.Coins {
	return w.value.Coins
}

// IsEmpty returns true if the wallet holds no value.
func (w Wallet) IsEmpty() bool {
	return w.value.Coins.IsEmpty()
}

// Add modifies the wallet to add Coin c.
func (w *Wallet) Add(c coin.Coin) error {
	cs, err := w.Coins().Add(c)
	if err != nil {
		return err
	}
	if !cs.IsNonNegative() {
		return errors.Wrapf(errors.ErrAmount, "negative balance for %s", c.Ticker)
	}
	w.value.Coins = cs
	return nil
}

// Subtract modifies the wallet to remove Coin c.
func (w *Wallet) Subtract(c coin.Coin) error {
	return w.Add(c.Negative())
}

// Bucket is a type-safe wrapper around orm.Bucket.
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a cash.Bucket with the default name.
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, NewWallet(nil)),
	}
}

// Get returns the wallet stored under the address, nil if absent.
func (b Bucket) Get(db vaultswap.ReadOnlyKVStore, key vaultswap.Address) (*Wallet, error) {
	obj, err := b.Bucket.Get(db, key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	w, ok := obj.(*Wallet)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T is not a wallet", obj)
	}
	return w, nil
}

// GetOrCreate loads the wallet, or creates an empty one in memory if
// it does not exist. The caller must Save it to persist.
func (b Bucket) GetOrCreate(db vaultswap.KVStore, key vaultswap.Address) (*Wallet, error) {
	wallet, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = NewWallet(key)
	}
	return wallet, nil
}

// Save persists a wallet.
func (b Bucket) Save(db vaultswap.KVStore, wallet *Wallet) error {
	return b.Bucket.Save(db, wallet)
}
