package cash

import (
	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/coin"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from the genesis file.
// Address is in the hex format.
type GenesisAccount struct {
	Address vaultswap.Address `json:"address"`
	Coins   []qtyCoin         `json:"coins"`
}

// qtyCoin is the json representation of a single coin balance.
type qtyCoin struct {
	Ticker string `json:"ticker"`
	Amount int64  `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ vaultswap.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis and save it
// to the database.
func (Initializer) FromGenesis(opts vaultswap.Options, kv vaultswap.KVStore) error {
	accts := []GenesisAccount{}
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	bucket := NewBucket()
	for _, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return err
		}
		wallet := NewWallet(acct.Address)
		for _, c := range acct.Coins {
			if err := wallet.Add(coinFromQty(c)); err != nil {
				return err
			}
		}
		if err := bucket.Save(kv, wallet); err != nil {
			return err
		}
	}
	return nil
}

func coinFromQty(c qtyCoin) coin.Coin {
	return coin.NewCoin(c.Amount, c.Ticker)
}
