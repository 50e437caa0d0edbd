package escrow

import (
	"encoding/hex"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/crypto"
	"github.com/vaultswap/vaultswap/errors"
)

const optKey = "escrow"

// genesisFeeConfig is used to parse the json from the genesis file.
type genesisFeeConfig struct {
	Owner     vaultswap.Address `json:"owner"`
	FeeTicker string            `json:"fee_ticker"`
	Collector vaultswap.Address `json:"collector"`
}

// genesisSigner carries the initial fee authorization key, hex encoded.
type genesisSigner struct {
	Owner  vaultswap.Address `json:"owner"`
	Pubkey string            `json:"pubkey"`
}

type genesisConf struct {
	FeeConfigs []genesisFeeConfig `json:"fee_configs"`
	Signer     *genesisSigner     `json:"signer"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ vaultswap.Initializer = Initializer{}

// FromGenesis will parse the initial fee configuration and the optional
// fee signer from genesis and save them to the database.
func (Initializer) FromGenesis(opts vaultswap.Options, kv vaultswap.KVStore) error {
	var conf genesisConf
	if err := opts.ReadOptions(optKey, &conf); err != nil {
		return err
	}

	fees := NewFeeConfigBucket()
	for _, fc := range conf.FeeConfigs {
		cond := FeeCondition(fc.FeeTicker)
		cfg := &FeeConfig{
			Owner:             fc.Owner,
			FeeTicker:         fc.FeeTicker,
			Collector:         fc.Collector,
			FeeVault:          cond.Address(),
			FeeVaultAuthority: cond,
		}
		if err := fees.Put(kv, []byte(fc.FeeTicker), cfg); err != nil {
			return errors.Wrapf(err, "fee config %s", fc.FeeTicker)
		}
	}

	if conf.Signer != nil {
		raw, err := hex.DecodeString(conf.Signer.Pubkey)
		if err != nil {
			return errors.Wrap(errors.ErrInput, "malformed signer pubkey")
		}
		signer := &Signer{
			Owner:   conf.Signer.Owner,
			Pubkey:  &crypto.PublicKey{Ed25519: raw},
			Version: 1,
		}
		if err := NewSignerBucket().Put(kv, signerKey, signer); err != nil {
			return errors.Wrap(err, "signer")
		}
	}
	return nil
}
