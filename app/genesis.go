package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/errors"
)

// Genesis file format, overlayed with the engine configuration
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState json.RawMessage `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrap(err, "loading genesis file")
	}
	if err := json.Unmarshal(raw, &gen); err != nil {
		return gen, errors.Wrap(errors.ErrInput, err.Error())
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one
// function
func ChainInitializers(inits ...vaultswap.Initializer) vaultswap.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []vaultswap.Initializer
}

// FromGenesis will pass opts to all Initializers in the list, aborting
// at the first error.
func (c chainInitializer) FromGenesis(opts vaultswap.Options, kv vaultswap.KVStore) error {
	for _, i := range c.inits {
		err := i.FromGenesis(opts, kv)
		if err != nil {
			return err
		}
	}
	return nil
}
