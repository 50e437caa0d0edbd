package swaptest

import (
	"crypto/rand"
	"fmt"

	"github.com/vaultswap/vaultswap"
	"github.com/vaultswap/vaultswap/crypto"
)

// NewCondition returns a random condition of the kind a signature
// authentication would produce.
func NewCondition() vaultswap.Condition {
	data := make([]byte, 32)
	if _, err := rand.Read(data); err != nil {
		panic(fmt.Sprintf("cannot read random data: %s", err))
	}
	return vaultswap.NewCondition("sigs", "ed25519", data)
}

// NewKey returns a random private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}
