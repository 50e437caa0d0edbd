/*
Package x contains the glue shared by all extensions: the
Authenticator interface that reveals who authorized the current
operation, and helpers to reason about the revealed conditions.
*/
package x

import (
	"github.com/vaultswap/vaultswap"
)

// Authenticator is an interface we can use to extract authentication
// info from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system, rather
// than hard-coding one for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want the GetAddresses helper
	GetConditions(vaultswap.Context) []vaultswap.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(vaultswap.Context, vaultswap.Address) bool
}

// MultiAuth chains together many Authenticators into one.
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators.
func (m MultiAuth) GetConditions(ctx vaultswap.Context) []vaultswap.Condition {
	var res []vaultswap.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator supports this address.
func (m MultiAuth) HasAddress(ctx vaultswap.Context, addr vaultswap.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator.
func GetAddresses(ctx vaultswap.Context, auth Authenticator) []vaultswap.Address {
	perms := auth.GetConditions(ctx)
	addrs := make([]vaultswap.Address, len(perms))
	for i, p := range perms {
		addrs[i] = p.Address()
	}
	return addrs
}

// MainSigner returns the first condition if any, otherwise nil.
func MainSigner(ctx vaultswap.Context, auth Authenticator) vaultswap.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are also in
// the context.
func HasAllAddresses(ctx vaultswap.Context, auth Authenticator, required []vaultswap.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// HasAllConditions returns true if all elements in required are also
// in the context.
func HasAllConditions(ctx vaultswap.Context, auth Authenticator, required []vaultswap.Condition) bool {
	perms := auth.GetConditions(ctx)
	for _, r := range required {
		if !hasPerm(perms, r) {
			return false
		}
	}
	return true
}

func hasPerm(perms []vaultswap.Condition, perm vaultswap.Condition) bool {
	for _, p := range perms {
		if p.Equals(perm) {
			return true
		}
	}
	return false
}
