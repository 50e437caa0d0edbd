/*
Package swaptest provides mocks and helpers for testing handlers and
decorators without spinning up the whole engine.
*/
package swaptest

import (
	"context"
	"fmt"

	"github.com/vaultswap/vaultswap"
)

// Auth is a mock implementing the x.Authenticator interface.
//
// This structure authenticates any of the referenced conditions.
// You can use either the Signer or Signers (or both) attributes to
// reference conditions. Each time all signers (regardless which
// attribute) are considered.
type Auth struct {
	// Signer represents an authentication of a single signer. This is
	// a convenience attribute when creating an authentication method
	// for a single signer.
	Signer vaultswap.Condition

	// Signers represents an authentication of multiple signers.
	Signers []vaultswap.Condition
}

func (a *Auth) GetConditions(vaultswap.Context) []vaultswap.Condition {
	if a.Signer != nil {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx vaultswap.Context, addr vaultswap.Address) bool {
	for _, s := range a.Signers {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	if a.Signer == nil {
		return false
	}
	return addr.Equals(a.Signer.Address())
}

// CtxAuth is a mock implementing the x.Authenticator interface.
//
// This implementation is using the context to store and retrieve
// permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context.
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetConditions(ctx vaultswap.Context, permissions ...vaultswap.Condition) vaultswap.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), permissions)
}

func (a *CtxAuth) GetConditions(ctx vaultswap.Context) []vaultswap.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]vaultswap.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []vaultswap.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx vaultswap.Context, addr vaultswap.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
