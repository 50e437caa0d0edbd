package coin

import (
	"sort"
	"strings"

	"github.com/vaultswap/vaultswap/errors"
)

// Coins is a set of coins, one per currency at most.
// The canonical representation is sorted by ticker with no zero values,
// which makes comparisons and lookups cheap.
type Coins []*Coin

// NewCoins creates a canonical set from the given coins.
// It fails on duplicated tickers or values out of range.
func NewCoins(cs ...Coin) (Coins, error) {
	var res Coins
	var err error
	for _, c := range cs {
		res, err = res.Add(c)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Clone returns a deep copy of the set.
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return res
}

// Add joins a single coin into the set, collapsing it with an existing
// entry of the same ticker. Zero results are removed from the set.
func (cs Coins) Add(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs, nil
	}

	for i, have := range cs {
		if !have.SameType(c) {
			continue
		}
		sum, err := have.Add(c)
		if err != nil {
			return nil, err
		}
		res := cs.Clone()
		if sum.IsZero() {
			res = append(res[:i], res[i+1:]...)
		} else {
			res[i] = &sum
		}
		return res, nil
	}

	res := append(cs.Clone(), &c)
	sort.Slice(res, func(i, j int) bool {
		return res[i].Ticker < res[j].Ticker
	})
	return res, nil
}

// Subtract removes a single coin value from the set.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	return cs.Add(c.Negative())
}

// Combine adds all the coins of the other set into this one.
func (cs Coins) Combine(o Coins) (Coins, error) {
	res := cs.Clone()
	var err error
	for _, c := range o {
		res, err = res.Add(*c)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains returns true if there is at least that much
// coin of the given currency in the set.
func (cs Coins) Contains(c Coin) bool {
	for _, have := range cs {
		if have.SameType(c) {
			return have.IsGTE(c)
		}
	}
	// A zero demand is always satisfied.
	return c.IsZero() || c.Amount < 0
}

// AmountOf returns the value held in the given currency,
// zero if the currency is not in the set.
func (cs Coins) AmountOf(ticker string) Coin {
	for _, have := range cs {
		if have.Ticker == ticker {
			return *have
		}
	}
	return Coin{Ticker: ticker}
}

// IsPositive returns true there is at least one coin
// and all coins are positive
func (cs Coins) IsPositive() bool {
	if len(cs) == 0 {
		return false
	}
	return cs.IsNonNegative()
}

// IsNonNegative returns true if all coins are positive,
// or the set is empty
func (cs Coins) IsNonNegative() bool {
	for _, c := range cs {
		if !c.IsPositive() {
			return false
		}
	}
	return true
}

// IsEmpty returns true if the set holds no value at all.
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// Equals returns true if both sets hold the same value.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires a canonical set: sorted by ticker, no duplicates,
// no zero values, and every coin valid on its own.
func (cs Coins) Validate() error {
	last := ""
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.IsZero() {
			return errors.Wrap(errors.ErrAmount, "zero coin in the set")
		}
		if c.Ticker <= last {
			return errors.Wrap(errors.ErrCurrency, "not sorted or duplicated ticker")
		}
		last = c.Ticker
	}
	return nil
}

// String provides a human readable representation of the set
func (cs Coins) String() string {
	if len(cs) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
