package escrow

import (
	"github.com/vaultswap/vaultswap"
)

// InitializeEvent is emitted when an escrow becomes active. It carries
// all economic parameters of the swap.
type InitializeEvent struct {
	EscrowId        []byte
	Source          vaultswap.Address
	PrincipalTicker string
	CounterTicker   string
	FeeTicker       string
	PrincipalAmount int64
	CounterAmount   int64
	FeeInitializer  int64
	FeeTaker        int64
}

// CancelEvent is emitted when the initializer aborts an escrow.
type CancelEvent struct {
	EscrowId []byte
	Source   vaultswap.Address
}

// ExchangeEvent is emitted when a taker settles an escrow.
type ExchangeEvent struct {
	EscrowId []byte
	// TakerReceive is the account that received the principal.
	TakerReceive    vaultswap.Address
	PrincipalAmount int64
	CounterAmount   int64
	FeeInitializer  int64
	FeeTaker        int64
}

// Emitter is notified about escrow lifecycle transitions. Events are
// fire and forget, the engine never reads them back. An emitter must
// not fail and must not mutate state.
type Emitter interface {
	Initialized(InitializeEvent)
	Canceled(CancelEvent)
	Exchanged(ExchangeEvent)
}

// NopEmitter discards all events.
type NopEmitter struct{}

var _ Emitter = NopEmitter{}

func (NopEmitter) Initialized(InitializeEvent) {}
func (NopEmitter) Canceled(CancelEvent)        {}
func (NopEmitter) Exchanged(ExchangeEvent)     {}
