/*
Package cash defines a simple wallet implementation and is the ledger
substrate of the engine.

Each wallet is identified by an address and holds a set of coins. The
Controller moves value between wallets; every other extension that
needs to move funds (the escrow engine above all) does so through it,
so all balance rules live in one place.
*/
package cash
