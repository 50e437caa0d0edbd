/*
Package escrow implements a trust-minimized atomic swap between two
parties.

An initializer locks an amount of one asset in a custodial vault and
declares the amount of another asset it wants in return, along with the
protocol fees both sides owe. A taker can later settle the swap in a
single atomic operation, or the initializer can cancel and reclaim the
locked funds. The vault is a regular cash wallet whose address is
derived from the escrow id, so only this package can reconstruct the
condition that controls it.

Protocol fees are routed through a per-ticker fee configuration. The
initializer fee is taken into a shared fee vault when the escrow is
created and forwarded to the collector on settlement; the taker fee is
charged at settlement time. When a fee signer is registered, every
settlement must present a signed authorization over the fee routing.

Closed escrows are kept for audit and purged by the Sweeper after a
retention period.
*/
package escrow
