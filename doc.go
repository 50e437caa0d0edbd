/*
Package vaultswap defines the types shared by every part of the escrow
engine: addresses and conditions, messages and transactions, handlers,
results, and the key-value store interfaces all state lives in.

This package holds no business logic. Extensions under x/ implement the
actual operations and the app package wires them together behind an
atomic dispatch boundary.
*/
package vaultswap
