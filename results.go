package vaultswap

import (
	"github.com/tendermint/tendermint/libs/common"
)

// CheckResult captures any non-error result of a dry-run validation,
// to make sure people use error for error cases.
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// GasAllocated is the maximum units of work we allow this tx to perform
	GasAllocated int64
}

// NewCheck sets the gas used and the response data but no more info
// these are the most common info needed to be set by the Handler
func NewCheck(gasAllocated int64, log string) *CheckResult {
	return &CheckResult{
		GasAllocated: gasAllocated,
		Log:          log,
	}
}

// DeliverResult captures any non-error result of an executed
// operation, to make sure people use error for error cases.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity
	Data []byte
	// Log is human-readable informational string
	Log string
	// Tags can be used by callers to index and search the operation history
	Tags []common.KVPair
	// GasUsed is the amount of work this operation performed
	GasUsed int64
}
