package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// Sentinel errors for the failure taxonomy. Callers branch with errors.Is;
// the richer variants below attach diagnostics and unwrap to these.
var (
	// ErrWalletNotConnected means the operation needs a signer and none is
	// configured. Fatal to the attempted call, never retried automatically.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrInsufficientBalance means a pre-flight balance check failed before
	// anything was submitted.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrApprovalFailed means a token approval reverted or was rejected; the
	// dependent action must not be submitted.
	ErrApprovalFailed = errors.New("approval failed")

	// ErrTransactionReverted means the primary action's receipt carries
	// reverted status: a known failure.
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrNetwork means a gateway call failed or timed out: the final state
	// of any in-flight submission is unknown.
	ErrNetwork = errors.New("ledger network error")

	// ErrStaleFilter means a live event subscription dropped. The watch
	// layer does not auto-resume; the caller decides the safe resumption
	// point.
	ErrStaleFilter = errors.New("event subscription dropped")
)

// RevertError carries the receipt of a reverted transaction so callers can
// inspect its logs.
type RevertError struct {
	Receipt *Receipt
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction %s reverted in block %d", e.Receipt.TxHash.Hex(), e.Receipt.BlockNumber)
}

func (e *RevertError) Unwrap() error { return ErrTransactionReverted }

// Logs returns the receipt logs for caller diagnosis.
func (e *RevertError) Logs() []*types.Log { return e.Receipt.Logs }

// NetworkError wraps a transport-level failure from the underlying client.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return ErrNetwork }

// StaleFilterError reports a dropped subscription together with the
// underlying cause.
type StaleFilterError struct {
	Err error
}

func (e *StaleFilterError) Error() string {
	return fmt.Sprintf("event subscription dropped: %v", e.Err)
}

func (e *StaleFilterError) Unwrap() error { return ErrStaleFilter }
