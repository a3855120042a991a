package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventName identifies one of the subscription-manager contract events.
type EventName string

const (
	EventPaymentReceived     EventName = "PaymentReceived"
	EventSubscriptionMinted  EventName = "SubscriptionMinted"
	EventSubscriptionRenewed EventName = "SubscriptionRenewed"
	EventSubscriptionExpired EventName = "SubscriptionExpired"
	EventSubscriptionBurned  EventName = "SubscriptionBurned"
	EventMerchantRegistered  EventName = "MerchantRegistered"
	EventMerchantWithdrawal  EventName = "MerchantWithdrawal"
)

// TxRef identifies a submitted transaction. Multiple events may share one TxRef.
type TxRef = common.Hash

// Event is an immutable fact read from the ledger. Args holds the decoded
// event arguments (indexed and non-indexed) keyed by ABI argument name.
// Total order is (BlockNumber, LogIndex).
type Event struct {
	Name        EventName
	Args        map[string]interface{}
	BlockNumber uint64
	LogIndex    uint
	TxHash      TxRef
	Contract    common.Address
}

// Filter selects events by name plus optional equality constraints on
// indexed arguments (e.g. "merchantId" -> *big.Int, "subscriber" -> common.Address).
type Filter struct {
	Event EventName
	Args  map[string]interface{}
}

// Receipt is the confirmed outcome of a submitted transaction.
type Receipt struct {
	TxHash      TxRef
	BlockNumber uint64
	Success     bool
	Logs        []*types.Log
}

// CancelFunc tears down a live event subscription. Safe to call more than once.
type CancelFunc func()

//go:generate mockgen -destination=../mocks/ledger_gateway_mock.go -package=mocks github.com/chainsub/chainsub-go/ledger Gateway

// Gateway is the ledger access capability the engine is built on. The remote
// ledger is treated as an append-only oracle: events are never mutated, reads
// reflect current chain state, writes require a configured signer.
type Gateway interface {
	// QueryEvents returns historical events matching the filter in
	// [fromBlock, toBlock], ordered by (BlockNumber, LogIndex). The gateway
	// may cap the queryable span per call; see MaxBlockRange.
	QueryEvents(ctx context.Context, filter Filter, fromBlock, toBlock uint64) ([]Event, error)

	// WatchEvents starts a live subscription. Batches arrive on onBatch in
	// non-decreasing block order. A dropped underlying subscription is
	// surfaced on onError as ErrStaleFilter; the gateway never resubscribes
	// on its own.
	WatchEvents(ctx context.Context, filter Filter, onBatch func([]Event), onError func(error)) (CancelFunc, error)

	// ReadContract calls a read-only method on the subscription-manager
	// contract and returns its outputs.
	ReadContract(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)

	// ReadAllowance returns the ERC20 allowance granted by owner to spender.
	ReadAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// ReadBalance returns owner's balance of token; the zero address means
	// the native asset.
	ReadBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// Approve submits an ERC20 approval of exactly amount for spender.
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (TxRef, error)

	// WriteContract submits a state-changing call on the subscription-manager
	// contract, attaching value as the native payment when non-nil.
	WriteContract(ctx context.Context, method string, value *big.Int, args ...interface{}) (TxRef, error)

	// WaitForReceipt blocks until the transaction is mined or ctx expires.
	// A reverted receipt is returned, not converted to an error; unknown
	// final state (timeout, connection loss) is ErrNetwork.
	WaitForReceipt(ctx context.Context, ref TxRef) (*Receipt, error)

	// BlockTime returns the timestamp of a block. Results are memoized by
	// implementations since block timestamps are immutable.
	BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error)

	// MaxBlockRange is the widest [from, to] span a single QueryEvents call
	// may cover; 0 means unlimited.
	MaxBlockRange() uint64

	// LatestBlock returns the current chain head number.
	LatestBlock(ctx context.Context) (uint64, error)

	// Contract returns the subscription-manager contract address. Token
	// approvals name it as the spender.
	Contract() common.Address

	// HasSigner reports whether write operations are possible.
	HasSigner() bool

	// SignerAddress returns the configured signer's address, or
	// ErrWalletNotConnected when running read-only.
	SignerAddress() (common.Address, error)
}
