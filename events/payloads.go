package events

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/ledger"
)

// Payload is the tagged union of decoded event arguments. Exactly one
// concrete type exists per ledger event name.
type Payload interface {
	EventName() ledger.EventName
}

// Typed pairs a decoded payload with the positional metadata every consumer
// needs for ordering and idempotency.
type Typed struct {
	Payload     Payload
	BlockNumber uint64
	LogIndex    uint
	TxHash      ledger.TxRef
}

// PaymentReceived records a subscription payment. Amount is the gross value
// paid; Fee is the platform's cut, so the merchant nets Amount-Fee.
type PaymentReceived struct {
	Payer      common.Address
	MerchantID *big.Int
	Token      common.Address
	Amount     *big.Int
	Fee        *big.Int
}

func (PaymentReceived) EventName() ledger.EventName { return ledger.EventPaymentReceived }

// SubscriptionMinted records the creation of a subscription receipt NFT.
type SubscriptionMinted struct {
	Subscriber common.Address
	MerchantID *big.Int
	TokenID    *big.Int
	ExpiresAt  time.Time
}

func (SubscriptionMinted) EventName() ledger.EventName { return ledger.EventSubscriptionMinted }

// SubscriptionRenewed records a renewal. RenewalCount is the contract's own
// counter and is the source of truth; consumers must not increment locally.
type SubscriptionRenewed struct {
	Subscriber   common.Address
	MerchantID   *big.Int
	TokenID      *big.Int
	ExpiresAt    time.Time
	RenewalCount uint64
}

func (SubscriptionRenewed) EventName() ledger.EventName { return ledger.EventSubscriptionRenewed }

// SubscriptionExpired records an on-chain expiry finalization.
type SubscriptionExpired struct {
	Subscriber common.Address
	MerchantID *big.Int
	TokenID    *big.Int
}

func (SubscriptionExpired) EventName() ledger.EventName { return ledger.EventSubscriptionExpired }

// SubscriptionBurned records destruction of the receipt NFT.
type SubscriptionBurned struct {
	Subscriber common.Address
	MerchantID *big.Int
	TokenID    *big.Int
}

func (SubscriptionBurned) EventName() ledger.EventName { return ledger.EventSubscriptionBurned }

// MerchantRegistered records the creation of a merchant plan.
type MerchantRegistered struct {
	MerchantID    *big.Int
	Owner         common.Address
	PayoutAddress common.Address
	Period        time.Duration
	GracePeriod   time.Duration
}

func (MerchantRegistered) EventName() ledger.EventName { return ledger.EventMerchantRegistered }

// MerchantWithdrawal records a merchant payout.
type MerchantWithdrawal struct {
	MerchantID *big.Int
	Token      common.Address
	Amount     *big.Int
	To         common.Address
}

func (MerchantWithdrawal) EventName() ledger.EventName { return ledger.EventMerchantWithdrawal }
