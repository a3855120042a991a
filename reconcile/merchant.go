package reconcile

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/events"
)

// MerchantPlan is the derived plan record for one merchant.
type MerchantPlan struct {
	MerchantID         *big.Int
	Owner              common.Address
	PayoutAddress      common.Address
	SubscriptionPeriod time.Duration
	GracePeriod        time.Duration
	IsActive           bool

	// TotalSubscribers is cumulative and monotonic: it counts all-time
	// mints for this merchant, not the currently active set.
	TotalSubscribers uint64
}

// MerchantPlanFromEvents rebuilds a merchant plan from its registration and
// mint history. A nil plan (and nil error) means the merchant was never
// registered; that is an expected negative lookup, not a failure.
func MerchantPlanFromEvents(registrations, mints []events.Typed) (*MerchantPlan, error) {
	regs := sortedCopy(registrations)
	if len(regs) == 0 {
		return nil, nil
	}

	// Latest registration wins for the mutable plan fields.
	latest := regs[len(regs)-1]
	reg, ok := latest.Payload.(events.MerchantRegistered)
	if !ok {
		return nil, fmt.Errorf("registration history contains %T", latest.Payload)
	}

	plan := &MerchantPlan{
		MerchantID:         reg.MerchantID,
		Owner:              reg.Owner,
		PayoutAddress:      reg.PayoutAddress,
		SubscriptionPeriod: reg.Period,
		GracePeriod:        reg.GracePeriod,
		IsActive:           true,
	}

	for _, ev := range mints {
		if _, ok := ev.Payload.(events.SubscriptionMinted); !ok {
			return nil, fmt.Errorf("mint history contains %T", ev.Payload)
		}
		plan.TotalSubscribers++
	}

	return plan, nil
}

// PriceTable is the derived (merchant, token) price map. Latest write wins;
// no history is kept.
type PriceTable struct {
	mu     sync.RWMutex
	prices map[string]*big.Int
}

// NewPriceTable creates an empty price table.
func NewPriceTable() *PriceTable {
	return &PriceTable{prices: make(map[string]*big.Int)}
}

// Set overwrites the price for a (merchant, token) pair.
func (t *PriceTable) Set(merchantID *big.Int, token common.Address, price *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices[priceKey(merchantID, token)] = new(big.Int).Set(price)
}

// Get returns the stored price and whether one exists.
func (t *PriceTable) Get(merchantID *big.Int, token common.Address) (*big.Int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	price, ok := t.prices[priceKey(merchantID, token)]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(price), true
}

func priceKey(merchantID *big.Int, token common.Address) string {
	return merchantID.String() + ":" + token.Hex()
}
