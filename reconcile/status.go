// Package reconcile derives current subscription and merchant state from
// immutable ledger event history. Nothing here is stored: expiry is a silent
// transition with no corresponding event, so status is re-evaluated against
// wall-clock time on every read.
package reconcile

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/events"
)

// State is the lifecycle position of a (subject, merchant) pair.
type State int

const (
	// StateNeverSubscribed means no mint event exists for the pair. Distinct
	// from StateExpired: one calls for a subscribe CTA, the other for a
	// renewal nudge.
	StateNeverSubscribed State = iota
	StateActive
	StateInGrace
	StateExpired
	// StateBurned means the receipt NFT was destroyed after the latest mint.
	StateBurned
)

func (s State) String() string {
	switch s {
	case StateNeverSubscribed:
		return "never_subscribed"
	case StateActive:
		return "active"
	case StateInGrace:
		return "in_grace"
	case StateExpired:
		return "expired"
	case StateBurned:
		return "burned"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SubscriptionStatus is the reconciled state of one (subject, merchant)
// pair at a given instant.
type SubscriptionStatus struct {
	State             State
	ExpiresAt         time.Time
	RenewalCount      uint64
	LastPaymentAmount *big.Int
	PaymentToken      common.Address
	IsActive          bool
	IsInGrace         bool
}

// History is the relevant event slice for one (subject, merchant) pair.
// Slices may arrive in any order; reconciliation sorts before computing.
type History struct {
	Mints    []events.Typed
	Renews   []events.Typed
	Burns    []events.Typed
	Payments []events.Typed
}

// ComputeStatus reconciles a pair's status from event history plus the
// current wall-clock time. Pure: same inputs, same output.
//
// The record is rebuilt from the most recent mint forward; renewals that
// precede it belong to a burned incarnation and are ignored. RenewalCount is
// taken verbatim from the latest renewal's embedded counter so the result
// tolerates watch gaps.
func ComputeStatus(h History, now time.Time, gracePeriod time.Duration) (SubscriptionStatus, error) {
	mints := sortedCopy(h.Mints)
	renews := sortedCopy(h.Renews)
	burns := sortedCopy(h.Burns)
	payments := sortedCopy(h.Payments)

	if len(mints) == 0 {
		return SubscriptionStatus{State: StateNeverSubscribed}, nil
	}

	latestMint := mints[len(mints)-1]
	mint, ok := latestMint.Payload.(events.SubscriptionMinted)
	if !ok {
		return SubscriptionStatus{}, fmt.Errorf("mint history contains %T", latestMint.Payload)
	}

	status := SubscriptionStatus{
		ExpiresAt: mint.ExpiresAt,
	}

	for _, ev := range renews {
		if !after(ev, latestMint) {
			continue
		}
		renew, ok := ev.Payload.(events.SubscriptionRenewed)
		if !ok {
			return SubscriptionStatus{}, fmt.Errorf("renew history contains %T", ev.Payload)
		}
		status.ExpiresAt = renew.ExpiresAt
		status.RenewalCount = renew.RenewalCount
	}

	if len(payments) > 0 {
		payment, ok := payments[len(payments)-1].Payload.(events.PaymentReceived)
		if !ok {
			return SubscriptionStatus{}, fmt.Errorf("payment history contains %T", payments[len(payments)-1].Payload)
		}
		status.LastPaymentAmount = payment.Amount
		status.PaymentToken = payment.Token
	}

	for _, ev := range burns {
		if after(ev, latestMint) {
			status.State = StateBurned
			return status, nil
		}
	}

	switch {
	case now.Before(status.ExpiresAt):
		status.State = StateActive
		status.IsActive = true
	case now.Before(status.ExpiresAt.Add(gracePeriod)):
		status.State = StateInGrace
		status.IsInGrace = true
	default:
		status.State = StateExpired
	}

	return status, nil
}

// after reports whether a comes strictly later than b in ledger order.
func after(a, b events.Typed) bool {
	if a.BlockNumber != b.BlockNumber {
		return a.BlockNumber > b.BlockNumber
	}
	return a.LogIndex > b.LogIndex
}

func sortedCopy(evs []events.Typed) []events.Typed {
	out := append([]events.Typed{}, evs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})
	return out
}
