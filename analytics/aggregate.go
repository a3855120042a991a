// Package analytics computes scalar and time-series metrics by replaying
// event ranges. Aggregations are pure functions over their input slices;
// monetary accumulation stays in big.Int end to end, with any division to a
// display value happening last.
package analytics

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/constants"
	"github.com/chainsub/chainsub-go/events"
)

// PlatformTotals are platform-wide scalars over a queried range. Volume is
// gross payment value; merchant revenue nets out the platform fee.
type PlatformTotals struct {
	Volume          *big.Int
	Fees            *big.Int
	Payments        int
	UniquePayers    int
	UniqueMerchants int
}

// MerchantStats are per-merchant scalars over a queried range. Rates are
// ratios over events observed in range, not a cohort analysis, and are 0
// when their denominator is 0.
type MerchantStats struct {
	Revenue           *big.Int // net of platform fee
	GrossVolume       *big.Int
	Withdrawn         *big.Int
	Payments          int
	UniqueSubscribers int
	Mints             int
	Renewals          int
	Expirations       int
	RenewalRate       float64 // renewals / mints * 100
	ChurnRate         float64 // expirations / (mints + renewals) * 100
}

// UserStats are per-subject spending scalars over a queried range.
type UserStats struct {
	TotalSpent *big.Int
	Payments   int
	Merchants  int // distinct merchants paid in range
}

// TokenShare is one token's slice of payment volume. ShareBps is in basis
// points; across a distribution the shares sum to exactly 10000.
type TokenShare struct {
	Token    common.Address
	Volume   *big.Int
	Payments int
	ShareBps int64
}

// AggregatePlatformTotals folds payment events into platform-wide scalars.
func AggregatePlatformTotals(payments []events.Typed) (PlatformTotals, error) {
	totals := PlatformTotals{
		Volume: new(big.Int),
		Fees:   new(big.Int),
	}
	payers := make(map[common.Address]struct{})
	merchants := make(map[string]struct{})

	for _, ev := range payments {
		payment, ok := ev.Payload.(events.PaymentReceived)
		if !ok {
			return PlatformTotals{}, fmt.Errorf("payment slice contains %T", ev.Payload)
		}
		totals.Volume.Add(totals.Volume, payment.Amount)
		totals.Fees.Add(totals.Fees, payment.Fee)
		totals.Payments++
		payers[payment.Payer] = struct{}{}
		merchants[payment.MerchantID.String()] = struct{}{}
	}

	totals.UniquePayers = len(payers)
	totals.UniqueMerchants = len(merchants)
	return totals, nil
}

// AggregateMerchantStats folds a merchant's event slices into scalars.
func AggregateMerchantStats(payments, mints, renews, expirations, withdrawals []events.Typed) (MerchantStats, error) {
	stats := MerchantStats{
		Revenue:     new(big.Int),
		GrossVolume: new(big.Int),
		Withdrawn:   new(big.Int),
	}
	subscribers := make(map[common.Address]struct{})

	for _, ev := range payments {
		payment, ok := ev.Payload.(events.PaymentReceived)
		if !ok {
			return MerchantStats{}, fmt.Errorf("payment slice contains %T", ev.Payload)
		}
		net := new(big.Int).Sub(payment.Amount, payment.Fee)
		stats.Revenue.Add(stats.Revenue, net)
		stats.GrossVolume.Add(stats.GrossVolume, payment.Amount)
		stats.Payments++
		subscribers[payment.Payer] = struct{}{}
	}

	for _, ev := range withdrawals {
		withdrawal, ok := ev.Payload.(events.MerchantWithdrawal)
		if !ok {
			return MerchantStats{}, fmt.Errorf("withdrawal slice contains %T", ev.Payload)
		}
		stats.Withdrawn.Add(stats.Withdrawn, withdrawal.Amount)
	}

	stats.UniqueSubscribers = len(subscribers)
	stats.Mints = len(mints)
	stats.Renewals = len(renews)
	stats.Expirations = len(expirations)
	stats.RenewalRate = rate(stats.Renewals, stats.Mints)
	stats.ChurnRate = rate(stats.Expirations, stats.Mints+stats.Renewals)

	return stats, nil
}

// AggregateUserStats folds a subject's payment events into scalars.
func AggregateUserStats(payments []events.Typed) (UserStats, error) {
	stats := UserStats{TotalSpent: new(big.Int)}
	merchants := make(map[string]struct{})

	for _, ev := range payments {
		payment, ok := ev.Payload.(events.PaymentReceived)
		if !ok {
			return UserStats{}, fmt.Errorf("payment slice contains %T", ev.Payload)
		}
		stats.TotalSpent.Add(stats.TotalSpent, payment.Amount)
		stats.Payments++
		merchants[payment.MerchantID.String()] = struct{}{}
	}

	stats.Merchants = len(merchants)
	return stats, nil
}

// AggregateTokenDistribution computes each payment token's share of gross
// volume. Shares are computed with integer arithmetic scaled to basis points
// before dividing, so large integer amounts never pass through floating
// point; any rounding remainder is assigned to the largest bucket so the
// shares sum to exactly 10000.
func AggregateTokenDistribution(payments []events.Typed) ([]TokenShare, error) {
	volumes := make(map[common.Address]*TokenShare)

	total := new(big.Int)
	for _, ev := range payments {
		payment, ok := ev.Payload.(events.PaymentReceived)
		if !ok {
			return nil, fmt.Errorf("payment slice contains %T", ev.Payload)
		}
		share, ok := volumes[payment.Token]
		if !ok {
			share = &TokenShare{Token: payment.Token, Volume: new(big.Int)}
			volumes[payment.Token] = share
		}
		share.Volume.Add(share.Volume, payment.Amount)
		share.Payments++
		total.Add(total, payment.Amount)
	}

	shares := make([]TokenShare, 0, len(volumes))
	for _, share := range volumes {
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		cmp := shares[i].Volume.Cmp(shares[j].Volume)
		if cmp != 0 {
			return cmp > 0
		}
		return shares[i].Token.Hex() < shares[j].Token.Hex()
	})

	if total.Sign() == 0 {
		return shares, nil
	}

	scale := big.NewInt(constants.BasisPointsTotal)
	assigned := int64(0)
	for i := range shares {
		bps := new(big.Int).Mul(shares[i].Volume, scale)
		bps.Quo(bps, total)
		shares[i].ShareBps = bps.Int64()
		assigned += shares[i].ShareBps
	}
	// Truncation remainder goes to the largest bucket.
	if len(shares) > 0 {
		shares[0].ShareBps += constants.BasisPointsTotal - assigned
	}

	return shares, nil
}

// rate returns numerator/denominator as a percentage, 0 when the
// denominator is 0. Never NaN.
func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}
