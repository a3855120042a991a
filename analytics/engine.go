package analytics

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/logger"
)

// Engine replays historical event ranges from the ledger to produce metrics.
// Any gateway error fails the whole aggregation: partial metrics are
// indistinguishable from legitimately-zero metrics to a caller.
type Engine struct {
	gateway ledger.Gateway
	logger  *zap.Logger
}

// NewEngine creates an aggregation engine over a gateway.
func NewEngine(gateway ledger.Gateway) *Engine {
	log := logger.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		gateway: gateway,
		logger:  log,
	}
}

// QueryRange fetches every event matching the filter in [fromBlock, toBlock],
// chunking by the gateway's block-span cap, concatenating chunks in order and
// de-duplicating on (txHash, logIndex) since a boundary event could appear
// in two chunks.
func (e *Engine) QueryRange(ctx context.Context, filter ledger.Filter, fromBlock, toBlock uint64) ([]events.Typed, error) {
	if toBlock < fromBlock {
		return nil, fmt.Errorf("invalid block range [%d, %d]", fromBlock, toBlock)
	}

	span := e.gateway.MaxBlockRange()
	var raw []ledger.Event

	start := fromBlock
	for {
		end := toBlock
		if span > 0 && toBlock-start >= span {
			end = start + span - 1
		}

		chunk, err := e.gateway.QueryEvents(ctx, filter, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s events in [%d, %d]: %w", filter.Event, start, end, err)
		}
		raw = append(raw, chunk...)

		if end >= toBlock {
			break
		}
		start = end + 1
	}

	seen := make(map[string]struct{}, len(raw))
	deduped := raw[:0]
	for _, ev := range raw {
		key := fmt.Sprintf("%s:%d", ev.TxHash.Hex(), ev.LogIndex)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, ev)
	}

	return events.DecodeAll(deduped)
}

// PlatformTotals aggregates platform-wide payment scalars over a range.
func (e *Engine) PlatformTotals(ctx context.Context, fromBlock, toBlock uint64) (PlatformTotals, error) {
	payments, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventPaymentReceived}, fromBlock, toBlock)
	if err != nil {
		return PlatformTotals{}, err
	}
	return AggregatePlatformTotals(payments)
}

// MerchantAnalytics aggregates one merchant's scalars over a range.
func (e *Engine) MerchantAnalytics(ctx context.Context, merchantID *big.Int, fromBlock, toBlock uint64) (MerchantStats, error) {
	byMerchant := map[string]interface{}{"merchantId": merchantID}

	payments, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventPaymentReceived, Args: byMerchant}, fromBlock, toBlock)
	if err != nil {
		return MerchantStats{}, err
	}
	mints, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventSubscriptionMinted, Args: byMerchant}, fromBlock, toBlock)
	if err != nil {
		return MerchantStats{}, err
	}
	renews, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventSubscriptionRenewed, Args: byMerchant}, fromBlock, toBlock)
	if err != nil {
		return MerchantStats{}, err
	}
	expirations, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventSubscriptionExpired, Args: byMerchant}, fromBlock, toBlock)
	if err != nil {
		return MerchantStats{}, err
	}
	withdrawals, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventMerchantWithdrawal, Args: byMerchant}, fromBlock, toBlock)
	if err != nil {
		return MerchantStats{}, err
	}

	return AggregateMerchantStats(payments, mints, renews, expirations, withdrawals)
}

// UserAnalytics aggregates one subject's spending over a range.
func (e *Engine) UserAnalytics(ctx context.Context, subject common.Address, fromBlock, toBlock uint64) (UserStats, error) {
	payments, err := e.QueryRange(ctx, ledger.Filter{
		Event: ledger.EventPaymentReceived,
		Args:  map[string]interface{}{"payer": subject},
	}, fromBlock, toBlock)
	if err != nil {
		return UserStats{}, err
	}
	return AggregateUserStats(payments)
}

// TokenDistribution aggregates payment volume shares per token over a range.
func (e *Engine) TokenDistribution(ctx context.Context, fromBlock, toBlock uint64) ([]TokenShare, error) {
	payments, err := e.QueryRange(ctx, ledger.Filter{Event: ledger.EventPaymentReceived}, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	return AggregateTokenDistribution(payments)
}

// RevenueTrend produces a calendar-bucketed revenue series for one merchant,
// or platform-wide when merchantID is nil.
func (e *Engine) RevenueTrend(ctx context.Context, merchantID *big.Int, fromBlock, toBlock uint64, bucket Bucket) ([]TrendPoint, error) {
	filter := ledger.Filter{Event: ledger.EventPaymentReceived}
	if merchantID != nil {
		filter.Args = map[string]interface{}{"merchantId": merchantID}
	}

	payments, err := e.QueryRange(ctx, filter, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	stamped, err := e.stamp(ctx, payments)
	if err != nil {
		return nil, err
	}
	return BucketRevenue(stamped, bucket)
}

// SubscriberGrowth produces a calendar-bucketed distinct-subscriber series
// for one merchant, or platform-wide when merchantID is nil.
func (e *Engine) SubscriberGrowth(ctx context.Context, merchantID *big.Int, fromBlock, toBlock uint64, bucket Bucket) ([]GrowthPoint, error) {
	filter := ledger.Filter{Event: ledger.EventSubscriptionMinted}
	if merchantID != nil {
		filter.Args = map[string]interface{}{"merchantId": merchantID}
	}

	mints, err := e.QueryRange(ctx, filter, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}
	stamped, err := e.stamp(ctx, mints)
	if err != nil {
		return nil, err
	}
	return BucketGrowth(stamped, bucket)
}

// stamp resolves block timestamps for a decoded slice. The gateway memoizes
// header lookups, so repeated blocks cost one RPC round trip total.
func (e *Engine) stamp(ctx context.Context, evs []events.Typed) ([]Stamped, error) {
	stamped := make([]Stamped, 0, len(evs))
	for _, ev := range evs {
		at, err := e.gateway.BlockTime(ctx, ev.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve timestamp for block %d: %w", ev.BlockNumber, err)
		}
		stamped = append(stamped, Stamped{Event: ev, At: at})
	}
	return stamped, nil
}
