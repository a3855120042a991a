package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsub/chainsub-go/analytics"
	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/logger"
	"github.com/chainsub/chainsub-go/testutil"
)

func init() {
	logger.InitLogger("test")
}

func TestAggregateMerchantStats(t *testing.T) {
	payerA := testutil.Addr(0xA1)
	payerB := testutil.Addr(0xA2)
	usdc := testutil.Addr(0xC1)

	t.Run("revenue nets out the platform fee", func(t *testing.T) {
		payments := []events.Typed{
			testutil.Payment(100, 0, payerA, 1, 1000, 50, usdc),
			testutil.Payment(101, 0, payerB, 1, 2000, 100, usdc),
		}

		stats, err := analytics.AggregateMerchantStats(payments, nil, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2850), stats.Revenue.Int64())
		assert.Equal(t, int64(3000), stats.GrossVolume.Int64())
		assert.Equal(t, 2, stats.Payments)
		assert.Equal(t, 2, stats.UniqueSubscribers)
	})

	t.Run("rates are zero when their denominators are zero", func(t *testing.T) {
		stats, err := analytics.AggregateMerchantStats(nil, nil, nil, nil, nil)
		require.NoError(t, err)
		assert.Zero(t, stats.RenewalRate)
		assert.Zero(t, stats.ChurnRate)
		assert.Zero(t, stats.Revenue.Sign())
	})

	t.Run("renewal and churn rates in percent", func(t *testing.T) {
		expiry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		mints := []events.Typed{
			testutil.Mint(100, 0, payerA, 1, expiry),
			testutil.Mint(110, 0, payerB, 1, expiry),
		}
		renews := []events.Typed{testutil.Renew(200, 0, payerA, 1, expiry, 1)}
		expirations := []events.Typed{testutil.Expire(300, 0, payerB, 1)}

		stats, err := analytics.AggregateMerchantStats(nil, mints, renews, expirations, nil)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, stats.RenewalRate, 1e-9)
		// 1 expiration across 3 lifecycle events
		assert.InDelta(t, 100.0/3.0, stats.ChurnRate, 1e-9)
	})

	t.Run("withdrawals accumulate separately from revenue", func(t *testing.T) {
		withdrawals := []events.Typed{
			testutil.Withdrawal(100, 0, 1, 700, usdc, payerA),
			testutil.Withdrawal(120, 0, 1, 300, usdc, payerA),
		}
		stats, err := analytics.AggregateMerchantStats(nil, nil, nil, nil, withdrawals)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), stats.Withdrawn.Int64())
	})

	t.Run("foreign payloads are rejected", func(t *testing.T) {
		bad := []events.Typed{testutil.Burn(100, 0, payerA, 1)}
		_, err := analytics.AggregateMerchantStats(bad, nil, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("replaying the same slice is idempotent", func(t *testing.T) {
		payments := []events.Typed{testutil.Payment(100, 0, payerA, 1, 1000, 50, usdc)}
		first, err := analytics.AggregateMerchantStats(payments, nil, nil, nil, nil)
		require.NoError(t, err)
		second, err := analytics.AggregateMerchantStats(payments, nil, nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestAggregatePlatformTotals(t *testing.T) {
	payerA := testutil.Addr(0xA1)
	usdc := testutil.Addr(0xC1)
	dai := testutil.Addr(0xC2)

	payments := []events.Typed{
		testutil.Payment(100, 0, payerA, 1, 1000, 50, usdc),
		testutil.Payment(101, 0, payerA, 2, 500, 25, dai),
	}

	totals, err := analytics.AggregatePlatformTotals(payments)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), totals.Volume.Int64())
	assert.Equal(t, int64(75), totals.Fees.Int64())
	assert.Equal(t, 2, totals.Payments)
	assert.Equal(t, 1, totals.UniquePayers)
	assert.Equal(t, 2, totals.UniqueMerchants)
}

func TestAggregateUserStats(t *testing.T) {
	payer := testutil.Addr(0xA1)
	usdc := testutil.Addr(0xC1)

	payments := []events.Typed{
		testutil.Payment(100, 0, payer, 1, 1000, 50, usdc),
		testutil.Payment(150, 0, payer, 2, 2000, 100, usdc),
		testutil.Payment(200, 0, payer, 1, 1000, 50, usdc),
	}

	stats, err := analytics.AggregateUserStats(payments)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), stats.TotalSpent.Int64())
	assert.Equal(t, 3, stats.Payments)
	assert.Equal(t, 2, stats.Merchants)
}

func TestAggregateTokenDistribution(t *testing.T) {
	payer := testutil.Addr(0xA1)
	usdc := testutil.Addr(0xC1)
	dai := testutil.Addr(0xC2)
	weth := testutil.Addr(0xC3)

	t.Run("shares always sum to exactly 10000 bps", func(t *testing.T) {
		// 1/3 splits truncate; the remainder lands on the largest bucket.
		payments := []events.Typed{
			testutil.Payment(100, 0, payer, 1, 100, 0, usdc),
			testutil.Payment(101, 0, payer, 1, 100, 0, dai),
			testutil.Payment(102, 0, payer, 1, 100, 0, weth),
			testutil.Payment(103, 0, payer, 1, 1, 0, usdc),
		}

		shares, err := analytics.AggregateTokenDistribution(payments)
		require.NoError(t, err)
		require.Len(t, shares, 3)

		sum := int64(0)
		for _, share := range shares {
			sum += share.ShareBps
		}
		assert.Equal(t, int64(10000), sum)

		// sorted by volume desc, largest bucket first
		assert.Equal(t, usdc, shares[0].Token)
		assert.Equal(t, int64(101), shares[0].Volume.Int64())
	})

	t.Run("empty input yields an empty distribution", func(t *testing.T) {
		shares, err := analytics.AggregateTokenDistribution(nil)
		require.NoError(t, err)
		assert.Empty(t, shares)
	})

	t.Run("equal volumes tie-break on token address", func(t *testing.T) {
		payments := []events.Typed{
			testutil.Payment(100, 0, payer, 1, 500, 0, dai),
			testutil.Payment(101, 0, payer, 1, 500, 0, usdc),
		}
		shares, err := analytics.AggregateTokenDistribution(payments)
		require.NoError(t, err)
		require.Len(t, shares, 2)
		assert.True(t, shares[0].Token.Hex() < shares[1].Token.Hex())
		assert.Equal(t, int64(10000), shares[0].ShareBps+shares[1].ShareBps)
	})
}

func TestBucketRevenue(t *testing.T) {
	payer := testutil.Addr(0xA1)
	usdc := testutil.Addr(0xC1)

	t.Run("payments in different ISO weeks land in distinct buckets", func(t *testing.T) {
		payments := []analytics.Stamped{
			{
				Event: testutil.Payment(100, 0, payer, 1, 1000, 50, usdc),
				At:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				Event: testutil.Payment(200, 0, payer, 1, 2000, 100, usdc),
				At:    time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
			},
		}

		series, err := analytics.BucketRevenue(payments, analytics.BucketISOWeek)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, "2024-W01", series[0].Bucket)
		assert.Equal(t, int64(950), series[0].Revenue.Int64())
		assert.Equal(t, "2024-W02", series[1].Bucket)
		assert.Equal(t, int64(1900), series[1].Revenue.Int64())
	})

	t.Run("same-day payments fold into one daily bucket", func(t *testing.T) {
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		payments := []analytics.Stamped{
			{Event: testutil.Payment(100, 0, payer, 1, 1000, 50, usdc), At: at},
			{Event: testutil.Payment(100, 1, payer, 1, 1000, 50, usdc), At: at.Add(5 * time.Hour)},
		}

		series, err := analytics.BucketRevenue(payments, analytics.BucketDay)
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "2024-01-01", series[0].Bucket)
		assert.Equal(t, int64(1900), series[0].Revenue.Int64())
		assert.Equal(t, int64(2000), series[0].Volume.Int64())
		assert.Equal(t, 2, series[0].Payments)
	})
}

func TestBucketGrowth(t *testing.T) {
	subA := testutil.Addr(0xA1)
	subB := testutil.Addr(0xA2)
	expiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mints := []analytics.Stamped{
		{Event: testutil.Mint(100, 0, subA, 1, expiry), At: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Event: testutil.Mint(200, 0, subB, 1, expiry), At: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
		// subA re-subscribing is not a new subscriber
		{Event: testutil.Mint(300, 0, subA, 1, expiry), At: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}

	series, err := analytics.BucketGrowth(mints, analytics.BucketMonth)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, analytics.GrowthPoint{Bucket: "2024-01", New: 1, Cumulative: 1}, series[0])
	assert.Equal(t, analytics.GrowthPoint{Bucket: "2024-02", New: 1, Cumulative: 2}, series[1])
}

func TestBucketLabel_UnknownBucket(t *testing.T) {
	_, err := analytics.BucketLabel(time.Now(), analytics.Bucket("fortnight"))
	assert.Error(t, err)
}
