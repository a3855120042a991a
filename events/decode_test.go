package events_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/testutil"
)

func TestDecode(t *testing.T) {
	payer := testutil.Addr(0xA1)
	usdc := testutil.Addr(0xC1)

	t.Run("payment", func(t *testing.T) {
		raw := testutil.RawPayment(100, 2, payer, 1, 1000, 50, usdc)

		typed, err := events.Decode(raw)
		require.NoError(t, err)

		payment, ok := typed.Payload.(events.PaymentReceived)
		require.True(t, ok)
		assert.Equal(t, ledger.EventPaymentReceived, payment.EventName())
		assert.Equal(t, payer, payment.Payer)
		assert.Equal(t, int64(1000), payment.Amount.Int64())
		assert.Equal(t, int64(50), payment.Fee.Int64())
		assert.Equal(t, uint64(100), typed.BlockNumber)
		assert.Equal(t, uint(2), typed.LogIndex)
		assert.Equal(t, raw.TxHash, typed.TxHash)
	})

	t.Run("mint converts the expiry to UTC time", func(t *testing.T) {
		expiry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		raw := testutil.RawMint(100, 0, payer, 1, expiry)

		typed, err := events.Decode(raw)
		require.NoError(t, err)

		mint, ok := typed.Payload.(events.SubscriptionMinted)
		require.True(t, ok)
		assert.True(t, mint.ExpiresAt.Equal(expiry))
	})

	t.Run("missing argument is a typed decode failure", func(t *testing.T) {
		raw := testutil.RawPayment(100, 0, payer, 1, 1000, 50, usdc)
		delete(raw.Args, "amount")

		_, err := events.Decode(raw)
		require.Error(t, err)

		var decodeErr *events.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, ledger.EventPaymentReceived, decodeErr.Event)
		assert.Equal(t, "amount", decodeErr.Field)
	})

	t.Run("wrong argument type is rejected, not coerced", func(t *testing.T) {
		raw := testutil.RawPayment(100, 0, payer, 1, 1000, 50, usdc)
		raw.Args["amount"] = "1000"

		var decodeErr *events.DecodeError
		_, err := events.Decode(raw)
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "amount", decodeErr.Field)
	})

	t.Run("unknown event name", func(t *testing.T) {
		raw := ledger.Event{Name: ledger.EventName("PlanUpgraded"), Args: map[string]interface{}{}}

		var decodeErr *events.DecodeError
		_, err := events.Decode(raw)
		require.ErrorAs(t, err, &decodeErr)
	})

	t.Run("renewal count outside uint64 is rejected", func(t *testing.T) {
		raw := testutil.RawMint(100, 0, payer, 1, time.Now())
		raw.Name = ledger.EventSubscriptionRenewed
		raw.Args["renewalCount"] = new(big.Int).Lsh(big.NewInt(1), 80)

		_, err := events.Decode(raw)
		assert.Error(t, err)
	})
}

func TestDecodeAll_FailsOnFirstBadEvent(t *testing.T) {
	payer := testutil.Addr(0xA1)
	usdc := testutil.Addr(0xC1)

	good := testutil.RawPayment(100, 0, payer, 1, 1000, 50, usdc)
	bad := testutil.RawPayment(100, 1, payer, 1, 2000, 100, usdc)
	delete(bad.Args, "payer")

	typed, err := events.DecodeAll([]ledger.Event{good, bad})
	assert.Error(t, err)
	assert.Nil(t, typed)

	typed, err = events.DecodeAll([]ledger.Event{good})
	require.NoError(t, err)
	assert.Len(t, typed, 1)
}
