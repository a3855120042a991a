// Package testutil provides deterministic event fixtures for unit tests.
package testutil

import (
	"encoding/binary"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/ledger"
)

// Addr builds a deterministic address from a seed byte.
func Addr(seed byte) common.Address {
	var a common.Address
	a[19] = seed
	return a
}

// TxHash builds a deterministic transaction hash from a position, so events
// in the same (block, index) slot collide the way chunk-boundary duplicates
// do.
func TxHash(block uint64, index uint) common.Hash {
	var h common.Hash
	binary.BigEndian.PutUint64(h[0:8], block)
	binary.BigEndian.PutUint64(h[8:16], uint64(index))
	return h
}

func typed(payload events.Payload, block uint64, index uint) events.Typed {
	return events.Typed{
		Payload:     payload,
		BlockNumber: block,
		LogIndex:    index,
		TxHash:      TxHash(block, index),
	}
}

// Payment builds a PaymentReceived fixture.
func Payment(block uint64, index uint, payer common.Address, merchantID, amount, fee int64, token common.Address) events.Typed {
	return typed(events.PaymentReceived{
		Payer:      payer,
		MerchantID: big.NewInt(merchantID),
		Token:      token,
		Amount:     big.NewInt(amount),
		Fee:        big.NewInt(fee),
	}, block, index)
}

// Mint builds a SubscriptionMinted fixture.
func Mint(block uint64, index uint, subscriber common.Address, merchantID int64, expiresAt time.Time) events.Typed {
	return typed(events.SubscriptionMinted{
		Subscriber: subscriber,
		MerchantID: big.NewInt(merchantID),
		TokenID:    big.NewInt(int64(block)),
		ExpiresAt:  expiresAt.UTC(),
	}, block, index)
}

// Renew builds a SubscriptionRenewed fixture.
func Renew(block uint64, index uint, subscriber common.Address, merchantID int64, expiresAt time.Time, count uint64) events.Typed {
	return typed(events.SubscriptionRenewed{
		Subscriber:   subscriber,
		MerchantID:   big.NewInt(merchantID),
		TokenID:      big.NewInt(int64(block)),
		ExpiresAt:    expiresAt.UTC(),
		RenewalCount: count,
	}, block, index)
}

// Expire builds a SubscriptionExpired fixture.
func Expire(block uint64, index uint, subscriber common.Address, merchantID int64) events.Typed {
	return typed(events.SubscriptionExpired{
		Subscriber: subscriber,
		MerchantID: big.NewInt(merchantID),
		TokenID:    big.NewInt(int64(block)),
	}, block, index)
}

// Burn builds a SubscriptionBurned fixture.
func Burn(block uint64, index uint, subscriber common.Address, merchantID int64) events.Typed {
	return typed(events.SubscriptionBurned{
		Subscriber: subscriber,
		MerchantID: big.NewInt(merchantID),
		TokenID:    big.NewInt(int64(block)),
	}, block, index)
}

// Registered builds a MerchantRegistered fixture.
func Registered(block uint64, index uint, merchantID int64, owner, payout common.Address, period, grace time.Duration) events.Typed {
	return typed(events.MerchantRegistered{
		MerchantID:    big.NewInt(merchantID),
		Owner:         owner,
		PayoutAddress: payout,
		Period:        period,
		GracePeriod:   grace,
	}, block, index)
}

// Withdrawal builds a MerchantWithdrawal fixture.
func Withdrawal(block uint64, index uint, merchantID, amount int64, token, to common.Address) events.Typed {
	return typed(events.MerchantWithdrawal{
		MerchantID: big.NewInt(merchantID),
		Token:      token,
		Amount:     big.NewInt(amount),
		To:         to,
	}, block, index)
}

// RawPayment builds an undecoded ledger.Event as the gateway would emit it.
func RawPayment(block uint64, index uint, payer common.Address, merchantID, amount, fee int64, token common.Address) ledger.Event {
	return ledger.Event{
		Name: ledger.EventPaymentReceived,
		Args: map[string]interface{}{
			"payer":      payer,
			"merchantId": big.NewInt(merchantID),
			"token":      token,
			"amount":     big.NewInt(amount),
			"fee":        big.NewInt(fee),
		},
		BlockNumber: block,
		LogIndex:    index,
		TxHash:      TxHash(block, index),
	}
}

// RawMint builds an undecoded SubscriptionMinted ledger.Event.
func RawMint(block uint64, index uint, subscriber common.Address, merchantID int64, expiresAt time.Time) ledger.Event {
	return ledger.Event{
		Name: ledger.EventSubscriptionMinted,
		Args: map[string]interface{}{
			"subscriber": subscriber,
			"merchantId": big.NewInt(merchantID),
			"tokenId":    big.NewInt(int64(block)),
			"expiresAt":  big.NewInt(expiresAt.UTC().Unix()),
		},
		BlockNumber: block,
		LogIndex:    index,
		TxHash:      TxHash(block, index),
	}
}
