package events

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/ledger"
)

// DecodeError reports a malformed or missing event argument. Decoding never
// degrades silently: a bad payload is a typed failure, not a partial struct.
type DecodeError struct {
	Event ledger.EventName
	Field string
	Cause string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s.%s: %s", e.Event, e.Field, e.Cause)
}

// Decode converts a raw ledger event into its typed payload.
func Decode(ev ledger.Event) (Typed, error) {
	payload, err := decodePayload(ev)
	if err != nil {
		return Typed{}, err
	}
	return Typed{
		Payload:     payload,
		BlockNumber: ev.BlockNumber,
		LogIndex:    ev.LogIndex,
		TxHash:      ev.TxHash,
	}, nil
}

// DecodeAll converts a slice, failing on the first malformed event.
func DecodeAll(evs []ledger.Event) ([]Typed, error) {
	typed := make([]Typed, 0, len(evs))
	for _, ev := range evs {
		t, err := Decode(ev)
		if err != nil {
			return nil, err
		}
		typed = append(typed, t)
	}
	return typed, nil
}

func decodePayload(ev ledger.Event) (Payload, error) {
	d := &argDecoder{event: ev}

	switch ev.Name {
	case ledger.EventPaymentReceived:
		p := PaymentReceived{
			Payer:      d.address("payer"),
			MerchantID: d.bigInt("merchantId"),
			Token:      d.address("token"),
			Amount:     d.bigInt("amount"),
			Fee:        d.bigInt("fee"),
		}
		return p, d.err
	case ledger.EventSubscriptionMinted:
		p := SubscriptionMinted{
			Subscriber: d.address("subscriber"),
			MerchantID: d.bigInt("merchantId"),
			TokenID:    d.bigInt("tokenId"),
			ExpiresAt:  d.timestamp("expiresAt"),
		}
		return p, d.err
	case ledger.EventSubscriptionRenewed:
		p := SubscriptionRenewed{
			Subscriber:   d.address("subscriber"),
			MerchantID:   d.bigInt("merchantId"),
			TokenID:      d.bigInt("tokenId"),
			ExpiresAt:    d.timestamp("expiresAt"),
			RenewalCount: d.uint64Arg("renewalCount"),
		}
		return p, d.err
	case ledger.EventSubscriptionExpired:
		p := SubscriptionExpired{
			Subscriber: d.address("subscriber"),
			MerchantID: d.bigInt("merchantId"),
			TokenID:    d.bigInt("tokenId"),
		}
		return p, d.err
	case ledger.EventSubscriptionBurned:
		p := SubscriptionBurned{
			Subscriber: d.address("subscriber"),
			MerchantID: d.bigInt("merchantId"),
			TokenID:    d.bigInt("tokenId"),
		}
		return p, d.err
	case ledger.EventMerchantRegistered:
		p := MerchantRegistered{
			MerchantID:    d.bigInt("merchantId"),
			Owner:         d.address("owner"),
			PayoutAddress: d.address("payoutAddress"),
			Period:        d.duration("period"),
			GracePeriod:   d.duration("gracePeriod"),
		}
		return p, d.err
	case ledger.EventMerchantWithdrawal:
		p := MerchantWithdrawal{
			MerchantID: d.bigInt("merchantId"),
			Token:      d.address("token"),
			Amount:     d.bigInt("amount"),
			To:         d.address("to"),
		}
		return p, d.err
	default:
		return nil, &DecodeError{Event: ev.Name, Field: "", Cause: "unknown event name"}
	}
}

// argDecoder accumulates the first failure while extracting typed arguments,
// so decode call sites stay flat.
type argDecoder struct {
	event ledger.Event
	err   error
}

func (d *argDecoder) fail(field, cause string) {
	if d.err == nil {
		d.err = &DecodeError{Event: d.event.Name, Field: field, Cause: cause}
	}
}

func (d *argDecoder) address(field string) common.Address {
	raw, ok := d.event.Args[field]
	if !ok {
		d.fail(field, "argument missing")
		return common.Address{}
	}
	addr, ok := raw.(common.Address)
	if !ok {
		d.fail(field, fmt.Sprintf("expected address, got %T", raw))
		return common.Address{}
	}
	return addr
}

func (d *argDecoder) bigInt(field string) *big.Int {
	raw, ok := d.event.Args[field]
	if !ok {
		d.fail(field, "argument missing")
		return nil
	}
	value, ok := raw.(*big.Int)
	if !ok {
		d.fail(field, fmt.Sprintf("expected uint256, got %T", raw))
		return nil
	}
	return value
}

func (d *argDecoder) uint64Arg(field string) uint64 {
	value := d.bigInt(field)
	if value == nil {
		return 0
	}
	if !value.IsUint64() {
		d.fail(field, "value out of uint64 range")
		return 0
	}
	return value.Uint64()
}

func (d *argDecoder) timestamp(field string) time.Time {
	seconds := d.uint64Arg(field)
	if d.err != nil {
		return time.Time{}
	}
	return time.Unix(int64(seconds), 0).UTC()
}

func (d *argDecoder) duration(field string) time.Duration {
	seconds := d.uint64Arg(field)
	if d.err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
