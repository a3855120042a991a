// Command monitor tails the subscription contract's event stream and logs
// every observed event. It is also the reference implementation of the
// caller-side resubscription policy: when a live watch drops, it restarts
// monitoring with exponential backoff and logs the last block it saw so an
// operator can backfill the gap with a historical query.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/constants"
	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/logger"
	"github.com/chainsub/chainsub-go/sdk"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	requiredEnvVars := []string{"RPC_URL", "CONTRACT_ADDRESS"}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" {
			log.Fatalf("%s environment variable is required", envVar)
		}
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = constants.DevEnvironment
	}
	logger.InitLogger(stage)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	contract := common.HexToAddress(os.Getenv("CONTRACT_ADDRESS"))
	gateway, err := ledger.Dial(ctx, os.Getenv("RPC_URL"), contract)
	if err != nil {
		logger.Fatal("Failed to connect to ledger", zap.Error(err))
	}
	defer gateway.Close()

	var lastBlock atomic.Uint64
	observe := func(name string, meta events.Typed, fields ...zap.Field) {
		lastBlock.Store(meta.BlockNumber)
		fields = append(fields,
			zap.Uint64("block", meta.BlockNumber),
			zap.String("tx_hash", meta.TxHash.Hex()),
		)
		logger.Info(name, fields...)
	}

	listeners := sdk.Listeners{
		OnPaymentReceived: func(p events.PaymentReceived, meta events.Typed) {
			observe("Payment received", meta,
				zap.String("payer", p.Payer.Hex()),
				zap.String("merchant_id", p.MerchantID.String()),
				zap.String("amount", p.Amount.String()),
				zap.String("fee", p.Fee.String()),
			)
		},
		OnSubscriptionMinted: func(p events.SubscriptionMinted, meta events.Typed) {
			observe("Subscription minted", meta,
				zap.String("subscriber", p.Subscriber.Hex()),
				zap.String("merchant_id", p.MerchantID.String()),
				zap.Time("expires_at", p.ExpiresAt),
			)
		},
		OnSubscriptionRenewed: func(p events.SubscriptionRenewed, meta events.Typed) {
			observe("Subscription renewed", meta,
				zap.String("subscriber", p.Subscriber.Hex()),
				zap.String("merchant_id", p.MerchantID.String()),
				zap.Uint64("renewal_count", p.RenewalCount),
			)
		},
		OnMerchantRegistered: func(p events.MerchantRegistered, meta events.Typed) {
			observe("Merchant registered", meta,
				zap.String("merchant_id", p.MerchantID.String()),
				zap.String("owner", p.Owner.Hex()),
			)
		},
		OnMerchantWithdrawal: func(p events.MerchantWithdrawal, meta events.Typed) {
			observe("Merchant withdrawal", meta,
				zap.String("merchant_id", p.MerchantID.String()),
				zap.String("amount", p.Amount.String()),
			)
		},
	}

	// The watch layer surfaces a dropped subscription instead of silently
	// resuming; reconnecting from an unknown point is this caller's call.
	restart := make(chan struct{}, 1)
	client := sdk.New(gateway, sdk.WithWatchErrorHandler(func(id uuid.UUID, err error) {
		if !errors.Is(err, ledger.ErrStaleFilter) {
			logger.Error("Watch error", zap.String("watch_id", id.String()), zap.Error(err))
			return
		}
		logger.Warn("Subscription dropped, scheduling restart",
			zap.String("watch_id", id.String()),
			zap.Uint64("last_seen_block", lastBlock.Load()),
			zap.Error(err),
		)
		select {
		case restart <- struct{}{}:
		default:
		}
	}))
	defer client.Close()

	if err := client.StartEventMonitoring(ctx, listeners); err != nil {
		logger.Fatal("Failed to start event monitoring", zap.Error(err))
	}
	logger.Info("Monitoring subscription events",
		zap.String("contract", contract.Hex()),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down", zap.Uint64("last_seen_block", lastBlock.Load()))
			return
		case <-restart:
			client.StopEventMonitoring()

			policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
			err := backoff.Retry(func() error {
				return client.StartEventMonitoring(ctx, listeners)
			}, policy)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				logger.Fatal("Failed to restart event monitoring", zap.Error(err))
			}
			logger.Warn("Event monitoring restarted; events since last_seen_block may need a historical backfill",
				zap.Uint64("last_seen_block", lastBlock.Load()),
			)
		}
	}
}
