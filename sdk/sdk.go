// Package sdk is the composition root: it wires the watch registry, the
// aggregation engine, the lifecycle reconciler and the payment orchestrator
// behind a small in-process API for presentation layers.
package sdk

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/analytics"
	"github.com/chainsub/chainsub-go/events"
	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/logger"
	"github.com/chainsub/chainsub-go/payments"
	"github.com/chainsub/chainsub-go/reconcile"
)

// SDK exposes the derived-state engine over a ledger gateway. Construct one
// per gateway; Close tears down every live subscription it owns.
type SDK struct {
	gateway      ledger.Gateway
	registry     *events.WatchRegistry
	bus          *events.Bus
	engine       *analytics.Engine
	orchestrator *payments.Orchestrator
	prices       *reconcile.PriceTable
	logger       *zap.Logger

	mu             sync.Mutex
	monitorWatches []uuid.UUID
}

// Option customizes SDK construction.
type Option func(*config)

type config struct {
	onWatchError events.ErrorFunc
	onPhase      func(payments.Phase)
}

// WithWatchErrorHandler receives watch failures (most importantly
// ledger.ErrStaleFilter) so the caller can decide a resubscription policy.
func WithWatchErrorHandler(fn events.ErrorFunc) Option {
	return func(c *config) { c.onWatchError = fn }
}

// WithPhaseObserver receives payment orchestration phase transitions, which
// map one-to-one onto UI processing steps.
func WithPhaseObserver(fn func(payments.Phase)) Option {
	return func(c *config) { c.onPhase = fn }
}

// New creates an SDK over a gateway.
func New(gateway ledger.Gateway, opts ...Option) *SDK {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var registryOpts []events.RegistryOption
	if cfg.onWatchError != nil {
		registryOpts = append(registryOpts, events.WithOnError(cfg.onWatchError))
	}
	var orchestratorOpts []payments.OrchestratorOption
	if cfg.onPhase != nil {
		orchestratorOpts = append(orchestratorOpts, payments.WithPhaseObserver(cfg.onPhase))
	}

	log := logger.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &SDK{
		gateway:      gateway,
		registry:     events.NewWatchRegistry(gateway, registryOpts...),
		bus:          events.NewBus(),
		engine:       analytics.NewEngine(gateway),
		orchestrator: payments.NewOrchestrator(gateway, orchestratorOpts...),
		prices:       reconcile.NewPriceTable(),
		logger:       log,
	}
}

// Analytics returns the aggregation engine for historical metric queries.
func (s *SDK) Analytics() *analytics.Engine { return s.engine }

// Registry returns the watch registry for advanced watch management.
func (s *SDK) Registry() *events.WatchRegistry { return s.registry }

// Subscribe pays for a subscription with paymentToken (the zero address pays
// with the native asset) and returns the transaction reference. Requires a
// configured signer.
func (s *SDK) Subscribe(ctx context.Context, merchantID *big.Int, paymentToken common.Address) (ledger.TxRef, error) {
	if !s.gateway.HasSigner() {
		return ledger.TxRef{}, ledger.ErrWalletNotConnected
	}

	action := payments.Action{
		Method:  "subscribe",
		Args:    []interface{}{merchantID, paymentToken},
		Token:   paymentToken,
		Spender: s.gateway.Contract(),
	}

	if paymentToken == (common.Address{}) {
		// Native payment: the orchestrator re-reads the price right before
		// submission so a merchant-side price update cannot cause under- or
		// over-payment from a stale cached value.
		action.ReadPrice = func(ctx context.Context) (*big.Int, error) {
			return s.Price(ctx, merchantID, paymentToken)
		}
	} else {
		price, err := s.Price(ctx, merchantID, paymentToken)
		if err != nil {
			return ledger.TxRef{}, err
		}
		action.RequiredAmount = price
	}

	receipt, err := s.orchestrator.Run(ctx, action)
	if err != nil {
		return ledger.TxRef{}, err
	}
	return receipt.TxHash, nil
}

// Withdraw pays out a merchant's accumulated balance for one token.
// Requires a configured signer (the merchant owner).
func (s *SDK) Withdraw(ctx context.Context, merchantID *big.Int, token common.Address) (ledger.TxRef, error) {
	if !s.gateway.HasSigner() {
		return ledger.TxRef{}, ledger.ErrWalletNotConnected
	}

	receipt, err := s.orchestrator.Run(ctx, payments.Action{
		Method: "withdraw",
		Args:   []interface{}{merchantID, token},
	})
	if err != nil {
		return ledger.TxRef{}, err
	}
	return receipt.TxHash, nil
}

// CheckAccess reports whether subject holds a currently active subscription
// to the merchant. The zero subject means the configured signer. Grace-period
// subscriptions are lapsed, not active; use SubscriptionStatus to distinguish.
func (s *SDK) CheckAccess(ctx context.Context, merchantID *big.Int, subject common.Address) (bool, error) {
	status, err := s.SubscriptionStatus(ctx, merchantID, subject)
	if err != nil {
		return false, err
	}
	return status.IsActive, nil
}

// SubscriptionStatus reconciles subject's full lifecycle status for one
// merchant from event history plus the current wall-clock time.
func (s *SDK) SubscriptionStatus(ctx context.Context, merchantID *big.Int, subject common.Address) (reconcile.SubscriptionStatus, error) {
	if subject == (common.Address{}) {
		signer, err := s.gateway.SignerAddress()
		if err != nil {
			return reconcile.SubscriptionStatus{}, err
		}
		subject = signer
	}

	plan, err := s.MerchantPlan(ctx, merchantID)
	if err != nil {
		return reconcile.SubscriptionStatus{}, err
	}
	if plan == nil {
		return reconcile.SubscriptionStatus{}, fmt.Errorf("merchant %s is not registered", merchantID)
	}

	head, err := s.gateway.LatestBlock(ctx)
	if err != nil {
		return reconcile.SubscriptionStatus{}, err
	}

	pair := map[string]interface{}{"subscriber": subject, "merchantId": merchantID}
	history := reconcile.History{}

	if history.Mints, err = s.engine.QueryRange(ctx, ledger.Filter{Event: ledger.EventSubscriptionMinted, Args: pair}, 0, head); err != nil {
		return reconcile.SubscriptionStatus{}, err
	}
	if history.Renews, err = s.engine.QueryRange(ctx, ledger.Filter{Event: ledger.EventSubscriptionRenewed, Args: pair}, 0, head); err != nil {
		return reconcile.SubscriptionStatus{}, err
	}
	if history.Burns, err = s.engine.QueryRange(ctx, ledger.Filter{Event: ledger.EventSubscriptionBurned, Args: pair}, 0, head); err != nil {
		return reconcile.SubscriptionStatus{}, err
	}
	if history.Payments, err = s.engine.QueryRange(ctx, ledger.Filter{
		Event: ledger.EventPaymentReceived,
		Args:  map[string]interface{}{"payer": subject, "merchantId": merchantID},
	}, 0, head); err != nil {
		return reconcile.SubscriptionStatus{}, err
	}

	return reconcile.ComputeStatus(history, time.Now().UTC(), plan.GracePeriod)
}

// MerchantExists reports whether a merchant id is registered. An unregistered
// merchant is an expected negative lookup, not an error.
func (s *SDK) MerchantExists(ctx context.Context, merchantID *big.Int) (bool, error) {
	out, err := s.gateway.ReadContract(ctx, "merchantExists", merchantID)
	if err != nil {
		return false, err
	}
	exists, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected merchantExists output %T", out[0])
	}
	return exists, nil
}

// MerchantPlan reads the current plan for a merchant. A nil plan (and nil
// error) means the merchant is not registered.
func (s *SDK) MerchantPlan(ctx context.Context, merchantID *big.Int) (*reconcile.MerchantPlan, error) {
	exists, err := s.MerchantExists(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	out, err := s.gateway.ReadContract(ctx, "getMerchantPlan", merchantID)
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("unexpected getMerchantPlan output arity %d", len(out))
	}

	payout, ok1 := out[0].(common.Address)
	owner, ok2 := out[1].(common.Address)
	period, ok3 := out[2].(*big.Int)
	grace, ok4 := out[3].(*big.Int)
	active, ok5 := out[4].(bool)
	subscribers, ok6 := out[5].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return nil, fmt.Errorf("unexpected getMerchantPlan output types")
	}

	return &reconcile.MerchantPlan{
		MerchantID:         merchantID,
		Owner:              owner,
		PayoutAddress:      payout,
		SubscriptionPeriod: time.Duration(period.Int64()) * time.Second,
		GracePeriod:        time.Duration(grace.Int64()) * time.Second,
		IsActive:           active,
		TotalSubscribers:   subscribers.Uint64(),
	}, nil
}

// Price reads the current subscription price for (merchant, token) and
// refreshes the local latest-wins price table.
func (s *SDK) Price(ctx context.Context, merchantID *big.Int, token common.Address) (*big.Int, error) {
	out, err := s.gateway.ReadContract(ctx, "getMerchantPrice", merchantID, token)
	if err != nil {
		return nil, err
	}
	price, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getMerchantPrice output %T", out[0])
	}

	s.prices.Set(merchantID, token, price)
	return price, nil
}

// CachedPrice returns the last price observed for (merchant, token) without
// touching the ledger. Display use only; payment flows re-read the chain.
func (s *SDK) CachedPrice(merchantID *big.Int, token common.Address) (*big.Int, bool) {
	return s.prices.Get(merchantID, token)
}

// Close stops event monitoring and every remaining watch.
func (s *SDK) Close() {
	s.StopEventMonitoring()
	s.registry.StopAll()
	s.registry.Clear()
}
