// Package payments centralizes the two-phase approve-then-act flow used by
// every token-gated action, instead of re-implementing it per call site.
package payments

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/logger"
)

// Phase is a step of the orchestrated payment state machine. Phases map
// directly to UI-facing step transitions.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCheckingAllowance
	PhaseApprovalNeeded
	PhaseAwaitingApproval
	PhaseSubmitting
	PhaseAwaitingConfirmation
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCheckingAllowance:
		return "checking_allowance"
	case PhaseApprovalNeeded:
		return "approval_needed"
	case PhaseAwaitingApproval:
		return "awaiting_approval"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Action describes one token-gated contract call.
type Action struct {
	// Method and Args are the primary contract call.
	Method string
	Args   []interface{}

	// Token is the payment token; the zero address means the native asset,
	// which skips the approval branch entirely.
	Token common.Address

	// Spender is the contract that will pull the token payment.
	Spender common.Address

	// RequiredAmount is the token amount the action needs. Approval, when
	// necessary, is for exactly this amount, never unlimited.
	RequiredAmount *big.Int

	// ReadPrice re-reads the exact required price for native-asset payments.
	// It is called immediately before submission: the merchant may have
	// updated the price after the caller cached it, and a stale value would
	// under- or over-pay.
	ReadPrice func(ctx context.Context) (*big.Int, error)
}

// Orchestrator drives the approve -> confirm -> act -> confirm sequence.
// It imposes no timeout of its own: the caller's ctx is the time budget, and
// gateway timeouts propagate as ledger.ErrNetwork.
type Orchestrator struct {
	gateway ledger.Gateway
	logger  *zap.Logger
	onPhase func(Phase)
}

// OrchestratorOption customizes orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithPhaseObserver registers a callback invoked on every phase transition.
func WithPhaseObserver(fn func(Phase)) OrchestratorOption {
	return func(o *Orchestrator) { o.onPhase = fn }
}

// NewOrchestrator creates a payment orchestrator over a gateway.
func NewOrchestrator(gateway ledger.Gateway, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		gateway: gateway,
		logger:  logger.Log,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Run executes the action end to end and returns the confirmed receipt.
//
// Invariant: the primary action is never submitted before a needed
// approval's receipt is confirmed. An unconfirmed approval must not let the
// dependent action race ahead optimistically.
func (o *Orchestrator) Run(ctx context.Context, action Action) (*ledger.Receipt, error) {
	o.setPhase(PhaseIdle)

	owner, err := o.gateway.SignerAddress()
	if err != nil {
		return nil, o.fail(err)
	}

	native := action.Token == (common.Address{})
	if !native && action.RequiredAmount != nil && action.RequiredAmount.Sign() > 0 {
		if err := o.ensureAllowance(ctx, action, owner); err != nil {
			return nil, o.fail(err)
		}
	}

	o.setPhase(PhaseSubmitting)

	var value *big.Int
	if native && action.ReadPrice != nil {
		// Actions with no native payment attached (e.g. a merchant
		// withdrawal) carry no price reader and submit zero value.
		value, err = o.nativeValue(ctx, action, owner)
		if err != nil {
			return nil, o.fail(err)
		}
	}

	ref, err := o.gateway.WriteContract(ctx, action.Method, value, action.Args...)
	if err != nil {
		// Rejected before any receipt existed; preserve the originating error.
		return nil, o.fail(fmt.Errorf("failed to submit %s: %w", action.Method, err))
	}

	o.setPhase(PhaseAwaitingConfirmation)

	receipt, err := o.gateway.WaitForReceipt(ctx, ref)
	if err != nil {
		return nil, o.fail(err)
	}
	if !receipt.Success {
		return nil, o.fail(&ledger.RevertError{Receipt: receipt})
	}

	o.setPhase(PhaseDone)
	o.logger.Info("Payment action confirmed",
		zap.String("method", action.Method),
		zap.String("tx_hash", receipt.TxHash.Hex()),
		zap.Uint64("block", receipt.BlockNumber),
	)
	return receipt, nil
}

// ensureAllowance runs the conditional approval branch for ERC20 payments.
func (o *Orchestrator) ensureAllowance(ctx context.Context, action Action, owner common.Address) error {
	o.setPhase(PhaseCheckingAllowance)

	balance, err := o.gateway.ReadBalance(ctx, action.Token, owner)
	if err != nil {
		return err
	}
	if balance.Cmp(action.RequiredAmount) < 0 {
		return fmt.Errorf("%w: have %s, need %s of token %s",
			ledger.ErrInsufficientBalance, balance, action.RequiredAmount, action.Token.Hex())
	}

	allowance, err := o.gateway.ReadAllowance(ctx, action.Token, owner, action.Spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(action.RequiredAmount) >= 0 {
		return nil
	}

	o.setPhase(PhaseApprovalNeeded)

	ref, err := o.gateway.Approve(ctx, action.Token, action.Spender, action.RequiredAmount)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrApprovalFailed, err)
	}

	o.setPhase(PhaseAwaitingApproval)

	receipt, err := o.gateway.WaitForReceipt(ctx, ref)
	if err != nil {
		// Unknown final state is a network failure, not an approval failure;
		// surface it as the distinct kind.
		return err
	}
	if !receipt.Success {
		return fmt.Errorf("%w: approval transaction %s reverted", ledger.ErrApprovalFailed, receipt.TxHash.Hex())
	}

	return nil
}

// nativeValue re-reads the current price and verifies the payer can cover it.
func (o *Orchestrator) nativeValue(ctx context.Context, action Action, owner common.Address) (*big.Int, error) {
	price, err := action.ReadPrice(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := o.gateway.ReadBalance(ctx, common.Address{}, owner)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(price) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s native", ledger.ErrInsufficientBalance, balance, price)
	}

	return price, nil
}

func (o *Orchestrator) setPhase(p Phase) {
	if o.onPhase != nil {
		o.onPhase(p)
	}
}

func (o *Orchestrator) fail(err error) error {
	o.setPhase(PhaseFailed)
	return err
}
