package payments_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chainsub/chainsub-go/ledger"
	"github.com/chainsub/chainsub-go/logger"
	"github.com/chainsub/chainsub-go/mocks"
	"github.com/chainsub/chainsub-go/payments"
	"github.com/chainsub/chainsub-go/testutil"
)

func init() {
	logger.InitLogger("test")
}

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	spender  = common.HexToAddress("0x00000000000000000000000000000000000000BB")
	usdc     = common.HexToAddress("0x00000000000000000000000000000000000000C1")
	required = big.NewInt(100)
)

func erc20Subscribe() payments.Action {
	return payments.Action{
		Method:         "subscribe",
		Args:           []interface{}{big.NewInt(1)},
		Token:          usdc,
		Spender:        spender,
		RequiredAmount: new(big.Int).Set(required),
	}
}

func receiptFor(block uint64, index uint, success bool) *ledger.Receipt {
	return &ledger.Receipt{
		TxHash:      testutil.TxHash(block, index),
		BlockNumber: block,
		Success:     success,
	}
}

func TestOrchestrator_Run_ApprovalPrecedesAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	approveRef := testutil.TxHash(50, 0)
	actionRef := testutil.TxHash(51, 0)

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gomock.InOrder(
		gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(1000), nil),
		gateway.EXPECT().ReadAllowance(gomock.Any(), usdc, owner, spender).Return(big.NewInt(0), nil),
		// approval is for exactly the required amount
		gateway.EXPECT().Approve(gomock.Any(), usdc, spender, required).Return(approveRef, nil),
		// the action must not be submitted before the approval confirms
		gateway.EXPECT().WaitForReceipt(gomock.Any(), approveRef).Return(receiptFor(50, 0, true), nil),
		gateway.EXPECT().WriteContract(gomock.Any(), "subscribe", nil, big.NewInt(1)).Return(actionRef, nil),
		gateway.EXPECT().WaitForReceipt(gomock.Any(), actionRef).Return(receiptFor(51, 0, true), nil),
	)

	var phases []payments.Phase
	orch := payments.NewOrchestrator(gateway, payments.WithPhaseObserver(func(p payments.Phase) {
		phases = append(phases, p)
	}))

	receipt, err := orch.Run(context.Background(), erc20Subscribe())
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, []payments.Phase{
		payments.PhaseIdle,
		payments.PhaseCheckingAllowance,
		payments.PhaseApprovalNeeded,
		payments.PhaseAwaitingApproval,
		payments.PhaseSubmitting,
		payments.PhaseAwaitingConfirmation,
		payments.PhaseDone,
	}, phases)
}

func TestOrchestrator_Run_SufficientAllowanceSkipsApproval(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	actionRef := testutil.TxHash(51, 0)

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(1000), nil)
	gateway.EXPECT().ReadAllowance(gomock.Any(), usdc, owner, spender).Return(big.NewInt(500), nil)
	gateway.EXPECT().WriteContract(gomock.Any(), "subscribe", nil, big.NewInt(1)).Return(actionRef, nil)
	gateway.EXPECT().WaitForReceipt(gomock.Any(), actionRef).Return(receiptFor(51, 0, true), nil)

	var phases []payments.Phase
	orch := payments.NewOrchestrator(gateway, payments.WithPhaseObserver(func(p payments.Phase) {
		phases = append(phases, p)
	}))

	_, err := orch.Run(context.Background(), erc20Subscribe())
	require.NoError(t, err)
	assert.NotContains(t, phases, payments.PhaseApprovalNeeded)
	assert.NotContains(t, phases, payments.PhaseAwaitingApproval)
}

func TestOrchestrator_Run_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(99), nil)

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), erc20Subscribe())
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestOrchestrator_Run_ApprovalRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(1000), nil)
	gateway.EXPECT().ReadAllowance(gomock.Any(), usdc, owner, spender).Return(big.NewInt(0), nil)
	gateway.EXPECT().Approve(gomock.Any(), usdc, spender, required).
		Return(ledger.TxRef{}, errors.New("user rejected request"))

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), erc20Subscribe())
	assert.ErrorIs(t, err, ledger.ErrApprovalFailed)
}

func TestOrchestrator_Run_ApprovalReverted(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	approveRef := testutil.TxHash(50, 0)
	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(1000), nil)
	gateway.EXPECT().ReadAllowance(gomock.Any(), usdc, owner, spender).Return(big.NewInt(0), nil)
	gateway.EXPECT().Approve(gomock.Any(), usdc, spender, required).Return(approveRef, nil)
	gateway.EXPECT().WaitForReceipt(gomock.Any(), approveRef).Return(receiptFor(50, 0, false), nil)

	var phases []payments.Phase
	orch := payments.NewOrchestrator(gateway, payments.WithPhaseObserver(func(p payments.Phase) {
		phases = append(phases, p)
	}))

	_, err := orch.Run(context.Background(), erc20Subscribe())
	assert.ErrorIs(t, err, ledger.ErrApprovalFailed)
	assert.Equal(t, payments.PhaseFailed, phases[len(phases)-1])
	assert.NotContains(t, phases, payments.PhaseSubmitting)
}

func TestOrchestrator_Run_ApprovalConfirmationNetworkError(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	approveRef := testutil.TxHash(50, 0)
	netErr := &ledger.NetworkError{Op: "wait for receipt", Err: errors.New("connection reset")}

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(1000), nil)
	gateway.EXPECT().ReadAllowance(gomock.Any(), usdc, owner, spender).Return(big.NewInt(0), nil)
	gateway.EXPECT().Approve(gomock.Any(), usdc, spender, required).Return(approveRef, nil)
	gateway.EXPECT().WaitForReceipt(gomock.Any(), approveRef).Return(nil, netErr)

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), erc20Subscribe())
	// unknown final state surfaces as a network failure, not an approval failure
	assert.ErrorIs(t, err, ledger.ErrNetwork)
	assert.NotErrorIs(t, err, ledger.ErrApprovalFailed)
}

func TestOrchestrator_Run_NativeRereadsPriceBeforeSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	actionRef := testutil.TxHash(51, 0)
	latestPrice := big.NewInt(275)

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), common.Address{}, owner).Return(big.NewInt(1000), nil)
	gateway.EXPECT().WriteContract(gomock.Any(), "subscribe", latestPrice, big.NewInt(1)).Return(actionRef, nil)
	gateway.EXPECT().WaitForReceipt(gomock.Any(), actionRef).Return(receiptFor(51, 0, true), nil)

	action := payments.Action{
		Method: "subscribe",
		Args:   []interface{}{big.NewInt(1)},
		ReadPrice: func(ctx context.Context) (*big.Int, error) {
			return latestPrice, nil
		},
	}

	orch := payments.NewOrchestrator(gateway)
	receipt, err := orch.Run(context.Background(), action)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
}

func TestOrchestrator_Run_NativeInsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), common.Address{}, owner).Return(big.NewInt(10), nil)

	action := payments.Action{
		Method: "subscribe",
		Args:   []interface{}{big.NewInt(1)},
		ReadPrice: func(ctx context.Context) (*big.Int, error) {
			return big.NewInt(275), nil
		},
	}

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), action)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestOrchestrator_Run_NoPriceReaderSubmitsZeroValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	actionRef := testutil.TxHash(51, 0)
	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().WriteContract(gomock.Any(), "withdraw", nil, big.NewInt(1), usdc).Return(actionRef, nil)
	gateway.EXPECT().WaitForReceipt(gomock.Any(), actionRef).Return(receiptFor(51, 0, true), nil)

	action := payments.Action{
		Method: "withdraw",
		Args:   []interface{}{big.NewInt(1), usdc},
	}

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), action)
	require.NoError(t, err)
}

func TestOrchestrator_Run_ActionReverted(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	actionRef := testutil.TxHash(51, 0)
	gateway.EXPECT().SignerAddress().Return(owner, nil)
	gateway.EXPECT().ReadBalance(gomock.Any(), usdc, owner).Return(big.NewInt(1000), nil)
	gateway.EXPECT().ReadAllowance(gomock.Any(), usdc, owner, spender).Return(big.NewInt(500), nil)
	gateway.EXPECT().WriteContract(gomock.Any(), "subscribe", nil, big.NewInt(1)).Return(actionRef, nil)
	gateway.EXPECT().WaitForReceipt(gomock.Any(), actionRef).Return(receiptFor(51, 0, false), nil)

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), erc20Subscribe())
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrTransactionReverted)

	var revert *ledger.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, uint64(51), revert.Receipt.BlockNumber)
}

func TestOrchestrator_Run_NoSigner(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)

	gateway.EXPECT().SignerAddress().Return(common.Address{}, ledger.ErrWalletNotConnected)

	orch := payments.NewOrchestrator(gateway)
	_, err := orch.Run(context.Background(), erc20Subscribe())
	assert.ErrorIs(t, err, ledger.ErrWalletNotConnected)
}
