package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainsub/chainsub-go/logger"
)

const (
	// defaultMaxBlockRange matches the per-call span cap most hosted RPC
	// providers enforce on eth_getLogs.
	defaultMaxBlockRange = 10000

	defaultPollInterval = 2 * time.Second
)

// EthGateway implements Gateway against an Ethereum-compatible node via
// go-ethereum's ethclient.
type EthGateway struct {
	client       *ethclient.Client
	contract     common.Address
	contractABI  abi.ABI
	erc20ABI     abi.ABI
	bound        *bind.BoundContract
	auth         *bind.TransactOpts
	maxRange     uint64
	pollInterval time.Duration
	logger       *zap.Logger

	mu         sync.Mutex
	blockTimes map[uint64]time.Time
}

// EthGatewayOption customizes gateway construction.
type EthGatewayOption func(*EthGateway)

// WithSigner configures the transactor used for write operations. Without it
// the gateway is read-only and writes fail with ErrWalletNotConnected.
func WithSigner(auth *bind.TransactOpts) EthGatewayOption {
	return func(g *EthGateway) { g.auth = auth }
}

// WithMaxBlockRange overrides the per-call block span cap (0 = unlimited).
func WithMaxBlockRange(n uint64) EthGatewayOption {
	return func(g *EthGateway) { g.maxRange = n }
}

// WithPollInterval overrides the receipt polling cadence.
func WithPollInterval(d time.Duration) EthGatewayOption {
	return func(g *EthGateway) { g.pollInterval = d }
}

// NewEthGateway creates a gateway around an existing client connection.
func NewEthGateway(client *ethclient.Client, contract common.Address, opts ...EthGatewayOption) *EthGateway {
	g := &EthGateway{
		client:       client,
		contract:     contract,
		contractABI:  mustParseABI(subscriptionManagerABI),
		erc20ABI:     mustParseABI(erc20ABI),
		maxRange:     defaultMaxBlockRange,
		pollInterval: defaultPollInterval,
		logger:       logger.Log,
		blockTimes:   make(map[uint64]time.Time),
	}
	g.bound = bind.NewBoundContract(contract, g.contractABI, client, client, client)
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Dial connects to an RPC endpoint and wraps it in a gateway.
func Dial(ctx context.Context, rpcURL string, contract common.Address, opts ...EthGatewayOption) (*EthGateway, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to RPC endpoint %s", rpcURL)
	}
	return NewEthGateway(client, contract, opts...), nil
}

// Close releases the underlying RPC connection.
func (g *EthGateway) Close() {
	g.client.Close()
}

// MaxBlockRange implements Gateway.
func (g *EthGateway) MaxBlockRange() uint64 { return g.maxRange }

// Contract implements Gateway.
func (g *EthGateway) Contract() common.Address { return g.contract }

// LatestBlock implements Gateway.
func (g *EthGateway) LatestBlock(ctx context.Context) (uint64, error) {
	head, err := g.client.BlockNumber(ctx)
	if err != nil {
		return 0, &NetworkError{Op: "read chain head", Err: err}
	}
	return head, nil
}

// HasSigner implements Gateway.
func (g *EthGateway) HasSigner() bool { return g.auth != nil }

// SignerAddress implements Gateway.
func (g *EthGateway) SignerAddress() (common.Address, error) {
	if g.auth == nil {
		return common.Address{}, ErrWalletNotConnected
	}
	return g.auth.From, nil
}

// QueryEvents implements Gateway.
func (g *EthGateway) QueryEvents(ctx context.Context, filter Filter, fromBlock, toBlock uint64) ([]Event, error) {
	query, err := g.buildQuery(filter, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}

	logs, err := g.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, &NetworkError{Op: "query events", Err: err}
	}

	events := make([]Event, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		event, err := g.decodeLog(lg)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	// FilterLogs returns logs in order, but the callers' ordering-sensitive
	// computations depend on it, so enforce (block, index) here.
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	return events, nil
}

// WatchEvents implements Gateway.
func (g *EthGateway) WatchEvents(ctx context.Context, filter Filter, onBatch func([]Event), onError func(error)) (CancelFunc, error) {
	query, err := g.buildQuery(filter, 0, 0)
	if err != nil {
		return nil, err
	}
	query.FromBlock = nil
	query.ToBlock = nil

	ch := make(chan types.Log, 128)
	sub, err := g.client.SubscribeFilterLogs(ctx, query, ch)
	if err != nil {
		return nil, &NetworkError{Op: "subscribe events", Err: err}
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case err := <-sub.Err():
				if err != nil && onError != nil {
					onError(&StaleFilterError{Err: err})
				}
				return
			case lg := <-ch:
				batch, err := g.drainLogs(lg, ch)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if len(batch) > 0 {
					onBatch(batch)
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			sub.Unsubscribe()
		})
	}
	return cancel, nil
}

// drainLogs decodes the received log plus anything else already buffered so
// callbacks see per-block batches rather than one call per log.
func (g *EthGateway) drainLogs(first types.Log, ch chan types.Log) ([]Event, error) {
	raw := []types.Log{first}
	for {
		select {
		case lg := <-ch:
			raw = append(raw, lg)
		default:
			batch := make([]Event, 0, len(raw))
			for _, lg := range raw {
				if lg.Removed {
					continue
				}
				event, err := g.decodeLog(lg)
				if err != nil {
					return nil, err
				}
				batch = append(batch, event)
			}
			return batch, nil
		}
	}
}

// ReadContract implements Gateway.
func (g *EthGateway) ReadContract(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := g.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, &NetworkError{Op: "read " + method, Err: err}
	}
	return out, nil
}

// ReadAllowance implements Gateway.
func (g *EthGateway) ReadAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	tokenContract := bind.NewBoundContract(token, g.erc20ABI, g.client, g.client, g.client)

	var out []interface{}
	if err := tokenContract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender); err != nil {
		return nil, &NetworkError{Op: "read allowance", Err: err}
	}
	return out[0].(*big.Int), nil
}

// ReadBalance implements Gateway.
func (g *EthGateway) ReadBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if token == (common.Address{}) {
		balance, err := g.client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, &NetworkError{Op: "read native balance", Err: err}
		}
		return balance, nil
	}

	tokenContract := bind.NewBoundContract(token, g.erc20ABI, g.client, g.client, g.client)

	var out []interface{}
	if err := tokenContract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, &NetworkError{Op: "read token balance", Err: err}
	}
	return out[0].(*big.Int), nil
}

// Approve implements Gateway.
func (g *EthGateway) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (TxRef, error) {
	if g.auth == nil {
		return TxRef{}, ErrWalletNotConnected
	}

	tokenContract := bind.NewBoundContract(token, g.erc20ABI, g.client, g.client, g.client)

	opts := *g.auth
	opts.Context = ctx

	tx, err := tokenContract.Transact(&opts, "approve", spender, amount)
	if err != nil {
		return TxRef{}, &NetworkError{Op: "submit approval", Err: err}
	}

	g.logger.Info("Submitted token approval",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", tx.Hash().Hex()),
	)

	return tx.Hash(), nil
}

// WriteContract implements Gateway.
func (g *EthGateway) WriteContract(ctx context.Context, method string, value *big.Int, args ...interface{}) (TxRef, error) {
	if g.auth == nil {
		return TxRef{}, ErrWalletNotConnected
	}

	opts := *g.auth
	opts.Context = ctx
	if value != nil {
		opts.Value = value
	}

	tx, err := g.bound.Transact(&opts, method, args...)
	if err != nil {
		return TxRef{}, &NetworkError{Op: "submit " + method, Err: err}
	}

	g.logger.Info("Submitted transaction",
		zap.String("method", method),
		zap.String("tx_hash", tx.Hash().Hex()),
	)

	return tx.Hash(), nil
}

// WaitForReceipt implements Gateway.
func (g *EthGateway) WaitForReceipt(ctx context.Context, ref TxRef) (*Receipt, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, ref)
		if err == nil {
			return &Receipt{
				TxHash:      ref,
				BlockNumber: receipt.BlockNumber.Uint64(),
				Success:     receipt.Status == types.ReceiptStatusSuccessful,
				Logs:        receipt.Logs,
			}, nil
		}
		if err != ethereum.NotFound {
			return nil, &NetworkError{Op: "wait for receipt", Err: err}
		}

		select {
		case <-ctx.Done():
			return nil, &NetworkError{Op: "wait for receipt", Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// BlockTime implements Gateway. Timestamps are memoized: blocks are immutable
// and the aggregation engine resolves the same blocks repeatedly.
func (g *EthGateway) BlockTime(ctx context.Context, blockNumber uint64) (time.Time, error) {
	g.mu.Lock()
	if ts, ok := g.blockTimes[blockNumber]; ok {
		g.mu.Unlock()
		return ts, nil
	}
	g.mu.Unlock()

	header, err := g.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, &NetworkError{Op: "read block header", Err: err}
	}
	ts := time.Unix(int64(header.Time), 0).UTC()

	g.mu.Lock()
	g.blockTimes[blockNumber] = ts
	g.mu.Unlock()

	return ts, nil
}

// buildQuery translates a Filter into an eth_getLogs query. Indexed argument
// constraints become topic filters in declaration order; unconstrained
// positions are wildcards.
func (g *EthGateway) buildQuery(filter Filter, fromBlock, toBlock uint64) (ethereum.FilterQuery, error) {
	event, ok := g.contractABI.Events[string(filter.Event)]
	if !ok {
		return ethereum.FilterQuery{}, fmt.Errorf("unknown event %q", filter.Event)
	}

	topicQuery := [][]interface{}{{event.ID}}
	for _, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if value, ok := filter.Args[input.Name]; ok {
			topicQuery = append(topicQuery, []interface{}{value})
		} else {
			topicQuery = append(topicQuery, nil)
		}
	}

	topics, err := abi.MakeTopics(topicQuery...)
	if err != nil {
		return ethereum.FilterQuery{}, fmt.Errorf("failed to build topic filter for %s: %w", filter.Event, err)
	}

	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{g.contract},
		Topics:    topics,
	}, nil
}

// decodeLog unpacks a raw log into an Event with named arguments.
func (g *EthGateway) decodeLog(lg types.Log) (Event, error) {
	if len(lg.Topics) == 0 {
		return Event{}, fmt.Errorf("log in tx %s has no topics", lg.TxHash.Hex())
	}

	event, err := g.contractABI.EventByID(lg.Topics[0])
	if err != nil {
		return Event{}, fmt.Errorf("unrecognized event topic %s: %w", lg.Topics[0].Hex(), err)
	}

	args := make(map[string]interface{})
	if err := g.contractABI.UnpackIntoMap(args, event.Name, lg.Data); err != nil {
		return Event{}, fmt.Errorf("failed to unpack %s data: %w", event.Name, err)
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, lg.Topics[1:]); err != nil {
		return Event{}, fmt.Errorf("failed to unpack %s topics: %w", event.Name, err)
	}

	return Event{
		Name:        EventName(event.Name),
		Args:        args,
		BlockNumber: lg.BlockNumber,
		LogIndex:    lg.Index,
		TxHash:      lg.TxHash,
		Contract:    lg.Address,
	}, nil
}
