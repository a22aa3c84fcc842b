package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

var _ port.ChainReader = (*EVMClient)(nil)

// EVMClient implements the port.ChainReader interface for EVM-compatible chains.
// All calls go through a shared rate limiter and are bounded by rpcCallTimeout.
type EVMClient struct {
	ethClient      *ethclient.Client
	rpcURL         string
	rpcCallTimeout time.Duration
	limiter        *rate.Limiter
}

// ClientOptions tunes dialing and per-call behaviour.
type ClientOptions struct {
	ConnectionTimeout time.Duration
	RPCCallTimeout    time.Duration
	RateLimit         float64 // requests per second, 0 = unlimited
	BurstLimit        int
}

func (o ClientOptions) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := o.BurstLimit
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), burst)
}

// NewEVMClient dials the primary RPC endpoint of netDef and falls back to the others in order.
// An endpoint is used only after it answers eth_chainId, and with the expected chain when
// netDef carries one.
func NewEVMClient(ctx context.Context, netDef entity.NetworkDefinition, opts ClientOptions) (*EVMClient, error) {
	rpcURLs := make([]string, 0, 1+len(netDef.FallbackRPCURLs))
	if netDef.PrimaryRPCURL != "" {
		rpcURLs = append(rpcURLs, netDef.PrimaryRPCURL)
	}
	rpcURLs = append(rpcURLs, netDef.FallbackRPCURLs...)
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("network %s has no RPC endpoints configured", netDef.Identifier)
	}

	var lastErr error
	for _, rpcURL := range rpcURLs {
		client, err := dialLive(ctx, rpcURL, netDef.ChainID, opts.ConnectionTimeout)
		if err == nil {
			return &EVMClient{
				ethClient:      client,
				rpcURL:         rpcURL,
				rpcCallTimeout: opts.RPCCallTimeout,
				limiter:        opts.limiter(),
			}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Identifier, lastErr)
}

// dialLive dials rpcURL and checks the node answers. HTTP dials never touch the network.
func dialLive(ctx context.Context, rpcURL string, wantChainID uint64, timeout time.Duration) (*ethclient.Client, error) {
	var (
		dialCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		dialCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, err
	}
	chainID, err := client.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("liveness check: %w", err)
	}
	if wantChainID != 0 && chainID.Uint64() != wantChainID {
		client.Close()
		return nil, fmt.Errorf("endpoint serves chain %s, want %d", chainID, wantChainID)
	}
	return client, nil
}

// callContext waits for the limiter and derives a context bounded by the call timeout.
func (c *EVMClient) callContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	if c.rpcCallTimeout <= 0 {
		callCtx, cancel := context.WithCancel(ctx)
		return callCtx, cancel, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	return callCtx, cancel, nil
}

// CodeAt returns the deployed bytecode of account.
func (c *EVMClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.CodeAt(callCtx, account, blockNumber)
}

// CallContract executes a read-only message call.
func (c *EVMClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.CallContract(callCtx, msg, blockNumber)
}

// FilterLogs runs an eth_getLogs query.
func (c *EVMClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.FilterLogs(callCtx, q)
}

// BlockNumber returns the current head.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	return c.ethClient.BlockNumber(callCtx)
}

// RPCURL is the endpoint the client ended up connected to.
func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.ethClient.Close()
}
