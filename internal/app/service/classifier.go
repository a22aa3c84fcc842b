package service

import (
	"context"
	"fmt"
	"sync"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
)

// addressClassifier implements port.AddressClassifier for a single scan.
// Classifications are cached for the life of the scan only.
type addressClassifier struct {
	chain   port.ChainReader
	token   common.Address
	factory common.Address
	wrapped common.Address
	logger  port.Logger
	record  func(entity.Truncation)
	cache   *cache.Cache

	pairOnce sync.Once
	pair     common.Address
	pairErr  error
}

func newAddressClassifier(
	chain port.ChainReader,
	req entity.ScanRequest,
	logger port.Logger,
	record func(entity.Truncation),
) *addressClassifier {
	return &addressClassifier{
		chain:   chain,
		token:   req.TokenAddress,
		factory: common.HexToAddress(req.Network.AMMFactoryAddress),
		wrapped: common.HexToAddress(req.Network.WrappedNativeTokenAddress),
		logger:  logger,
		record:  record,
		cache:   cache.New(cache.NoExpiration, 0),
	}
}

// Classify returns Wallet for accounts without code, SwapPair for the token/wrapped-native AMM pair
// and ContractOrRouter for any other contract. Only a failed bytecode read is returned as an error.
func (c *addressClassifier) Classify(ctx context.Context, address common.Address) (entity.Classification, error) {
	key := address.Hex()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(entity.Classification), nil
	}

	code, err := c.chain.CodeAt(ctx, address, nil)
	metrics.ObserveRPC("eth_getCode", err)
	if err != nil {
		return entity.ContractOrRouter, fmt.Errorf("failed to fetch code of %s: %w", key, err)
	}

	cls := entity.Wallet
	if len(code) > 0 {
		cls = entity.ContractOrRouter
		if pair, ok := c.swapPair(ctx); ok && pair == address {
			cls = entity.SwapPair
		}
	}

	c.cache.Set(key, cls, cache.NoExpiration)
	c.logger.Debug("Classified address", "address", key, "classification", cls.String())
	return cls, nil
}

// swapPair looks up the token/wrapped-native pair once per scan. A failed lookup is not retried.
func (c *addressClassifier) swapPair(ctx context.Context) (common.Address, bool) {
	c.pairOnce.Do(func() {
		c.pair, c.pairErr = c.lookupPair(ctx)
		if c.pairErr != nil {
			c.logger.Warn("AMM pair lookup failed, contracts will be classified as contract_or_router",
				"factory", c.factory.Hex(), "token", c.token.Hex(), "wrapped_native", c.wrapped.Hex(), "error", c.pairErr)
			factory := c.factory
			c.record(entity.Truncation{
				Kind:    entity.TruncationClassification,
				Address: &factory,
				Reason:  c.pairErr.Error(),
			})
		}
	})
	return c.pair, c.pairErr == nil
}

func (c *addressClassifier) lookupPair(ctx context.Context) (common.Address, error) {
	parsed := factoryABI()
	data, err := parsed.Pack("getPair", c.token, c.wrapped)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack getPair call: %w", err)
	}

	factory := c.factory
	out, err := c.chain.CallContract(ctx, ethereum.CallMsg{To: &factory, Data: data}, nil)
	metrics.ObserveRPC("eth_call", err)
	if err != nil {
		return common.Address{}, fmt.Errorf("getPair call failed: %w", err)
	}

	unpacked, err := parsed.Unpack("getPair", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unpack getPair result: %w", err)
	}
	if len(unpacked) == 0 {
		return common.Address{}, fmt.Errorf("getPair unpack returned no data")
	}
	pair, ok := unpacked[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected getPair result type %T", unpacked[0])
	}
	return pair, nil
}
