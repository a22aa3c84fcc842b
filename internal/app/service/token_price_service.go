package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/client"
	dex_types "fund_tracer/internal/entity"

	"github.com/patrickmn/go-cache"
)

var stablecoinSymbols = map[string]struct{}{
	"USDC": {},
	"USDT": {},
	"DAI":  {},
	"BUSD": {},
}

// missingPrice marks a cached miss so unknown tokens are not re-requested until the TTL expires.
const missingPrice = -1.0

// tokenPriceServiceImpl implements port.TokenPriceService with a TTL cache in front of DEX Screener.
type tokenPriceServiceImpl struct {
	dexscreenerClient client.DEXScreenerClient
	logger            port.Logger
	prices            *cache.Cache
}

// NewTokenPriceService creates a new instance of tokenPriceServiceImpl.
func NewTokenPriceService(dsc client.DEXScreenerClient, l port.Logger, ttl time.Duration) port.TokenPriceService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenPriceServiceImpl{
		dexscreenerClient: dsc,
		logger:            l,
		prices:            cache.New(ttl, 2*ttl),
	}
}

// GetPriceUSD implements port.TokenPriceService.
func (s *tokenPriceServiceImpl) GetPriceUSD(ctx context.Context, dexScreenerChainID string, tokenAddress string) (float64, bool) {
	if dexScreenerChainID == "" || tokenAddress == "" {
		return 0, false
	}
	key := dexScreenerChainID + ":" + strings.ToLower(tokenAddress)
	if cached, ok := s.prices.Get(key); ok {
		price := cached.(float64)
		return price, price != missingPrice
	}

	pairs, err := s.dexscreenerClient.GetTokenPairs(ctx, dexScreenerChainID, tokenAddress)
	if err != nil {
		// Not cached: the failure may be transient.
		s.logger.Warn("Failed to get token pairs from DEXScreener",
			"dexScreenerID", dexScreenerChainID, "tokenAddress", tokenAddress, "error", err)
		return 0, false
	}

	priceStr := s.selectBestPriceFromPairs(pairs, tokenAddress)
	price, errConv := strconv.ParseFloat(priceStr, 64)
	if priceStr == "" || errConv != nil || price <= 0 {
		s.prices.SetDefault(key, missingPrice)
		return 0, false
	}

	s.prices.SetDefault(key, price)
	s.logger.Debug("Cached price for token", "dexScreenerID", dexScreenerChainID, "tokenAddress", tokenAddress, "priceUSD", price)
	return price, true
}

// selectBestPriceFromPairs prefers the most liquid stablecoin-quoted pair, then the most liquid pair overall.
func (s *tokenPriceServiceImpl) selectBestPriceFromPairs(pairs []dex_types.PairData, baseTokenAddress string) string {
	var bestOverallPair *dex_types.PairData
	var bestStablecoinPair *dex_types.PairData

	for i := range pairs {
		pair := &pairs[i]
		if !strings.EqualFold(pair.BaseToken.Address, baseTokenAddress) {
			continue
		}
		if pair.PriceUsd == "" || pair.PriceUsd == "0" {
			continue
		}

		if _, isStablecoin := stablecoinSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; isStablecoin {
			if bestStablecoinPair == nil || pair.LiquidityUSD() > bestStablecoinPair.LiquidityUSD() {
				bestStablecoinPair = pair
			}
		}
		if bestOverallPair == nil || pair.LiquidityUSD() > bestOverallPair.LiquidityUSD() {
			bestOverallPair = pair
		}
	}

	if bestStablecoinPair != nil {
		s.logger.Debug("Selected best price from stablecoin pair",
			"baseTokenAddress", baseTokenAddress,
			"pairAddress", bestStablecoinPair.PairAddress,
			"priceUsd", bestStablecoinPair.PriceUsd,
			"liquidityUsd", bestStablecoinPair.LiquidityUSD(),
			"quoteToken", bestStablecoinPair.QuoteToken.Symbol)
		return bestStablecoinPair.PriceUsd
	}
	if bestOverallPair != nil {
		return bestOverallPair.PriceUsd
	}

	s.logger.Debug("No suitable price found from pairs", "baseTokenAddress", baseTokenAddress, "evaluatedPairCount", len(pairs))
	return ""
}
