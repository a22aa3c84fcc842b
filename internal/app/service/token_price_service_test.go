package service

import (
	"context"
	"errors"
	"testing"
	"time"

	dex_types "fund_tracer/internal/entity"
	"fund_tracer/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDEXScreener struct {
	pairs []dex_types.PairData
	err   error
	calls int
}

func (f *fakeDEXScreener) GetTokenPairs(context.Context, string, string) ([]dex_types.PairData, error) {
	f.calls++
	return f.pairs, f.err
}

const priceToken = "0x00000000000000000000000000000000000000AA"

func dexPair(quote string, price string, liquidity float64) dex_types.PairData {
	return dex_types.PairData{
		BaseToken:  dex_types.DEXToken{Address: priceToken, Symbol: "TKN"},
		QuoteToken: dex_types.DEXToken{Symbol: quote},
		PriceUsd:   price,
		Liquidity:  &dex_types.DEXLiquidity{Usd: liquidity},
	}
}

func TestGetPriceUSD_PrefersLiquidStablecoinPair(t *testing.T) {
	dsc := &fakeDEXScreener{pairs: []dex_types.PairData{
		dexPair("WBNB", "1.10", 900_000),
		dexPair("USDT", "1.02", 50_000),
		dexPair("BUSD", "1.01", 80_000),
	}}
	svc := NewTokenPriceService(dsc, logger.NewNop(), time.Minute)

	price, ok := svc.GetPriceUSD(context.Background(), "bsc", priceToken)
	require.True(t, ok)
	assert.InDelta(t, 1.01, price, 1e-9)
}

func TestGetPriceUSD_FallsBackToMostLiquidPair(t *testing.T) {
	dsc := &fakeDEXScreener{pairs: []dex_types.PairData{
		dexPair("WBNB", "2.5", 10_000),
		dexPair("CAKE", "2.4", 20_000),
	}}
	svc := NewTokenPriceService(dsc, logger.NewNop(), time.Minute)

	price, ok := svc.GetPriceUSD(context.Background(), "bsc", priceToken)
	require.True(t, ok)
	assert.InDelta(t, 2.4, price, 1e-9)
}

func TestGetPriceUSD_CachesHitsAndMisses(t *testing.T) {
	dsc := &fakeDEXScreener{pairs: []dex_types.PairData{dexPair("USDC", "3", 1)}}
	svc := NewTokenPriceService(dsc, logger.NewNop(), time.Minute)

	_, ok := svc.GetPriceUSD(context.Background(), "bsc", priceToken)
	require.True(t, ok)
	_, ok = svc.GetPriceUSD(context.Background(), "bsc", "0x00000000000000000000000000000000000000aa")
	require.True(t, ok)
	assert.Equal(t, 1, dsc.calls, "lookups are case-insensitive and cached")

	dsc.pairs = nil
	_, ok = svc.GetPriceUSD(context.Background(), "bsc", "0x00000000000000000000000000000000000000cc")
	assert.False(t, ok)
	_, ok = svc.GetPriceUSD(context.Background(), "bsc", "0x00000000000000000000000000000000000000cc")
	assert.False(t, ok)
	assert.Equal(t, 2, dsc.calls, "misses are cached too")
}

func TestGetPriceUSD_ErrorsAreNotCached(t *testing.T) {
	dsc := &fakeDEXScreener{err: errors.New("timeout")}
	svc := NewTokenPriceService(dsc, logger.NewNop(), time.Minute)

	_, ok := svc.GetPriceUSD(context.Background(), "bsc", priceToken)
	assert.False(t, ok)
	_, ok = svc.GetPriceUSD(context.Background(), "bsc", priceToken)
	assert.False(t, ok)
	assert.Equal(t, 2, dsc.calls)

	_, ok = svc.GetPriceUSD(context.Background(), "", priceToken)
	assert.False(t, ok)
	assert.Equal(t, 2, dsc.calls)
}
