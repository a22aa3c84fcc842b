package port

import "context"

// TokenPriceService looks up USD prices of tokens.
type TokenPriceService interface {
	// GetPriceUSD returns the USD price of a token, or false when it is unknown.
	GetPriceUSD(ctx context.Context, dexScreenerChainID string, tokenAddress string) (float64, bool)
}
