package entity

// NetworkDefinition holds the configuration for a specific blockchain network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID            uint64   `json:"chainId" yaml:"chainId"`
	Name               string   `json:"name" yaml:"name"`
	Identifier         string   `json:"identifier" yaml:"identifier"` // short id used in requests, e.g. "bsc"
	NativeSymbol       string   `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals           int32    `json:"decimals" yaml:"decimals"`
	PrimaryRPCURL      string   `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs    []string `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL   string   `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	DEXScreenerChainID string   `json:"dexScreenerChainId,omitempty" yaml:"dexScreenerChainId,omitempty"`

	// WrappedNativeTokenAddress is the reference currency of the AMM pair used for SwapPair detection.
	WrappedNativeTokenAddress string `json:"wrappedNativeTokenAddress" yaml:"wrappedNativeTokenAddress"`
	// AMMFactoryAddress is a Uniswap-V2-style factory exposing getPair(address,address).
	AMMFactoryAddress string `json:"ammFactoryAddress" yaml:"ammFactoryAddress"`
	// BlocksPerDay converts a lookback in days into a block count.
	BlocksPerDay uint64 `json:"blocksPerDay" yaml:"blocksPerDay"`
}

// WithRPCURL returns a copy of the definition that dials rpcURL first.
func (n NetworkDefinition) WithRPCURL(rpcURL string) NetworkDefinition {
	if rpcURL == "" || rpcURL == n.PrimaryRPCURL {
		return n
	}
	fallbacks := make([]string, 0, len(n.FallbackRPCURLs)+1)
	if n.PrimaryRPCURL != "" {
		fallbacks = append(fallbacks, n.PrimaryRPCURL)
	}
	for _, u := range n.FallbackRPCURLs {
		if u != rpcURL {
			fallbacks = append(fallbacks, u)
		}
	}
	n.PrimaryRPCURL = rpcURL
	n.FallbackRPCURLs = fallbacks
	return n
}
