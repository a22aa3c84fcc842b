package networkdefinition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/infrastructure/configloader"
)

var _ port.NetworkDefinitionProvider = (*NetworkDefinitionProvider)(nil)

// NetworkDefinitionProvider provides network definitions.
type NetworkDefinitionProvider struct {
	logger port.Logger
	defs   map[string]entity.NetworkDefinition
}

// Predefined network definitions. Factories are Uniswap-V2-style (getPair) deployments.
var ( //nolint:gochecknoglobals // Global for definitions
	BSC = entity.NetworkDefinition{
		ChainID:                   56,
		Name:                      "BNB Smart Chain",
		Identifier:                "bsc",
		NativeSymbol:              "BNB",
		Decimals:                  18,
		PrimaryRPCURL:             "https://bsc.publicnode.com",
		FallbackRPCURLs:           []string{"https://bsc-dataseed2.binance.org/", "https://1rpc.io/bnb"},
		BlockExplorerURL:          "https://bscscan.com",
		DEXScreenerChainID:        "bsc",
		WrappedNativeTokenAddress: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", // WBNB
		AMMFactoryAddress:         "0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73", // PancakeSwap V2
		BlocksPerDay:              28800,
	}
	BSCTestnet = entity.NetworkDefinition{
		ChainID:                   97,
		Name:                      "BNB Smart Chain Testnet",
		Identifier:                "bsc_testnet",
		NativeSymbol:              "tBNB",
		Decimals:                  18,
		PrimaryRPCURL:             "https://bsc-testnet.publicnode.com",
		FallbackRPCURLs:           []string{"https://data-seed-prebsc-1-s1.bnbchain.org:8545"},
		BlockExplorerURL:          "https://testnet.bscscan.com",
		WrappedNativeTokenAddress: "0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd", // WBNB (testnet)
		AMMFactoryAddress:         "0x6725F303b657a9451d8BA641348b6761A6CC7a17", // PancakeSwap V2 (testnet)
		BlocksPerDay:              28800,
	}
	Ethereum = entity.NetworkDefinition{
		ChainID:                   1,
		Name:                      "Ethereum Mainnet",
		Identifier:                "ethereum",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:           []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL:          "https://etherscan.io",
		DEXScreenerChainID:        "ethereum",
		WrappedNativeTokenAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
		AMMFactoryAddress:         "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f", // Uniswap V2
		BlocksPerDay:              7200,
	}
	Polygon = entity.NetworkDefinition{
		ChainID:                   137,
		Name:                      "Polygon PoS",
		Identifier:                "polygon",
		NativeSymbol:              "POL",
		Decimals:                  18,
		PrimaryRPCURL:             "https://polygon-rpc.com/",
		FallbackRPCURLs:           []string{"https://rpc.ankr.com/polygon", "https://polygon.publicnode.com"},
		BlockExplorerURL:          "https://polygonscan.com",
		DEXScreenerChainID:        "polygon",
		WrappedNativeTokenAddress: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", // WMATIC
		AMMFactoryAddress:         "0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32", // QuickSwap V2
		BlocksPerDay:              43200,
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:                   42161,
		Name:                      "Arbitrum One",
		Identifier:                "arbitrum",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:           []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL:          "https://arbiscan.io",
		DEXScreenerChainID:        "arbitrum",
		WrappedNativeTokenAddress: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", // WETH on Arbitrum
		AMMFactoryAddress:         "0xc35DADB65012eC5796536bD9864eD8773aBc74C4", // SushiSwap V2
		BlocksPerDay:              345600,
	}
	Avalanche = entity.NetworkDefinition{
		ChainID:                   43114,
		Name:                      "Avalanche C-Chain",
		Identifier:                "avalanche",
		NativeSymbol:              "AVAX",
		Decimals:                  18,
		PrimaryRPCURL:             "https://api.avax.network/ext/bc/C/rpc",
		FallbackRPCURLs:           []string{"https://avalanche.public-rpc.com", "https://rpc.ankr.com/avalanche"},
		BlockExplorerURL:          "https://snowtrace.io",
		DEXScreenerChainID:        "avalanche",
		WrappedNativeTokenAddress: "0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7", // WAVAX
		AMMFactoryAddress:         "0x9Ad6C38BE94206cA50bb0d90783181662f0Cfa10", // Trader Joe V1
		BlocksPerDay:              43200,
	}
	Base = entity.NetworkDefinition{
		ChainID:                   8453,
		Name:                      "Base Mainnet",
		Identifier:                "base",
		NativeSymbol:              "ETH",
		Decimals:                  18,
		PrimaryRPCURL:             "https://1rpc.io/base",
		FallbackRPCURLs:           []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL:          "https://basescan.org",
		DEXScreenerChainID:        "base",
		WrappedNativeTokenAddress: "0x4200000000000000000000000000000000000006", // WETH on Base
		AMMFactoryAddress:         "0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6", // Uniswap V2 on Base
		BlocksPerDay:              43200,
	}
	Fantom = entity.NetworkDefinition{
		ChainID:                   250,
		Name:                      "Fantom Opera",
		Identifier:                "fantom",
		NativeSymbol:              "FTM",
		Decimals:                  18,
		PrimaryRPCURL:             "https://1rpc.io/ftm",
		FallbackRPCURLs:           []string{"https://fantom.publicnode.com", "https://rpc.ankr.com/fantom"},
		BlockExplorerURL:          "https://ftmscan.com",
		DEXScreenerChainID:        "fantom",
		WrappedNativeTokenAddress: "0x21be370D5312f44cB42ce377BC9b8a0cEF1A4C83", // WFTM
		AMMFactoryAddress:         "0x152eE697f2E276fA89E96742e9bB9aB1F2E61bE3", // SpookySwap
		BlocksPerDay:              86400,
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
func allKnownDefinitions() map[string]entity.NetworkDefinition {
	return map[string]entity.NetworkDefinition{
		BSC.Identifier:        BSC,
		BSCTestnet.Identifier: BSCTestnet,
		Ethereum.Identifier:   Ethereum,
		Polygon.Identifier:    Polygon,
		Arbitrum.Identifier:   Arbitrum,
		Avalanche.Identifier:  Avalanche,
		Base.Identifier:       Base,
		Fantom.Identifier:     Fantom,
	}
}

// NewNetworkDefinitionProvider creates a new NetworkDefinitionProvider from the built-in table
// with config overrides applied. An override for an unknown identifier defines a custom network
// when it carries an RPC URL, a factory and a wrapped native token.
func NewNetworkDefinitionProvider(log port.Logger, overrides []configloader.NetworkOverride) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger: log,
		defs:   allKnownDefinitions(),
	}

	for _, o := range overrides {
		id := strings.ToLower(o.Identifier)
		def, known := p.defs[id]
		if !known {
			if o.RPCURL == "" || o.AMMFactoryAddress == "" || o.WrappedNativeTokenAddress == "" {
				p.logger.Warn(fmt.Sprintf("Override for unknown network '%s' is incomplete (rpcURL, ammFactoryAddress and wrappedNativeTokenAddress are required). Skipping.", id))
				continue
			}
			def = entity.NetworkDefinition{Identifier: id, Name: id, Decimals: 18}
		}
		p.defs[id] = applyOverride(def, o)
		p.logger.Debug(fmt.Sprintf("Network '%s' configured from overrides (known: %t).", id, known))
	}

	p.logger.Info(fmt.Sprintf("NetworkDefinitionProvider initialized. Networks: %d", len(p.defs)))
	return p
}

func applyOverride(def entity.NetworkDefinition, o configloader.NetworkOverride) entity.NetworkDefinition {
	if o.RPCURL != "" {
		def.PrimaryRPCURL = o.RPCURL
	}
	if len(o.FallbackRPCURLs) > 0 {
		def.FallbackRPCURLs = append([]string(nil), o.FallbackRPCURLs...)
	}
	if o.AMMFactoryAddress != "" {
		def.AMMFactoryAddress = o.AMMFactoryAddress
	}
	if o.WrappedNativeTokenAddress != "" {
		def.WrappedNativeTokenAddress = o.WrappedNativeTokenAddress
	}
	if o.BlocksPerDay > 0 {
		def.BlocksPerDay = o.BlocksPerDay
	}
	if o.DEXScreenerChainID != "" {
		def.DEXScreenerChainID = o.DEXScreenerChainID
	}
	return def
}

// GetAllNetworkDefinitions returns all configured network definitions ordered by identifier.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defs := make([]entity.NetworkDefinition, 0, len(p.defs))
	for _, def := range p.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Identifier < defs[j].Identifier })
	return defs
}

// GetNetworkDefinitionByName returns a specific network definition by its identifier.
// A decimal chain ID ("56") is accepted as well.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(identifier string) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	key := strings.ToLower(strings.TrimSpace(identifier))
	if def, ok := p.defs[key]; ok {
		return def, true
	}
	if chainID, err := strconv.ParseUint(key, 10, 64); err == nil {
		return p.GetNetworkDefinitionByChainID(chainID)
	}
	return entity.NetworkDefinition{}, false
}

// GetNetworkDefinitionByChainID returns a specific network definition by its chain ID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.defs {
		if def.ChainID == chainID && chainID != 0 {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}
