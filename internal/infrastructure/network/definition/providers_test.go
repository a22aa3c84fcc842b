package networkdefinition

import (
	"testing"

	"fund_tracer/internal/infrastructure/configloader"
	"fund_tracer/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInDefinitionsAreUsable(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), nil)

	defs := p.GetAllNetworkDefinitions()
	require.NotEmpty(t, defs)
	for i, def := range defs {
		if i > 0 {
			assert.Less(t, defs[i-1].Identifier, def.Identifier, "sorted by identifier")
		}
		assert.NotEmpty(t, def.PrimaryRPCURL, def.Identifier)
		assert.True(t, common.IsHexAddress(def.AMMFactoryAddress), def.Identifier)
		assert.True(t, common.IsHexAddress(def.WrappedNativeTokenAddress), def.Identifier)
		assert.NotZero(t, def.BlocksPerDay, def.Identifier)
	}

	bsc, ok := p.GetNetworkDefinitionByName(" BSC ")
	require.True(t, ok)
	assert.Equal(t, uint64(56), bsc.ChainID)
	assert.Equal(t, uint64(28800), bsc.BlocksPerDay)

	byChain, ok := p.GetNetworkDefinitionByChainID(97)
	require.True(t, ok)
	assert.Equal(t, "bsc_testnet", byChain.Identifier)

	byName, ok := p.GetNetworkDefinitionByName("8453")
	require.True(t, ok)
	assert.Equal(t, "base", byName.Identifier)

	_, ok = p.GetNetworkDefinitionByName("solana")
	assert.False(t, ok)
}

func TestOverrides(t *testing.T) {
	p := NewNetworkDefinitionProvider(logger.NewNop(), []configloader.NetworkOverride{
		{Identifier: "bsc", RPCURL: "https://my.node", BlocksPerDay: 115200},
		{Identifier: "devnet", RPCURL: "http://127.0.0.1:8545",
			AMMFactoryAddress:         "0x0000000000000000000000000000000000000f00",
			WrappedNativeTokenAddress: "0x0000000000000000000000000000000000000e00"},
		{Identifier: "incomplete", RPCURL: "http://127.0.0.1:9545"},
	})

	bsc, ok := p.GetNetworkDefinitionByName("bsc")
	require.True(t, ok)
	assert.Equal(t, "https://my.node", bsc.PrimaryRPCURL)
	assert.Equal(t, uint64(115200), bsc.BlocksPerDay)
	assert.Equal(t, BSC.AMMFactoryAddress, bsc.AMMFactoryAddress)
	assert.Equal(t, "https://bsc.publicnode.com", BSC.PrimaryRPCURL, "package table is not mutated")

	devnet, ok := p.GetNetworkDefinitionByName("devnet")
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:8545", devnet.PrimaryRPCURL)

	_, ok = p.GetNetworkDefinitionByName("incomplete")
	assert.False(t, ok)
}
