package entity

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNetwork = NetworkDefinition{
	Identifier:                "bsc",
	PrimaryRPCURL:             "https://primary",
	FallbackRPCURLs:           []string{"https://fallback"},
	AMMFactoryAddress:         "0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73",
	WrappedNativeTokenAddress: wbnb,
}

func validRequest() ScanRequest {
	return NewScanRequest(testNetwork,
		common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		[]common.Address{common.HexToAddress("0x0000000000000000000000000000000000000001")},
		10, 20)
}

func TestNewScanRequest_Defaults(t *testing.T) {
	req := validRequest()
	assert.Equal(t, DefaultMaxDepth, req.MaxDepth)
	assert.Equal(t, DefaultTokenDecimals, req.TokenDecimals)
	assert.True(t, req.MinAmount.Equal(decimal.NewFromInt(100)))
	require.NoError(t, req.Validate())
}

func TestScanRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ScanRequest)
	}{
		{"no roots", func(r *ScanRequest) { r.RootAddresses = nil }},
		{"zero token", func(r *ScanRequest) { r.TokenAddress = common.Address{} }},
		{"inverted range", func(r *ScanRequest) { r.FromBlock, r.ToBlock = 30, 20 }},
		{"negative min amount", func(r *ScanRequest) { r.MinAmount = decimal.NewFromInt(-5) }},
		{"decimals out of range", func(r *ScanRequest) { r.TokenDecimals = 78 }},
		{"missing factory", func(r *ScanRequest) { r.Network.AMMFactoryAddress = "" }},
		{"missing wrapped native", func(r *ScanRequest) { r.Network.WrappedNativeTokenAddress = "0x12" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}

	single := validRequest()
	single.FromBlock, single.ToBlock = 20, 20
	assert.NoError(t, single.Validate())
}

func TestClassification_Text(t *testing.T) {
	for _, c := range []Classification{Wallet, ContractOrRouter, SwapPair} {
		text, err := c.MarshalText()
		require.NoError(t, err)
		var back Classification
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}
	assert.True(t, Wallet.Expandable())
	assert.False(t, ContractOrRouter.Expandable())
	assert.False(t, SwapPair.Expandable())

	_, err := Classification(42).MarshalText()
	assert.Error(t, err)
	var c Classification
	assert.Error(t, c.UnmarshalText([]byte("exchange")))
}

func TestTransferEdge_JSON(t *testing.T) {
	ev := TransferEvent{
		From:        common.HexToAddress("0x0000000000000000000000000000000000000001"),
		To:          common.HexToAddress("0x0000000000000000000000000000000000000002"),
		RawAmount:   big.NewInt(1500),
		BlockNumber: 77,
	}
	edge := NewTransferEdge(1, ev, decimal.RequireFromString("1.5"), SwapPair, true)

	raw, err := json.Marshal(edge)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "swap_pair", decoded["classification"])
	assert.Equal(t, SwapPair.Description(), decoded["desc"])
	assert.Equal(t, "1.5", decoded["amount"])
	assert.Equal(t, true, decoded["is_new"])
	assert.Equal(t, "0x0000000000000000000000000000000000000002", decoded["to"])
}

func TestScanResult_TotalsAndReport(t *testing.T) {
	result := &ScanResult{
		ScanID: "id",
		Edges: []TransferEdge{
			{Amount: decimal.NewFromInt(100), Classification: Wallet},
			{Amount: decimal.NewFromInt(250), Classification: SwapPair},
		},
	}
	assert.True(t, result.TotalAmount().Equal(decimal.NewFromInt(350)))
	assert.True(t, result.TotalAmount(SwapPair).Equal(decimal.NewFromInt(250)))
	assert.True(t, result.Complete())

	report := NewScanReport(result).WithPrice(0.5)
	assert.Equal(t, "success", report.Status)
	require.NotNil(t, report.TotalVolumeUSD)
	assert.Equal(t, "175", report.TotalVolumeUSD.String())
	require.NotNil(t, report.TokenPriceUSD)
	assert.Equal(t, 0.5, *report.TokenPriceUSD)

	empty := NewScanReport(&ScanResult{})
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
	assert.NotContains(t, string(raw), "truncations")
}

func TestScanReport_VolumeCountsRootOutflowOnce(t *testing.T) {
	result := &ScanResult{Edges: []TransferEdge{
		{Depth: 0, Amount: decimal.NewFromInt(1000), Classification: Wallet},
		{Depth: 1, Amount: decimal.NewFromInt(1000), Classification: Wallet},
		{Depth: 2, Amount: decimal.NewFromInt(400), Classification: SwapPair},
	}}

	report := NewScanReport(result).WithPrice(2)
	require.NotNil(t, report.TotalVolumeUSD)
	assert.Equal(t, "2000", report.TotalVolumeUSD.String())
	assert.Len(t, report.Data, 3, "deeper edges are still reported")
}

func TestNetworkDefinition_WithRPCURL(t *testing.T) {
	n := testNetwork.WithRPCURL("https://custom")
	assert.Equal(t, "https://custom", n.PrimaryRPCURL)
	assert.Equal(t, []string{"https://primary", "https://fallback"}, n.FallbackRPCURLs)
	assert.Equal(t, "https://primary", testNetwork.PrimaryRPCURL, "receiver is untouched")

	assert.Equal(t, testNetwork, testNetwork.WithRPCURL(""))

	promoted := testNetwork.WithRPCURL("https://fallback")
	assert.Equal(t, []string{"https://primary"}, promoted.FallbackRPCURLs)
}

func TestScanError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectivityError("dial", 0, cause)
	assert.True(t, errors.Is(err, ErrConnectivity))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "dial")
}
