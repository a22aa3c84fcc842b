package entity

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	DefaultMaxDepth      uint  = 2
	DefaultMinAmount     int64 = 100
	DefaultTokenDecimals uint8 = 18
)

// ScanRequest is the immutable input of one traversal.
type ScanRequest struct {
	Network       NetworkDefinition
	TokenAddress  common.Address
	RootAddresses []common.Address
	FromBlock     uint64
	ToBlock       uint64
	MinAmount     decimal.Decimal
	MaxDepth      uint
	TokenDecimals uint8
}

// NewScanRequest returns a request carrying the default thresholds.
func NewScanRequest(network NetworkDefinition, token common.Address, roots []common.Address, fromBlock, toBlock uint64) ScanRequest {
	return ScanRequest{
		Network:       network,
		TokenAddress:  token,
		RootAddresses: roots,
		FromBlock:     fromBlock,
		ToBlock:       toBlock,
		MinAmount:     decimal.NewFromInt(DefaultMinAmount),
		MaxDepth:      DefaultMaxDepth,
		TokenDecimals: DefaultTokenDecimals,
	}
}

// Validate checks the request shape. It does not touch the network.
func (r ScanRequest) Validate() error {
	if len(r.RootAddresses) == 0 {
		return fmt.Errorf("%w: at least one root address is required", ErrInvalidRequest)
	}
	if r.TokenAddress == (common.Address{}) {
		return fmt.Errorf("%w: token address is required", ErrInvalidRequest)
	}
	if r.FromBlock > r.ToBlock {
		return fmt.Errorf("%w: fromBlock %d is after toBlock %d", ErrInvalidRequest, r.FromBlock, r.ToBlock)
	}
	if r.MinAmount.IsNegative() {
		return fmt.Errorf("%w: minAmount must not be negative", ErrInvalidRequest)
	}
	if r.TokenDecimals > 77 {
		return fmt.Errorf("%w: token decimals %d out of range", ErrInvalidRequest, r.TokenDecimals)
	}
	if !common.IsHexAddress(r.Network.AMMFactoryAddress) {
		return fmt.Errorf("%w: network %q has no AMM factory address", ErrInvalidRequest, r.Network.Identifier)
	}
	if !common.IsHexAddress(r.Network.WrappedNativeTokenAddress) {
		return fmt.Errorf("%w: network %q has no wrapped native token address", ErrInvalidRequest, r.Network.Identifier)
	}
	return nil
}

// TruncationKind names the stage at which a recoverable failure happened.
type TruncationKind string

const (
	TruncationLogQuery       TruncationKind = "log_query"
	TruncationClassification TruncationKind = "classification"
)

// Truncation records a failure that was absorbed by the scan. The result is still valid but may be incomplete.
type Truncation struct {
	Depth     uint            `json:"depth"`
	Kind      TruncationKind  `json:"kind"`
	Address   *common.Address `json:"address,omitempty"`
	FromBlock uint64          `json:"from_block,omitempty"`
	ToBlock   uint64          `json:"to_block,omitempty"`
	Reason    string          `json:"reason"`
}

// ScanResult is owned by the invocation that produced it.
type ScanResult struct {
	ScanID        string         `json:"scan_id"`
	Network       string         `json:"network"`
	TokenAddress  common.Address `json:"token_address"`
	FromBlock     uint64         `json:"from_block"`
	ToBlock       uint64         `json:"to_block"`
	Edges         []TransferEdge `json:"data"`
	Truncations   []Truncation   `json:"truncations,omitempty"`
	LayersScanned uint           `json:"layers_scanned"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"-"`
}

// Complete reports whether no failure was absorbed during the scan.
func (r *ScanResult) Complete() bool {
	return len(r.Truncations) == 0
}

// TotalAmount sums edge amounts, optionally restricted to one classification.
func (r *ScanResult) TotalAmount(only ...Classification) decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Edges {
		if len(only) > 0 && !containsClassification(only, e.Classification) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

func containsClassification(list []Classification, c Classification) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
