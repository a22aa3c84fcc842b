package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ScanReport is the outward shape of a finished scan, shared by the HTTP API and the CLI.
type ScanReport struct {
	Status         string           `json:"status"`
	ScanID         string           `json:"scan_id"`
	Network        string           `json:"network"`
	TokenAddress   common.Address   `json:"token_address"`
	FromBlock      uint64           `json:"from_block"`
	ToBlock        uint64           `json:"to_block"`
	Complete       bool             `json:"complete"`
	LayersScanned  uint             `json:"layers_scanned"`
	Data           []TransferEdge   `json:"data"`
	Truncations    []Truncation     `json:"truncations,omitempty"`
	TokenPriceUSD  *float64         `json:"token_price_usd,omitempty"`
	TotalVolumeUSD *decimal.Decimal `json:"total_volume_usd,omitempty"`
}

// NewScanReport wraps a result. Data is never null in the encoded form.
func NewScanReport(r *ScanResult) ScanReport {
	edges := r.Edges
	if edges == nil {
		edges = []TransferEdge{}
	}
	return ScanReport{
		Status:        "success",
		ScanID:        r.ScanID,
		Network:       r.Network,
		TokenAddress:  r.TokenAddress,
		FromBlock:     r.FromBlock,
		ToBlock:       r.ToBlock,
		Complete:      r.Complete(),
		LayersScanned: r.LayersScanned,
		Data:          edges,
		Truncations:   r.Truncations,
	}
}

// WithPrice attaches a USD price and the USD value of the tokens that left the roots.
// Only depth-0 edges count: deeper edges re-move value already counted at depth 0.
func (s ScanReport) WithPrice(priceUSD float64) ScanReport {
	total := decimal.Zero
	for _, e := range s.Data {
		if e.Depth == 0 {
			total = total.Add(e.Amount)
		}
	}
	volume := total.Mul(decimal.NewFromFloat(priceUSD)).Round(2)
	s.TokenPriceUSD = &priceUSD
	s.TotalVolumeUSD = &volume
	return s
}

// ErrorReport is the body returned for a failed request.
type ErrorReport struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewErrorReport builds an ErrorReport from err.
func NewErrorReport(err error) ErrorReport {
	return ErrorReport{Status: "error", Message: err.Error()}
}
