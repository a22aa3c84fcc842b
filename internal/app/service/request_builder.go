package service

import (
	"context"
	"fmt"
	"strings"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/infrastructure/configloader"

	"github.com/shopspring/decimal"
)

// TrackParams is a trace request as received from a caller, before defaults, limits and
// the lookback window are resolved. Nil pointers mean "use the configured default".
type TrackParams struct {
	Network       string
	RPCURL        string
	TokenAddress  string
	RootAddresses []string
	LookbackDays  *float64
	FromBlock     *uint64
	ToBlock       *uint64
	MinAmount     *decimal.Decimal
	MaxDepth      *uint
	TokenDecimals *uint8
}

// RequestBuilder turns TrackParams into a ScanRequest.
type RequestBuilder struct {
	networks port.NetworkDefinitionProvider
	tracer   port.TracerService
	cfg      configloader.ScanConfig
}

// NewRequestBuilder creates a new RequestBuilder.
func NewRequestBuilder(networks port.NetworkDefinitionProvider, tracer port.TracerService, cfg configloader.ScanConfig) *RequestBuilder {
	return &RequestBuilder{networks: networks, tracer: tracer, cfg: cfg}
}

// Build applies defaults and limits, then resolves the block window. The chain is only
// contacted when no explicit block range is given.
func (b *RequestBuilder) Build(ctx context.Context, p TrackParams) (entity.ScanRequest, error) {
	networkID := strings.TrimSpace(p.Network)
	if networkID == "" {
		networkID = b.cfg.DefaultNetwork
	}
	network, ok := b.networks.GetNetworkDefinitionByName(networkID)
	if !ok {
		return entity.ScanRequest{}, fmt.Errorf("%w: %q", entity.ErrUnknownNetwork, networkID)
	}
	network = network.WithRPCURL(strings.TrimSpace(p.RPCURL))

	token, err := entity.ParseAddress(p.TokenAddress)
	if err != nil {
		return entity.ScanRequest{}, fmt.Errorf("token_address: %w", err)
	}
	roots, err := entity.ParseAddresses(p.RootAddresses)
	if err != nil {
		return entity.ScanRequest{}, fmt.Errorf("root_addresses: %w", err)
	}
	if len(roots) == 0 {
		return entity.ScanRequest{}, fmt.Errorf("%w: at least one root address is required", entity.ErrInvalidRequest)
	}
	if b.cfg.MaxRootAddresses > 0 && len(roots) > b.cfg.MaxRootAddresses {
		return entity.ScanRequest{}, fmt.Errorf("%w: %d root addresses exceed the limit of %d",
			entity.ErrInvalidRequest, len(roots), b.cfg.MaxRootAddresses)
	}

	req := entity.NewScanRequest(network, token, roots, 0, 0)
	req.MinAmount = b.cfg.MinAmount()
	req.MaxDepth = b.cfg.MaxDepth()
	req.TokenDecimals = b.cfg.DefaultTokenDecimals

	if p.MinAmount != nil {
		if p.MinAmount.IsNegative() {
			return entity.ScanRequest{}, fmt.Errorf("%w: min_amount must not be negative", entity.ErrInvalidRequest)
		}
		req.MinAmount = *p.MinAmount
	}
	if p.MaxDepth != nil {
		if b.cfg.MaxDepthLimit > 0 && *p.MaxDepth > b.cfg.MaxDepthLimit {
			return entity.ScanRequest{}, fmt.Errorf("%w: max_depth %d exceeds the limit of %d",
				entity.ErrInvalidRequest, *p.MaxDepth, b.cfg.MaxDepthLimit)
		}
		req.MaxDepth = *p.MaxDepth
	}
	if p.TokenDecimals != nil {
		req.TokenDecimals = *p.TokenDecimals
	}

	switch {
	case p.FromBlock != nil && p.ToBlock != nil:
		req.FromBlock, req.ToBlock = *p.FromBlock, *p.ToBlock
	case p.FromBlock != nil || p.ToBlock != nil:
		return entity.ScanRequest{}, fmt.Errorf("%w: from_block and to_block must be given together", entity.ErrInvalidRequest)
	default:
		days := b.cfg.DefaultLookbackDays
		if p.LookbackDays != nil {
			days = *p.LookbackDays
		}
		if days < 0 || (b.cfg.MaxLookbackDays > 0 && days > b.cfg.MaxLookbackDays) {
			return entity.ScanRequest{}, fmt.Errorf("%w: lookback_days %.2f out of range [0, %.2f]",
				entity.ErrInvalidRequest, days, b.cfg.MaxLookbackDays)
		}
		if err := req.Validate(); err != nil {
			return entity.ScanRequest{}, err
		}
		from, to, err := b.tracer.ResolveLookback(ctx, network, days)
		if err != nil {
			return entity.ScanRequest{}, err
		}
		req.FromBlock, req.ToBlock = from, to
	}

	if err := req.Validate(); err != nil {
		return entity.ScanRequest{}, err
	}
	return req, nil
}
