package restapi

import (
	"context"
	"errors"
	"net/http"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/app/service"
	"fund_tracer/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TrackRequest is the body of POST /api/track.
type TrackRequest struct {
	TokenAddress  string           `json:"token_address" binding:"required,evm_address"`
	RootAddresses []string         `json:"root_addresses" binding:"required,min=1,dive,evm_address"`
	LookbackDays  *float64         `json:"lookback_days" binding:"omitempty,gte=0"`
	FromBlock     *uint64          `json:"from_block"`
	ToBlock       *uint64          `json:"to_block"`
	RPCURL        string           `json:"rpc_url" binding:"omitempty,url"`
	Network       string           `json:"network"`
	MinAmount     *decimal.Decimal `json:"min_amount"`
	MaxDepth      *uint            `json:"max_depth"`
	TokenDecimals *uint8           `json:"token_decimals" binding:"omitempty,lte=77"`
}

func (r TrackRequest) params() service.TrackParams {
	return service.TrackParams{
		Network:       r.Network,
		RPCURL:        r.RPCURL,
		TokenAddress:  r.TokenAddress,
		RootAddresses: r.RootAddresses,
		LookbackDays:  r.LookbackDays,
		FromBlock:     r.FromBlock,
		ToBlock:       r.ToBlock,
		MinAmount:     r.MinAmount,
		MaxDepth:      r.MaxDepth,
		TokenDecimals: r.TokenDecimals,
	}
}

// TraceHandler serves fund-flow scans over HTTP.
type TraceHandler struct {
	tracer   port.TracerService
	builder  *service.RequestBuilder
	networks port.NetworkDefinitionProvider
	prices   port.TokenPriceService // optional
	logger   port.Logger
}

// NewTraceHandler creates a new TraceHandler. prices may be nil.
func NewTraceHandler(
	tracer port.TracerService,
	builder *service.RequestBuilder,
	networks port.NetworkDefinitionProvider,
	prices port.TokenPriceService,
	logger port.Logger,
) *TraceHandler {
	return &TraceHandler{
		tracer:   tracer,
		builder:  builder,
		networks: networks,
		prices:   prices,
		logger:   logger,
	}
}

// Track handles POST /api/track.
func (h *TraceHandler) Track(c *gin.Context) {
	ctx := c.Request.Context()

	var body TrackRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, entity.NewErrorReport(err))
		return
	}

	req, err := h.builder.Build(ctx, body.params())
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.tracer.Scan(ctx, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	report := entity.NewScanReport(result)
	if h.prices != nil && req.Network.DEXScreenerChainID != "" {
		if price, ok := h.prices.GetPriceUSD(ctx, req.Network.DEXScreenerChainID, req.TokenAddress.Hex()); ok {
			report = report.WithPrice(price)
		}
	}
	c.JSON(http.StatusOK, report)
}

// Networks handles GET /api/v1/networks.
func (h *TraceHandler) Networks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   h.networks.GetAllNetworkDefinitions(),
	})
}

// Health handles GET /healthz.
func (h *TraceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *TraceHandler) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Track request failed", "status", status, "error", err)
	} else {
		h.logger.Debug("Track request rejected", "status", status, "error", err)
	}
	c.JSON(status, entity.NewErrorReport(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidRequest),
		errors.Is(err, entity.ErrInvalidAddress),
		errors.Is(err, entity.ErrUnknownNetwork):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrConnectivity):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
