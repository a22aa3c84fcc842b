package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fund_tracer/internal/app/service"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/infrastructure/configloader"
	networkdefinition "fund_tracer/internal/infrastructure/network/definition"
	"fund_tracer/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tokenHex = "0x00000000000000000000000000000000000000aa"
	rootHex  = "0x0000000000000000000000000000000000000001"
	destHex  = "0x0000000000000000000000000000000000000002"
)

type stubTracer struct {
	lastReq  entity.ScanRequest
	result   *entity.ScanResult
	scanErr  error
	head     uint64
	lookErr  error
	scanHits int
}

func (s *stubTracer) Scan(_ context.Context, req entity.ScanRequest) (*entity.ScanResult, error) {
	s.scanHits++
	s.lastReq = req
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return s.result, nil
}

func (s *stubTracer) ResolveLookback(_ context.Context, n entity.NetworkDefinition, days float64) (uint64, uint64, error) {
	if s.lookErr != nil {
		return 0, 0, s.lookErr
	}
	span := uint64(float64(n.BlocksPerDay) * days)
	return s.head - span, s.head, nil
}

type stubPrices struct{ price float64 }

func (p stubPrices) GetPriceUSD(context.Context, string, string) (float64, bool) {
	return p.price, p.price > 0
}

func newTestRouter(t *testing.T, tracer *stubTracer, prices stubPrices) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	networks := networkdefinition.NewNetworkDefinitionProvider(logger.NewNop(), nil)
	builder := service.NewRequestBuilder(networks, tracer, configloader.ScanConfig{
		DefaultNetwork:       "bsc",
		DefaultLookbackDays:  3,
		MaxLookbackDays:      30,
		DefaultMinAmount:     "100",
		MaxDepthLimit:        5,
		DefaultTokenDecimals: 18,
		MaxRootAddresses:     10,
	})
	h := NewTraceHandler(tracer, builder, networks, prices, logger.NewNop())
	return SetupRouter(h, nil, RouterOptions{RequestTimeout: time.Minute})
}

func sampleResult() *entity.ScanResult {
	return &entity.ScanResult{
		ScanID:       "scan-42",
		Network:      "bsc",
		TokenAddress: common.HexToAddress(tokenHex),
		Edges: []entity.TransferEdge{{
			Depth:            0,
			From:             common.HexToAddress(rootHex),
			To:               common.HexToAddress(destHex),
			Amount:           decimal.NewFromInt(500),
			Classification:   entity.Wallet,
			Description:      entity.Wallet.Description(),
			IsNewDestination: true,
		}},
	}
}

func postTrack(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTrack_Success(t *testing.T) {
	tracer := &stubTracer{result: sampleResult(), head: 1_000_000}
	router := newTestRouter(t, tracer, stubPrices{price: 2})

	w := postTrack(router, `{"token_address":"`+tokenHex+`","root_addresses":["`+rootHex+`"],"lookback_days":1,"min_amount":250}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "scan-42", resp["scan_id"])
	assert.Equal(t, 2.0, resp["token_price_usd"])
	assert.Equal(t, "1000", resp["total_volume_usd"])
	data, ok := resp["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	edge := data[0].(map[string]any)
	assert.Equal(t, "wallet", edge["classification"])
	assert.Equal(t, "500", edge["amount"])

	assert.Equal(t, uint64(1_000_000), tracer.lastReq.ToBlock)
	assert.Equal(t, uint64(1_000_000-28800), tracer.lastReq.FromBlock)
	assert.True(t, tracer.lastReq.MinAmount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, uint(2), tracer.lastReq.MaxDepth)
	assert.Equal(t, "bsc", tracer.lastReq.Network.Identifier)
}

func TestTrack_RPCURLOverride(t *testing.T) {
	tracer := &stubTracer{result: sampleResult(), head: 1_000_000}
	router := newTestRouter(t, tracer, stubPrices{})

	w := postTrack(router, `{"token_address":"`+tokenHex+`","root_addresses":["`+rootHex+`"],"rpc_url":"https://my.node","network":"bsc_testnet"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://my.node", tracer.lastReq.Network.PrimaryRPCURL)
	assert.Equal(t, "bsc_testnet", tracer.lastReq.Network.Identifier)
	assert.NotContains(t, w.Body.String(), "token_price_usd")
}

func TestTrack_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"token_address":`},
		{"missing roots", `{"token_address":"` + tokenHex + `"}`},
		{"empty roots", `{"token_address":"` + tokenHex + `","root_addresses":[]}`},
		{"bad token", `{"token_address":"0x123","root_addresses":["` + rootHex + `"]}`},
		{"bad root", `{"token_address":"` + tokenHex + `","root_addresses":["nope"]}`},
		{"negative lookback", `{"token_address":"` + tokenHex + `","root_addresses":["` + rootHex + `"],"lookback_days":-1}`},
		{"depth over limit", `{"token_address":"` + tokenHex + `","root_addresses":["` + rootHex + `"],"max_depth":9}`},
		{"unknown network", `{"token_address":"` + tokenHex + `","root_addresses":["` + rootHex + `"],"network":"solana"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer := &stubTracer{result: sampleResult(), head: 1_000_000}
			w := postTrack(newTestRouter(t, tracer, stubPrices{}), tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp entity.ErrorReport
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.NotEmpty(t, resp.Message)
			assert.Zero(t, tracer.scanHits)
		})
	}
}

func TestTrack_ConnectivityFailure(t *testing.T) {
	tracer := &stubTracer{head: 1_000_000, scanErr: entity.NewConnectivityError("classify", 1, errors.New("connection reset"))}
	w := postTrack(newTestRouter(t, tracer, stubPrices{}), `{"token_address":"`+tokenHex+`","root_addresses":["`+rootHex+`"]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.NotContains(t, w.Body.String(), `"data"`)
}

func TestTrack_LookbackFailure(t *testing.T) {
	tracer := &stubTracer{lookErr: entity.NewConnectivityError("block_number", 0, errors.New("timeout"))}
	w := postTrack(newTestRouter(t, tracer, stubPrices{}), `{"token_address":"`+tokenHex+`","root_addresses":["`+rootHex+`"]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, tracer.scanHits)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusForError(&entity.ScanError{Stage: "traversal", Err: context.DeadlineExceeded}))
	assert.Equal(t, http.StatusBadGateway, statusForError(entity.NewConnectivityError("dial", 0, context.DeadlineExceeded)))
	assert.Equal(t, http.StatusBadRequest, statusForError(entity.ErrUnknownNetwork))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.New("boom")))
}

func TestNetworksAndHealth(t *testing.T) {
	router := newTestRouter(t, &stubTracer{}, stubPrices{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/networks", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"identifier":"bsc"`)
	assert.Contains(t, w.Body.String(), `"ammFactoryAddress"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
