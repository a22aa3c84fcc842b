package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/pkg/metrics"
	"fund_tracer/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// defaultBlocksPerDay matches BSC's ~3s block time.
const defaultBlocksPerDay uint64 = 28800

var _ port.TracerService = (*TracerServiceImpl)(nil)

// TracerServiceImpl implements port.TracerService.
type TracerServiceImpl struct {
	clientProvider port.ChainClientProvider
	logger         port.Logger
	fetchOpts      FetchOptions
	newScanID      func() string
	now            func() time.Time
}

// NewTracerService creates a new instance of TracerServiceImpl.
func NewTracerService(cp port.ChainClientProvider, l port.Logger, fetchOpts FetchOptions) *TracerServiceImpl {
	return &TracerServiceImpl{
		clientProvider: cp,
		logger:         l,
		fetchOpts:      fetchOpts,
		newScanID:      func() string { return uuid.New().String() },
		now:            time.Now,
	}
}

// Scan implements port.TracerService.
func (s *TracerServiceImpl) Scan(ctx context.Context, req entity.ScanRequest) (*entity.ScanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startedAt := s.now()
	scanID := s.newScanID()
	s.logger.Info("Starting scan",
		"scan_id", scanID, "network", req.Network.Identifier, "token", req.TokenAddress.Hex(),
		"roots", len(req.RootAddresses), "from_block", req.FromBlock, "to_block", req.ToBlock,
		"min_amount", req.MinAmount.String(), "min_raw", utils.ToRawAmount(req.MinAmount, req.TokenDecimals).String(),
		"max_depth", req.MaxDepth)

	chain, err := s.clientProvider.GetClient(ctx, req.Network)
	if err != nil {
		s.finish(scanID, startedAt, nil, err)
		return nil, entity.NewConnectivityError("dial", 0, err)
	}

	result, err := s.traverse(ctx, chain, req)
	if err != nil {
		s.finish(scanID, startedAt, nil, err)
		return nil, err
	}

	result.ScanID = scanID
	result.StartedAt = startedAt
	result.Duration = s.now().Sub(startedAt)
	s.finish(scanID, startedAt, result, nil)
	return result, nil
}

// traverse is the breadth-first expansion. Layer n holds the wallets first reached at hop n.
func (s *TracerServiceImpl) traverse(ctx context.Context, chain port.ChainReader, req entity.ScanRequest) (*entity.ScanResult, error) {
	agg := newResultAggregator()

	var depth uint
	record := func(t entity.Truncation) {
		t.Depth = depth
		agg.AddTruncation(t)
		metrics.TruncationsTotal.WithLabelValues(string(t.Kind)).Inc()
	}

	classifier := newAddressClassifier(chain, req, s.logger, record)
	fetcher := newTransferLogFetcher(chain, req, s.fetchOpts, s.logger, record)

	visited := make(map[common.Address]struct{})
	layer := req.RootAddresses
	var layersScanned uint

	for depth = 0; depth <= req.MaxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, &entity.ScanError{Stage: "traversal", Depth: depth, Err: err}
		}

		frontier := make([]common.Address, 0, len(layer))
		for _, addr := range layer {
			if _, seen := visited[addr]; seen {
				continue
			}
			visited[addr] = struct{}{}
			frontier = append(frontier, addr)
		}
		if len(frontier) == 0 {
			break
		}
		layersScanned++

		events, err := fetcher.FetchTransfers(ctx, depth, frontier)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, &entity.ScanError{Stage: "log_query", Depth: depth, Err: err}
		}

		next := make([]common.Address, 0)
		queued := make(map[common.Address]struct{})
		for _, ev := range events {
			amount := utils.NormalizeAmount(ev.RawAmount, req.TokenDecimals)
			if amount.LessThan(req.MinAmount) {
				continue
			}

			cls, err := classifier.Classify(ctx, ev.To)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, &entity.ScanError{Stage: "classify", Depth: depth, Err: ctxErr}
				}
				return nil, entity.NewConnectivityError("classify", depth, err)
			}

			_, seen := visited[ev.To]
			isNew := !seen
			agg.AddEdge(entity.NewTransferEdge(depth, ev, amount, cls, isNew))
			metrics.EdgesTotal.WithLabelValues(cls.String()).Inc()

			if cls.Expandable() && isNew {
				if _, dup := queued[ev.To]; !dup {
					queued[ev.To] = struct{}{}
					next = append(next, ev.To)
				}
			}
		}

		s.logger.Debug("Layer scanned", "depth", depth, "frontier", len(frontier),
			"events", len(events), "next_layer", len(next))
		layer = next
	}

	return &entity.ScanResult{
		Network:       req.Network.Identifier,
		TokenAddress:  req.TokenAddress,
		FromBlock:     req.FromBlock,
		ToBlock:       req.ToBlock,
		Edges:         agg.Edges(),
		Truncations:   agg.Truncations(),
		LayersScanned: layersScanned,
	}, nil
}

func (s *TracerServiceImpl) finish(scanID string, startedAt time.Time, result *entity.ScanResult, err error) {
	elapsed := s.now().Sub(startedAt)
	metrics.ScanDuration.Observe(elapsed.Seconds())

	switch {
	case err != nil:
		metrics.ScansTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Scan failed", "scan_id", scanID, "duration", elapsed, "error", err)
	case !result.Complete():
		metrics.ScansTotal.WithLabelValues("truncated").Inc()
		s.logger.Warn("Scan finished with truncations", "scan_id", scanID, "duration", elapsed,
			"edges", len(result.Edges), "layers", result.LayersScanned, "truncations", len(result.Truncations))
	default:
		metrics.ScansTotal.WithLabelValues("complete").Inc()
		s.logger.Info("Scan finished", "scan_id", scanID, "duration", elapsed,
			"edges", len(result.Edges), "layers", result.LayersScanned,
			"volume", result.TotalAmount().String(), "sold", result.TotalAmount(entity.SwapPair).String())
	}
}

// ResolveLookback implements port.TracerService.
func (s *TracerServiceImpl) ResolveLookback(ctx context.Context, network entity.NetworkDefinition, lookbackDays float64) (uint64, uint64, error) {
	if lookbackDays < 0 {
		return 0, 0, fmt.Errorf("%w: lookback days must not be negative", entity.ErrInvalidRequest)
	}

	chain, err := s.clientProvider.GetClient(ctx, network)
	if err != nil {
		return 0, 0, entity.NewConnectivityError("dial", 0, err)
	}

	head, err := chain.BlockNumber(ctx)
	metrics.ObserveRPC("eth_blockNumber", err)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, 0, &entity.ScanError{Stage: "block_number", Err: err}
		}
		return 0, 0, entity.NewConnectivityError("block_number", 0, err)
	}

	blocksPerDay := network.BlocksPerDay
	if blocksPerDay == 0 {
		blocksPerDay = defaultBlocksPerDay
	}
	span := uint64(float64(blocksPerDay) * lookbackDays)
	if span > head {
		return 0, head, nil
	}
	return head - span, head, nil
}
