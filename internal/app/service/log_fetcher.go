package service

import (
	"context"
	"errors"
	"math/big"
	"net"
	"net/url"
	"sort"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/pkg/metrics"
	"fund_tracer/internal/pkg/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// FetchOptions bounds the size of a single eth_getLogs request.
type FetchOptions struct {
	// MaxBlockSpan is the largest block window per request. 0 queries the whole range at once.
	MaxBlockSpan uint64
	// MaxSendersPerQuery is the largest sender list per request. 0 sends all senders at once.
	MaxSendersPerQuery int
}

// transferLogFetcher implements port.TransferLogFetcher over one token and block range.
type transferLogFetcher struct {
	chain     port.ChainReader
	token     common.Address
	fromBlock uint64
	toBlock   uint64
	opts      FetchOptions
	logger    port.Logger
	record    func(entity.Truncation)
}

func newTransferLogFetcher(
	chain port.ChainReader,
	req entity.ScanRequest,
	opts FetchOptions,
	logger port.Logger,
	record func(entity.Truncation),
) *transferLogFetcher {
	return &transferLogFetcher{
		chain:     chain,
		token:     req.TokenAddress,
		fromBlock: req.FromBlock,
		toBlock:   req.ToBlock,
		opts:      opts,
		logger:    logger,
		record:    record,
	}
}

// FetchTransfers queries every (block window, sender batch) chunk independently. A rejected chunk
// is recorded as a truncation and yields nothing; the rest are merged in (block, log index) order.
// An unreachable node aborts the layer with a connectivity error.
func (f *transferLogFetcher) FetchTransfers(ctx context.Context, depth uint, senders []common.Address) ([]entity.TransferEvent, error) {
	if len(senders) == 0 {
		return nil, nil
	}

	senderSet := make(map[common.Address]struct{}, len(senders))
	for _, s := range senders {
		senderSet[s] = struct{}{}
	}

	windows := utils.SplitBlockRange(f.fromBlock, f.toBlock, f.opts.MaxBlockSpan)
	batches := utils.Batch(senders, f.opts.MaxSendersPerQuery)

	var events []entity.TransferEvent
	for _, window := range windows {
		for _, batch := range batches {
			if ctx.Err() != nil {
				return events, nil
			}

			query := ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(window.From),
				ToBlock:   new(big.Int).SetUint64(window.To),
				Addresses: []common.Address{f.token},
				Topics:    [][]common.Hash{{transferTopic}, senderTopics(batch)},
			}

			logs, err := f.chain.FilterLogs(ctx, query)
			metrics.ObserveRPC("eth_getLogs", err)
			if err != nil {
				if ctx.Err() != nil {
					return events, nil
				}
				if isTransportFailure(err) {
					f.logger.Error("Node unreachable during transfer log query",
						"depth", depth, "from_block", window.From, "to_block", window.To, "error", err)
					return nil, entity.NewConnectivityError("log_query", depth, err)
				}
				f.logger.Warn("Transfer log query rejected, chunk skipped",
					"depth", depth, "from_block", window.From, "to_block", window.To,
					"senders", len(batch), "error", err)
				f.record(entity.Truncation{
					Depth:     depth,
					Kind:      entity.TruncationLogQuery,
					FromBlock: window.From,
					ToBlock:   window.To,
					Reason:    err.Error(),
				})
				continue
			}

			for _, lg := range logs {
				if lg.Address != f.token {
					continue
				}
				ev, ok := decodeTransfer(lg)
				if !ok {
					continue
				}
				if _, ok := senderSet[ev.From]; !ok {
					continue
				}
				events = append(events, ev)
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	f.logger.Debug("Fetched transfer logs", "depth", depth, "senders", len(senders),
		"windows", len(windows), "batches", len(batches), "events", len(events))
	return events, nil
}

// isTransportFailure reports whether err means the node was not reached at all, as opposed to
// the node answering with an error. Per-call timeouts count as an answer: heavy log queries time out.
func isTransportFailure(err error) bool {
	var rpcErr rpc.Error
	var httpErr rpc.HTTPError
	if errors.As(err, &rpcErr) || errors.As(err, &httpErr) {
		return false
	}
	if errors.Is(err, rpc.ErrClientQuit) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func senderTopics(senders []common.Address) []common.Hash {
	topics := make([]common.Hash, len(senders))
	for i, s := range senders {
		topics[i] = common.BytesToHash(common.LeftPadBytes(s.Bytes(), 32))
	}
	return topics
}

// decodeTransfer accepts only the standard ERC-20 layout: three topics and a 32-byte amount.
func decodeTransfer(lg types.Log) (entity.TransferEvent, bool) {
	if lg.Removed || len(lg.Topics) != 3 || lg.Topics[0] != transferTopic || len(lg.Data) != 32 {
		return entity.TransferEvent{}, false
	}
	return entity.TransferEvent{
		From:        common.BytesToAddress(lg.Topics[1].Bytes()),
		To:          common.BytesToAddress(lg.Topics[2].Bytes()),
		RawAmount:   new(big.Int).SetBytes(lg.Data),
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
		LogIndex:    lg.Index,
	}, true
}
