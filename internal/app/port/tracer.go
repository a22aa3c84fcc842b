package port

import (
	"context"

	"fund_tracer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// TracerService runs fund-flow scans.
type TracerService interface {
	// Scan runs one bounded breadth-first traversal. Recoverable failures are reported in
	// ScanResult.Truncations; a returned error means no result at all.
	Scan(ctx context.Context, req entity.ScanRequest) (*entity.ScanResult, error)

	// ResolveLookback converts a lookback in days into an inclusive block range ending at the chain head.
	ResolveLookback(ctx context.Context, network entity.NetworkDefinition, lookbackDays float64) (fromBlock, toBlock uint64, err error)
}

// AddressClassifier classifies transfer destinations for one scan.
type AddressClassifier interface {
	Classify(ctx context.Context, address common.Address) (entity.Classification, error)
}

// TransferLogFetcher returns the transfers sent by a frontier layer. Queries the node rejects are
// reported as truncations and contribute no events; an error means the node could not be reached.
type TransferLogFetcher interface {
	FetchTransfers(ctx context.Context, depth uint, senders []common.Address) ([]entity.TransferEvent, error)
}
