package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity marks a data-source failure that aborts the whole scan.
	ErrConnectivity = errors.New("data source unreachable")
	// ErrInvalidRequest marks malformed scan input.
	ErrInvalidRequest = errors.New("invalid scan request")
	// ErrInvalidAddress marks a malformed account identifier.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrUnknownNetwork is returned when a network identifier is not configured.
	ErrUnknownNetwork = errors.New("unknown network")
)

// ScanError is the only failure a caller sees from a scan. No partial result accompanies it.
type ScanError struct {
	Stage string
	Depth uint
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed at %s (depth %d): %v", e.Stage, e.Depth, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewConnectivityError wraps err so that errors.Is(err, ErrConnectivity) holds.
func NewConnectivityError(stage string, depth uint, err error) *ScanError {
	return &ScanError{Stage: stage, Depth: depth, Err: fmt.Errorf("%w: %w", ErrConnectivity, err)}
}
