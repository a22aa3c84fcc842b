package rootloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fund_tracer/internal/app/port"
	"fund_tracer/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// RootFileLoader implements the port.RootAddressProvider interface by loading seed addresses from a file.
// One address per line; blank lines and lines starting with '#' are ignored, and a line may hold
// several comma-separated addresses.
type RootFileLoader struct {
	filePath   string
	loggerInfo func(msg string, args ...any)
}

// NewRootFileLoader creates a new RootFileLoader.
func NewRootFileLoader(filePath string, loggerInfo func(msg string, args ...any)) port.RootAddressProvider {
	return &RootFileLoader{
		filePath:   filePath,
		loggerInfo: loggerInfo,
	}
}

// GetRootAddresses reads seed addresses from the configured file path. Malformed entries are
// skipped and logged; duplicates are dropped.
func (l *RootFileLoader) GetRootAddresses() ([]common.Address, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root address file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var roots []common.Address
	seen := make(map[common.Address]struct{})
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			addr, err := entity.ParseAddress(field)
			if err != nil {
				if l.loggerInfo != nil {
					l.loggerInfo("Skipping invalid root address", "file", l.filePath, "line_number", lineNum, "address", field)
				}
				continue
			}
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			roots = append(roots, addr)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning root address file %s: %w", l.filePath, err)
	}

	if l.loggerInfo != nil {
		l.loggerInfo("Root addresses loaded successfully from file", "count", len(roots), "path", l.filePath)
	}
	return roots, nil
}
