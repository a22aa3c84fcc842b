package entity

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress represents the Ethereum zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ParseAddress validates a hex account identifier and returns its canonical form.
// Casing is not checked: a mixed-case identifier with a wrong EIP-55 checksum is accepted too.
func ParseAddress(raw string) (common.Address, error) {
	s := strings.TrimSpace(raw)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q is not a hex address", ErrInvalidAddress, raw)
	}
	return common.HexToAddress(s), nil
}

// ParseAddresses parses each entry and drops duplicates while keeping first-seen order.
func ParseAddresses(raws []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raws))
	seen := make(map[common.Address]struct{}, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		addr, err := ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}
