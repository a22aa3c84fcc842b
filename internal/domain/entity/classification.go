package entity

import (
	"fmt"
	"strconv"
)

// Classification describes what kind of account received a transfer.
type Classification int

const (
	// Wallet is an externally owned account (no bytecode). Only wallets are expanded further.
	Wallet Classification = iota
	// ContractOrRouter is any contract that is not the token's AMM pair.
	ContractOrRouter
	// SwapPair is the AMM pair between the traced token and the wrapped native currency.
	SwapPair
)

var classificationNames = map[Classification]string{
	Wallet:           "wallet",
	ContractOrRouter: "contract_or_router",
	SwapPair:         "swap_pair",
}

var classificationDescriptions = map[Classification]string{
	Wallet:           "Wallet",
	ContractOrRouter: "Contract / router",
	SwapPair:         "Sold (swap pair)",
}

// String returns the wire name of the classification.
func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(c)) + ")"
}

// Description returns a human readable label for reports.
func (c Classification) Description() string {
	if d, ok := classificationDescriptions[c]; ok {
		return d
	}
	return c.String()
}

// Expandable reports whether outbound transfers of an address with this classification are traced.
func (c Classification) Expandable() bool {
	return c == Wallet
}

// MarshalText implements encoding.TextMarshaler.
func (c Classification) MarshalText() ([]byte, error) {
	if _, ok := classificationNames[c]; !ok {
		return nil, fmt.Errorf("unknown classification %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(text []byte) error {
	for k, v := range classificationNames {
		if v == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", string(text))
}
