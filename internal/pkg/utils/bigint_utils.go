package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// NormalizeAmount converts a raw on-chain integer into token units using the declared decimals.
// Example: amount=1234500000000000000, decimals=18 => 1.2345
func NormalizeAmount(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// ToRawAmount is the inverse of NormalizeAmount. Fractions below one raw unit are truncated.
func ToRawAmount(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).BigInt()
}
