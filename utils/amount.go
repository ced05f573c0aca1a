package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// UiAmount renders raw token units with the mint's decimals.
func UiAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}
