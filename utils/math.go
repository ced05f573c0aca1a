package utils

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/egaotan/honorary-quote-fee/program"
)

// WideBits is the width of the intermediate domain used for money math.
// Products are computed at twice this width and must fit back into it.
const WideBits = 128

// MaxWide is the largest value of the intermediate domain (2^128 - 1).
var MaxWide = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), WideBits), big.NewInt(1)))

// Wide lifts a u64 into the intermediate domain.
func Wide(v uint64) sdkmath.Int {
	return sdkmath.NewIntFromUint64(v)
}

func inWideDomain(v sdkmath.Int) bool {
	return !v.IsNegative() && v.BigInt().BitLen() <= WideBits
}

// MulDivFloor computes floor(a*b/denom). The product of two 128-bit values
// always fits the 256-bit sdkmath.Int, so the only failure modes are a zero
// denominator and a product wider than 128 bits.
func MulDivFloor(a, b, denom sdkmath.Int) (sdkmath.Int, error) {
	if denom.IsZero() {
		return sdkmath.ZeroInt(), program.ErrArithmeticOverflow
	}
	if !inWideDomain(a) || !inWideDomain(b) || !inWideDomain(denom) {
		return sdkmath.ZeroInt(), program.ErrArithmeticOverflow
	}
	product := a.Mul(b)
	if product.BigInt().BitLen() > WideBits {
		return sdkmath.ZeroInt(), program.ErrArithmeticOverflow
	}
	return product.Quo(denom), nil
}

// NarrowToU64 converts a wide value back to u64.
func NarrowToU64(wide sdkmath.Int) (uint64, error) {
	if wide.IsNegative() || !wide.IsUint64() {
		return 0, program.ErrArithmeticOverflow
	}
	return wide.Uint64(), nil
}

func SaturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, program.ErrArithmeticOverflow
	}
	return sum, nil
}
