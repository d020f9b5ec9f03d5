package fixedmath

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrOverflow reports an arithmetic result that does not fit its target width.
var ErrOverflow = errors.New("arithmetic overflow")

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrOverflow if b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulDiv returns floor(a*b/den) with a 256-bit intermediate product.
// Fails with ErrOverflow if den is zero or the quotient exceeds uint64.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrOverflow
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	prod.Div(prod, uint256.NewInt(den))
	if !prod.IsUint64() {
		return 0, ErrOverflow
	}
	return prod.Uint64(), nil
}

// Isqrt returns floor(sqrt(x)) by Newton's method. Exact for perfect
// squares, floor otherwise.
func Isqrt(x *uint256.Int) *uint256.Int {
	if x.LtUint64(2) {
		return new(uint256.Int).Set(x)
	}
	if x.LtUint64(4) {
		return uint256.NewInt(1)
	}
	// x/2+1 is an upper bound for sqrt(x), so the iteration only descends.
	z := new(uint256.Int).Set(x)
	y := new(uint256.Int).Rsh(x, 1)
	y.AddUint64(y, 1)
	quot := new(uint256.Int)
	for y.Lt(z) {
		z.Set(y)
		quot.Div(x, z)
		y.Add(z, quot)
		y.Rsh(y, 1)
	}
	return z
}

// SqrtProduct returns floor(sqrt(a*b)). The product is at most 128 bits,
// so the root always fits in uint64.
func SqrtProduct(a, b uint64) uint64 {
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return Isqrt(prod).Uint64()
}
