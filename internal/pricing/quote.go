// Package pricing implements the constant-product swap output formula.
package pricing

import (
	"fmt"

	"github.com/holiman/uint256"

	"swapcore/internal/model"
)

// Fee multiplier: 0.3% retained in the pool, so the effective input is
// amountIn * 997 / 1000.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)

// Quote returns the output amount for a single swap. The 0.3% fee is
// embedded: numerator = amountIn*997*reserveOut, denominator =
// reserveIn*1000 + amountIn*997, result floor-divided. Intermediates use
// 256-bit words, so no product of uint64 operands can wrap.
func Quote(amountIn, reserveIn, reserveOut uint64) (uint64, error) {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("quote: zero amount or reserve: %w", model.ErrInvalidArgument)
	}

	inWithFee := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(feeNumerator))
	numerator := new(uint256.Int).Mul(inWithFee, uint256.NewInt(reserveOut))
	denominator := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(feeDenominator))
	denominator.Add(denominator, inWithFee)

	// The quotient is strictly below reserveOut, so it fits in uint64.
	return numerator.Div(numerator, denominator).Uint64(), nil
}

// FeeOnInput is the separately booked 0.3%-of-input figure accrued to the
// fee ledger. It is a reporting number: the retained value already sits in
// the reserves via the Quote formula and is never deducted again.
func FeeOnInput(amountIn uint64) uint64 {
	fee := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(3))
	return fee.Div(fee, uint256.NewInt(1000)).Uint64()
}
