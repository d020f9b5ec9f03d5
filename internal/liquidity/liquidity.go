// Package liquidity implements share issuance and withdrawal math.
package liquidity

import (
	"fmt"

	"swapcore/internal/fixedmath"
	"swapcore/internal/model"
)

// Deposit is the ratio-fitted result of an add-liquidity request.
type Deposit struct {
	// FinalA and FinalB are the amounts actually taken from the caller.
	FinalA uint64
	FinalB uint64
	// RefundA and RefundB are the offered portions beyond the final pair,
	// returned to the caller within the same operation.
	RefundA uint64
	RefundB uint64
	// Shares is the share-token amount minted for the deposit.
	Shares uint64
}

// FitDeposit computes the deposit for offered (amountA, amountB) against
// the current reserves. For the first deposit (zero supply) the full
// offered pair is taken and shares = isqrt(amountA*amountB). For later
// deposits the pair is shrunk to the reserve ratio and shares =
// finalA * supply / reserveA.
func FitDeposit(amountA, amountB, reserveA, reserveB, supply uint64) (Deposit, error) {
	if supply == 0 || reserveA == 0 || reserveB == 0 {
		// A seed pair that mints zero shares would fund reserves nobody
		// can redeem.
		shares := fixedmath.SqrtProduct(amountA, amountB)
		if shares == 0 {
			return Deposit{}, fmt.Errorf("fit deposit: seed pair below one share: %w", model.ErrInvalidArgument)
		}
		return Deposit{
			FinalA: amountA,
			FinalB: amountB,
			Shares: shares,
		}, nil
	}

	finalA, finalB := amountA, amountB
	requiredB, err := fixedmath.MulDiv(amountA, reserveB, reserveA)
	if err != nil {
		return Deposit{}, fmt.Errorf("fit deposit: %w", err)
	}
	if requiredB <= amountB {
		finalB = requiredB
	} else {
		requiredA, err := fixedmath.MulDiv(amountB, reserveA, reserveB)
		if err != nil {
			return Deposit{}, fmt.Errorf("fit deposit: %w", err)
		}
		finalA = requiredA
	}

	shares, err := fixedmath.MulDiv(finalA, supply, reserveA)
	if err != nil {
		return Deposit{}, fmt.Errorf("fit deposit shares: %w", err)
	}

	return Deposit{
		FinalA:  finalA,
		FinalB:  finalB,
		RefundA: amountA - finalA,
		RefundB: amountB - finalB,
		Shares:  shares,
	}, nil
}

// Withdraw returns the pro-rata amounts for burning lpAmount shares,
// both floor-divided. Burning more than the outstanding supply fails
// with ErrInsufficientFunds.
func Withdraw(lpAmount, reserveA, reserveB, supply uint64) (uint64, uint64, error) {
	if supply == 0 || lpAmount > supply {
		return 0, 0, fmt.Errorf("withdraw %d of %d shares: %w", lpAmount, supply, model.ErrInsufficientFunds)
	}

	amountA, err := fixedmath.MulDiv(lpAmount, reserveA, supply)
	if err != nil {
		return 0, 0, fmt.Errorf("withdraw: %w", err)
	}
	amountB, err := fixedmath.MulDiv(lpAmount, reserveB, supply)
	if err != nil {
		return 0, 0, fmt.Errorf("withdraw: %w", err)
	}
	return amountA, amountB, nil
}
