package engine

import (
	"fmt"

	"go.uber.org/zap"

	"swapcore/internal/fixedmath"
	"swapcore/internal/model"
)

// SetFeeTreasury records the address allowed to claim accrued fees.
// The first assignment is open; afterwards only the current treasury
// may hand the role over.
func (e *Engine) SetFeeTreasury(pool, treasury, authority model.Address) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		rec, err := e.store.Get(pool)
		if err != nil {
			return Receipt{}, err
		}
		if !rec.FeeTreasury.IsZero() && authority != rec.FeeTreasury {
			return Receipt{}, fmt.Errorf("set fee treasury: authority is not the current treasury: %w", model.ErrInvalidArgument)
		}
		rec.FeeTreasury = treasury
		if err := e.store.Put(pool, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("fee treasury set",
			zap.String("pool", pool.String()),
			zap.String("treasury", treasury.String()))
		return Receipt{Op: "set_fee_treasury", Pool: pool.String()}, nil
	})
}

// CollectFees resets both fee counters to zero. Only the registered
// treasury may call it. No value moves; the counters are bookkeeping
// that was never deducted from the reserves.
func (e *Engine) CollectFees(pool, treasury model.Address) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		rec, err := e.store.Get(pool)
		if err != nil {
			return Receipt{}, err
		}
		if treasury != rec.FeeTreasury {
			return Receipt{}, fmt.Errorf("collect fees: caller is not the treasury: %w", model.ErrInvalidArgument)
		}

		collectedA, collectedB := rec.FeeAccruedA, rec.FeeAccruedB
		rec.FeeAccruedA = 0
		rec.FeeAccruedB = 0
		if err := e.store.Put(pool, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("fees collected",
			zap.String("pool", pool.String()),
			zap.Uint64("fee_a", collectedA),
			zap.Uint64("fee_b", collectedB))
		return Receipt{
			Op:      "collect_fees",
			Pool:    pool.String(),
			AmountA: collectedA,
			AmountB: collectedB,
		}, nil
	})
}

// WithdrawFees pays the requested amounts out of the vaults to the
// treasury's accounts and decrements the fee counters. Requests above
// an accrued counter fail without touching anything; because the
// counters were never subtracted from the reserves, a withdrawal is
// paid out of pooled liquidity.
func (e *Engine) WithdrawFees(pool model.Address, amountA, amountB uint64, treasury, authority, treasuryAccountA, treasuryAccountB model.Address) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		rec, err := e.store.Get(pool)
		if err != nil {
			return Receipt{}, err
		}
		if treasury != rec.FeeTreasury {
			return Receipt{}, fmt.Errorf("withdraw fees: caller is not the treasury: %w", model.ErrInvalidArgument)
		}
		if authority != treasury {
			return Receipt{}, fmt.Errorf("withdraw fees: authority mismatch: %w", model.ErrInvalidArgument)
		}
		if amountA > rec.FeeAccruedA || amountB > rec.FeeAccruedB {
			return Receipt{}, fmt.Errorf("withdraw fees: requested %d/%d, accrued %d/%d: %w",
				amountA, amountB, rec.FeeAccruedA, rec.FeeAccruedB, model.ErrInsufficientFunds)
		}

		vaultA, vaultB := vaultsOf(pool, rec)
		if amountA > 0 {
			if err := e.moverFor(rec.AssetA).Move(vaultA, treasuryAccountA, vaultA, amountA); err != nil {
				return Receipt{}, err
			}
		}
		if amountB > 0 {
			if err := e.moverFor(rec.AssetB).Move(vaultB, treasuryAccountB, vaultB, amountB); err != nil {
				return Receipt{}, err
			}
		}

		if rec.FeeAccruedA, err = fixedmath.Sub(rec.FeeAccruedA, amountA); err != nil {
			return Receipt{}, fmt.Errorf("fee counter a: %w", err)
		}
		if rec.FeeAccruedB, err = fixedmath.Sub(rec.FeeAccruedB, amountB); err != nil {
			return Receipt{}, fmt.Errorf("fee counter b: %w", err)
		}
		if err := e.store.Put(pool, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("fees withdrawn",
			zap.String("pool", pool.String()),
			zap.Uint64("amount_a", amountA),
			zap.Uint64("amount_b", amountB))
		return Receipt{
			Op:      "withdraw_fees",
			Pool:    pool.String(),
			AmountA: amountA,
			AmountB: amountB,
		}, nil
	})
}
