package engine

import (
	"fmt"

	"go.uber.org/zap"

	"swapcore/internal/fixedmath"
	"swapcore/internal/liquidity"
	"swapcore/internal/model"
	"swapcore/internal/pricing"
)

// InitPool creates the pool record and its custody accounts, moves the
// seed deposit into the vaults, and mints the first share allocation.
// Asset order is normalized so a native-paired pool always carries the
// native asset on side A.
func (e *Engine) InitPool(assetA, assetB model.AssetID, amountA, amountB uint64, caller Caller, accts PoolAccounts) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		if assetB == model.NativeAssetID {
			assetA, assetB = assetB, assetA
			amountA, amountB = amountB, amountA
			caller.AccountA, caller.AccountB = caller.AccountB, caller.AccountA
			accts.VaultA, accts.VaultB = accts.VaultB, accts.VaultA
		}
		if assetA == assetB {
			return Receipt{}, fmt.Errorf("init pool: identical assets: %w", model.ErrInvalidArgument)
		}
		if amountA == 0 || amountB == 0 {
			return Receipt{}, fmt.Errorf("init pool: empty seed deposit: %w", model.ErrInvalidArgument)
		}

		ctx, err := resolvePool(assetA, assetB, accts)
		if err != nil {
			return Receipt{}, err
		}
		if e.store.Exists(ctx.poolAddr) {
			return Receipt{}, fmt.Errorf("pool %s: %w", ctx.poolAddr, model.ErrAlreadyInitialized)
		}

		if ctx.variant == model.VariantNativePaired {
			// The pool account doubles as the native vault.
			if err := e.ledger.CreateAccount(ctx.poolAddr, model.NativeAssetID, ctx.poolAddr); err != nil {
				return Receipt{}, err
			}
		} else {
			if err := e.ledger.CreateAccount(ctx.vaultA, assetA, ctx.vaultA); err != nil {
				return Receipt{}, err
			}
		}
		if err := e.ledger.CreateAccount(ctx.vaultB, assetB, ctx.vaultB); err != nil {
			return Receipt{}, err
		}
		if err := e.ledger.EnsureAccount(caller.ShareAccount, ctx.shareAsset, caller.Authority); err != nil {
			return Receipt{}, err
		}

		if err := e.moverFor(assetA).Move(caller.AccountA, ctx.vaultA, caller.Authority, amountA); err != nil {
			return Receipt{}, err
		}
		if err := e.moverFor(assetB).Move(caller.AccountB, ctx.vaultB, caller.Authority, amountB); err != nil {
			return Receipt{}, err
		}

		shares := fixedmath.SqrtProduct(amountA, amountB)
		if shares == 0 {
			return Receipt{}, fmt.Errorf("init pool: seed deposit below one share: %w", model.ErrInvalidArgument)
		}
		if err := e.ledger.Mint(caller.ShareAccount, ctx.shareAsset, shares); err != nil {
			return Receipt{}, err
		}

		rec := model.PoolRecord{
			Variant:          ctx.variant,
			AssetA:           assetA,
			AssetB:           assetB,
			DerivationSalt:   ctx.salt,
			ReserveA:         amountA,
			ReserveB:         amountB,
			TotalShareSupply: shares,
		}
		if ctx.variant == model.VariantNativePaired {
			rec.TokenMint = assetB
		}
		if err := e.store.Put(ctx.poolAddr, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("pool initialized",
			zap.String("pool", ctx.poolAddr.String()),
			zap.Uint64("reserve_a", amountA),
			zap.Uint64("reserve_b", amountB),
			zap.Uint64("shares", shares))
		return Receipt{
			Op:           "init_pool",
			Pool:         ctx.poolAddr.String(),
			AmountA:      amountA,
			AmountB:      amountB,
			SharesMinted: shares,
		}, nil
	})
}

// AddLiquidity fits the offered amounts to the current reserve ratio,
// moves only the fitted amounts into the vaults, and mints shares in
// proportion to the pool's growth. Unused remainder never leaves the
// caller's accounts and is reported as a refund.
func (e *Engine) AddLiquidity(assetA, assetB model.AssetID, amountA, amountB uint64, caller Caller, accts PoolAccounts) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		ctx, err := resolvePool(assetA, assetB, accts)
		if err != nil {
			return Receipt{}, err
		}
		rec, err := e.store.Get(ctx.poolAddr)
		if err != nil {
			return Receipt{}, err
		}

		dep, err := liquidity.FitDeposit(amountA, amountB, rec.ReserveA, rec.ReserveB, rec.TotalShareSupply)
		if err != nil {
			return Receipt{}, err
		}

		if err := e.ledger.EnsureAccount(caller.ShareAccount, ctx.shareAsset, caller.Authority); err != nil {
			return Receipt{}, err
		}
		if err := e.moverFor(rec.AssetA).Move(caller.AccountA, ctx.vaultA, caller.Authority, dep.FinalA); err != nil {
			return Receipt{}, err
		}
		if err := e.moverFor(rec.AssetB).Move(caller.AccountB, ctx.vaultB, caller.Authority, dep.FinalB); err != nil {
			return Receipt{}, err
		}
		if err := e.ledger.Mint(caller.ShareAccount, ctx.shareAsset, dep.Shares); err != nil {
			return Receipt{}, err
		}

		if rec.ReserveA, err = fixedmath.Add(rec.ReserveA, dep.FinalA); err != nil {
			return Receipt{}, fmt.Errorf("reserve a: %w", err)
		}
		if rec.ReserveB, err = fixedmath.Add(rec.ReserveB, dep.FinalB); err != nil {
			return Receipt{}, fmt.Errorf("reserve b: %w", err)
		}
		if rec.TotalShareSupply, err = fixedmath.Add(rec.TotalShareSupply, dep.Shares); err != nil {
			return Receipt{}, fmt.Errorf("share supply: %w", err)
		}
		if err := e.store.Put(ctx.poolAddr, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("liquidity added",
			zap.String("pool", ctx.poolAddr.String()),
			zap.Uint64("amount_a", dep.FinalA),
			zap.Uint64("amount_b", dep.FinalB),
			zap.Uint64("shares", dep.Shares))
		return Receipt{
			Op:           "add_liquidity",
			Pool:         ctx.poolAddr.String(),
			AmountA:      dep.FinalA,
			AmountB:      dep.FinalB,
			RefundA:      dep.RefundA,
			RefundB:      dep.RefundB,
			SharesMinted: dep.Shares,
		}, nil
	})
}

// RemoveLiquidity burns the caller's shares and pays out the
// proportional slice of both reserves.
func (e *Engine) RemoveLiquidity(assetA, assetB model.AssetID, lpAmount uint64, caller Caller, accts PoolAccounts) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		ctx, err := resolvePool(assetA, assetB, accts)
		if err != nil {
			return Receipt{}, err
		}
		rec, err := e.store.Get(ctx.poolAddr)
		if err != nil {
			return Receipt{}, err
		}

		outA, outB, err := liquidity.Withdraw(lpAmount, rec.ReserveA, rec.ReserveB, rec.TotalShareSupply)
		if err != nil {
			return Receipt{}, err
		}

		if err := e.ledger.Burn(caller.ShareAccount, ctx.shareAsset, caller.Authority, lpAmount); err != nil {
			return Receipt{}, err
		}
		if err := e.moverFor(rec.AssetA).Move(ctx.vaultA, caller.AccountA, ctx.vaultA, outA); err != nil {
			return Receipt{}, err
		}
		if err := e.moverFor(rec.AssetB).Move(ctx.vaultB, caller.AccountB, ctx.vaultB, outB); err != nil {
			return Receipt{}, err
		}

		if rec.ReserveA, err = fixedmath.Sub(rec.ReserveA, outA); err != nil {
			return Receipt{}, fmt.Errorf("reserve a: %w", err)
		}
		if rec.ReserveB, err = fixedmath.Sub(rec.ReserveB, outB); err != nil {
			return Receipt{}, fmt.Errorf("reserve b: %w", err)
		}
		if rec.TotalShareSupply, err = fixedmath.Sub(rec.TotalShareSupply, lpAmount); err != nil {
			return Receipt{}, fmt.Errorf("share supply: %w", err)
		}
		if err := e.store.Put(ctx.poolAddr, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("liquidity removed",
			zap.String("pool", ctx.poolAddr.String()),
			zap.Uint64("amount_a", outA),
			zap.Uint64("amount_b", outB),
			zap.Uint64("shares", lpAmount))
		return Receipt{
			Op:           "remove_liquidity",
			Pool:         ctx.poolAddr.String(),
			AmountA:      outA,
			AmountB:      outB,
			SharesBurned: lpAmount,
		}, nil
	})
}

// Swap trades amountIn of one side for the quoted amount of the other.
// The quote is computed from the reserves read before any transfer.
func (e *Engine) Swap(assetA, assetB model.AssetID, amountIn uint64, aToB bool, caller Caller, accts PoolAccounts) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		ctx, err := resolvePool(assetA, assetB, accts)
		if err != nil {
			return Receipt{}, err
		}
		rec, err := e.store.Get(ctx.poolAddr)
		if err != nil {
			return Receipt{}, err
		}

		out, fee, err := e.swapInPlace(&rec, ctx, amountIn, aToB, caller.Authority, swapAccounts(caller, aToB))
		if err != nil {
			return Receipt{}, err
		}
		if err := e.store.Put(ctx.poolAddr, rec); err != nil {
			return Receipt{}, err
		}

		e.logger.Info("swap executed",
			zap.String("pool", ctx.poolAddr.String()),
			zap.Bool("a_to_b", aToB),
			zap.Uint64("amount_in", amountIn),
			zap.Uint64("amount_out", out))
		return Receipt{
			Op:         "swap",
			Pool:       ctx.poolAddr.String(),
			AmountIn:   amountIn,
			AmountOut:  out,
			FeeAccrued: fee,
		}, nil
	})
}

// swapAccounts orders the caller's accounts as (source, destination)
// for the given direction.
func swapAccounts(caller Caller, aToB bool) [2]model.Address {
	if aToB {
		return [2]model.Address{caller.AccountA, caller.AccountB}
	}
	return [2]model.Address{caller.AccountB, caller.AccountA}
}

// swapInPlace prices and settles one swap against rec, mutating its
// reserves and fee counters. The caller persists the record.
func (e *Engine) swapInPlace(rec *model.PoolRecord, ctx custodyContext, amountIn uint64, aToB bool, authority model.Address, userAccts [2]model.Address) (out, fee uint64, err error) {
	reserveIn, reserveOut := rec.ReservesFor(aToB)
	out, err = pricing.Quote(amountIn, reserveIn, reserveOut)
	if err != nil {
		return 0, 0, err
	}

	assetIn, assetOut := rec.AssetA, rec.AssetB
	vaultIn, vaultOut := ctx.vaultA, ctx.vaultB
	if !aToB {
		assetIn, assetOut = assetOut, assetIn
		vaultIn, vaultOut = vaultOut, vaultIn
	}
	if err := e.moverFor(assetIn).Move(userAccts[0], vaultIn, authority, amountIn); err != nil {
		return 0, 0, err
	}
	if err := e.moverFor(assetOut).Move(vaultOut, userAccts[1], vaultOut, out); err != nil {
		return 0, 0, err
	}

	fee = pricing.FeeOnInput(amountIn)
	if aToB {
		if rec.ReserveA, err = fixedmath.Add(rec.ReserveA, amountIn); err != nil {
			return 0, 0, fmt.Errorf("reserve a: %w", err)
		}
		if rec.ReserveB, err = fixedmath.Sub(rec.ReserveB, out); err != nil {
			return 0, 0, fmt.Errorf("reserve b: %w", err)
		}
		if rec.FeeAccruedA, err = fixedmath.Add(rec.FeeAccruedA, fee); err != nil {
			return 0, 0, fmt.Errorf("fee counter a: %w", err)
		}
	} else {
		if rec.ReserveB, err = fixedmath.Add(rec.ReserveB, amountIn); err != nil {
			return 0, 0, fmt.Errorf("reserve b: %w", err)
		}
		if rec.ReserveA, err = fixedmath.Sub(rec.ReserveA, out); err != nil {
			return 0, 0, fmt.Errorf("reserve a: %w", err)
		}
		if rec.FeeAccruedB, err = fixedmath.Add(rec.FeeAccruedB, fee); err != nil {
			return 0, 0, fmt.Errorf("fee counter b: %w", err)
		}
	}
	return out, fee, nil
}
