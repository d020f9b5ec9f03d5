package engine

import (
	"fmt"

	"go.uber.org/zap"

	"swapcore/internal/model"
)

// RouteCaller identifies the requesting party for routed swaps. The
// input account funds the first hop; each hop's Output account funds
// the next.
type RouteCaller struct {
	Authority    model.Address
	InputAccount model.Address
}

// Hop names one pool on a route, with its asset pair in stored order
// and the account that receives this hop's output.
type Hop struct {
	AssetA   model.AssetID
	AssetB   model.AssetID
	Accounts PoolAccounts
	Output   model.Address
}

// MultihopSwap routes amountIn through exactly two pools. The direction
// of each hop is inferred from the asset held by the account funding it.
// If the final output is below minOut the whole route is rolled back.
func (e *Engine) MultihopSwap(amountIn, minOut uint64, caller RouteCaller, hops []Hop) (Receipt, error) {
	if len(hops) != 2 {
		return Receipt{}, fmt.Errorf("multihop swap: want 2 hops, have %d: %w", len(hops), model.ErrNotEnoughAccountKeys)
	}
	return e.route(amountIn, minOut, caller, hops, nil)
}

// MultihopSwapWithPath routes amountIn along an explicit asset path of
// any length. Each hop's pool pair must match the adjacent path
// elements, in either order; a mismatch fails the route before any
// transfer on that hop.
func (e *Engine) MultihopSwapWithPath(amountIn, minOut uint64, path []model.AssetID, caller RouteCaller, hops []Hop) (Receipt, error) {
	if len(path) < 2 {
		return Receipt{}, fmt.Errorf("multihop swap: path of %d assets: %w", len(path), model.ErrInvalidArgument)
	}
	if len(hops) != len(path)-1 {
		return Receipt{}, fmt.Errorf("multihop swap: %d hops for a path of %d assets: %w",
			len(hops), len(path), model.ErrNotEnoughAccountKeys)
	}
	return e.route(amountIn, minOut, caller, hops, path)
}

func (e *Engine) route(amountIn, minOut uint64, caller RouteCaller, hops []Hop, path []model.AssetID) (Receipt, error) {
	return e.atomic(func() (Receipt, error) {
		current := amountIn
		input := caller.InputAccount

		for i, hop := range hops {
			ctx, err := resolvePool(hop.AssetA, hop.AssetB, hop.Accounts)
			if err != nil {
				return Receipt{}, fmt.Errorf("hop %d: %w", i, err)
			}
			rec, err := e.store.Get(ctx.poolAddr)
			if err != nil {
				return Receipt{}, fmt.Errorf("hop %d: %w", i, err)
			}

			var aToB bool
			if path != nil {
				switch {
				case rec.AssetA == path[i] && rec.AssetB == path[i+1]:
					aToB = true
				case rec.AssetB == path[i] && rec.AssetA == path[i+1]:
					aToB = false
				default:
					return Receipt{}, fmt.Errorf("hop %d: pool pair does not match path: %w", i, model.ErrInvalidArgument)
				}
			} else {
				acct, err := e.ledger.Account(input)
				if err != nil {
					return Receipt{}, fmt.Errorf("hop %d: %w", i, err)
				}
				isA, ok := rec.Side(acct.Asset)
				if !ok {
					return Receipt{}, fmt.Errorf("hop %d: input asset not in pool: %w", i, model.ErrInvalidArgument)
				}
				aToB = isA
			}

			out, _, err := e.swapInPlace(&rec, ctx, current, aToB, caller.Authority, [2]model.Address{input, hop.Output})
			if err != nil {
				return Receipt{}, fmt.Errorf("hop %d: %w", i, err)
			}
			if err := e.store.Put(ctx.poolAddr, rec); err != nil {
				return Receipt{}, fmt.Errorf("hop %d: %w", i, err)
			}
			current = out
			input = hop.Output
		}

		if current < minOut {
			return Receipt{}, fmt.Errorf("multihop swap: output %d below minimum %d: %w",
				current, minOut, model.ErrInsufficientFunds)
		}

		e.logger.Info("multihop swap executed",
			zap.Int("hops", len(hops)),
			zap.Uint64("amount_in", amountIn),
			zap.Uint64("amount_out", current))
		return Receipt{
			Op:        "multihop_swap",
			AmountIn:  amountIn,
			AmountOut: current,
			Hops:      len(hops),
		}, nil
	})
}
