package engine

import (
	"fmt"

	"swapcore/internal/model"
	"swapcore/internal/wire"
)

// AccountMeta carries the addresses an instruction operates on. The
// decoded instruction holds only amounts and identities; the host
// supplies the accounts alongside it, and the engine verifies the
// derived ones before acting.
type AccountMeta struct {
	AssetA model.AssetID
	AssetB model.AssetID

	Caller Caller
	Pool   PoolAccounts

	Route RouteCaller
	Hops  []Hop

	Treasury         model.Address
	Authority        model.Address
	TreasuryAccountA model.Address
	TreasuryAccountB model.Address
}

// Dispatch routes one decoded instruction to the matching operation.
func (e *Engine) Dispatch(instr wire.Instruction, meta AccountMeta) (Receipt, error) {
	switch in := instr.(type) {
	case wire.InitPool:
		return e.InitPool(meta.AssetA, meta.AssetB, in.AmountA, in.AmountB, meta.Caller, meta.Pool)
	case wire.AddLiquidity:
		return e.AddLiquidity(meta.AssetA, meta.AssetB, in.AmountA, in.AmountB, meta.Caller, meta.Pool)
	case wire.RemoveLiquidity:
		return e.RemoveLiquidity(meta.AssetA, meta.AssetB, in.LPAmount, meta.Caller, meta.Pool)
	case wire.Swap:
		return e.Swap(meta.AssetA, meta.AssetB, in.AmountIn, in.DirectionAToB, meta.Caller, meta.Pool)
	case wire.MultihopSwap:
		return e.MultihopSwap(in.AmountIn, in.MinimumAmountOut, meta.Route, meta.Hops)
	case wire.MultihopSwapWithPath:
		return e.MultihopSwapWithPath(in.AmountIn, in.MinimumAmountOut, in.Path, meta.Route, meta.Hops)
	case wire.CollectFees:
		return e.CollectFees(in.Pool, meta.Treasury)
	case wire.WithdrawFees:
		return e.WithdrawFees(in.Pool, in.AmountA, in.AmountB, meta.Treasury, meta.Authority, meta.TreasuryAccountA, meta.TreasuryAccountB)
	case wire.SetFeeTreasury:
		return e.SetFeeTreasury(in.Pool, in.Treasury, meta.Authority)
	default:
		return Receipt{}, fmt.Errorf("dispatch: unknown instruction %T: %w", instr, model.ErrInvalidInstructionData)
	}
}
