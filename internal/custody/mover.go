package custody

import (
	"fmt"

	"swapcore/internal/fixedmath"
	"swapcore/internal/model"
)

// Mover moves value of one asset between custody addresses. The swap and
// liquidity math calls a Mover and never branches on asset kind; the two
// implementations cover custody-held tokens and the native asset.
type Mover interface {
	Move(from, to, authority model.Address, amount uint64) error
}

// TokenMover moves custody-held tokens through authorized transfers.
type TokenMover struct {
	Ledger *Ledger
}

func (m TokenMover) Move(from, to, authority model.Address, amount uint64) error {
	return m.Ledger.Transfer(from, to, authority, amount)
}

// NativeMover debits and credits native balances directly, the way the
// host ledger adjusts them, without an authority check on the source.
type NativeMover struct {
	Ledger *Ledger
}

func (m NativeMover) Move(from, to, _ model.Address, amount uint64) error {
	l := m.Ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return fmt.Errorf("native source %s: %w", from, model.ErrInvalidAccountData)
	}
	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("native destination %s: %w", to, model.ErrInvalidAccountData)
	}
	if src.Asset != model.NativeAssetID || dst.Asset != model.NativeAssetID {
		return fmt.Errorf("native move %s -> %s: non-native account: %w", from, to, model.ErrInvalidArgument)
	}
	if src.Balance < amount {
		return fmt.Errorf("native move from %s: balance %d < %d: %w", from, src.Balance, amount, model.ErrInsufficientFunds)
	}
	newDst, err := fixedmath.Add(dst.Balance, amount)
	if err != nil {
		return fmt.Errorf("native move to %s: %w", to, err)
	}
	src.Balance -= amount
	dst.Balance = newDst
	return nil
}

// MoverFor picks the implementation for an asset.
func MoverFor(ledger *Ledger, asset model.AssetID) Mover {
	if asset == model.NativeAssetID {
		return NativeMover{Ledger: ledger}
	}
	return TokenMover{Ledger: ledger}
}
