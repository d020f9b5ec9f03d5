// Package custody implements the value-movement collaborators consumed by
// the engine: per-asset custody accounts, share-token mint/burn, and the
// unified asset mover. The engine invokes these primitives but never
// implements value movement itself.
package custody

import (
	"fmt"
	"sync"

	"swapcore/internal/fixedmath"
	"swapcore/internal/model"
)

// Account is one custody sub-account: a balance of a single asset under a
// single authority.
type Account struct {
	Asset     model.AssetID
	Authority model.Address
	Balance   uint64
}

// Ledger is an in-memory custody ledger. One operation owns the ledger at
// a time; the mutex only guards against concurrent snapshot readers.
type Ledger struct {
	mu       sync.Mutex
	accounts map[model.Address]*Account
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[model.Address]*Account)}
}

// CreateAccount registers an empty custody account. Re-creating an
// existing address fails with ErrAlreadyInitialized.
func (l *Ledger) CreateAccount(addr model.Address, asset model.AssetID, authority model.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[addr]; ok {
		return fmt.Errorf("custody account %s: %w", addr, model.ErrAlreadyInitialized)
	}
	l.accounts[addr] = &Account{Asset: asset, Authority: authority}
	return nil
}

// EnsureAccount creates the account if it does not exist yet and verifies
// asset identity when it does.
func (l *Ledger) EnsureAccount(addr model.Address, asset model.AssetID, authority model.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[addr]
	if !ok {
		l.accounts[addr] = &Account{Asset: asset, Authority: authority}
		return nil
	}
	if acct.Asset != asset {
		return fmt.Errorf("custody account %s holds a different asset: %w", addr, model.ErrInvalidArgument)
	}
	return nil
}

// Account returns a copy of the account at addr.
func (l *Ledger) Account(addr model.Address) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[addr]
	if !ok {
		return Account{}, fmt.Errorf("custody account %s: %w", addr, model.ErrInvalidAccountData)
	}
	return *acct, nil
}

// Balance returns the balance at addr, zero if the account does not exist.
func (l *Ledger) Balance(addr model.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if acct, ok := l.accounts[addr]; ok {
		return acct.Balance
	}
	return 0
}

// Transfer moves amount between two accounts of the same asset. The
// authority must match the source account's stored authority.
func (l *Ledger) Transfer(from, to, authority model.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return fmt.Errorf("transfer source %s: %w", from, model.ErrInvalidAccountData)
	}
	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("transfer destination %s: %w", to, model.ErrInvalidAccountData)
	}
	if src.Authority != authority {
		return fmt.Errorf("transfer from %s: authority mismatch: %w", from, model.ErrInvalidArgument)
	}
	if src.Asset != dst.Asset {
		return fmt.Errorf("transfer %s -> %s: asset mismatch: %w", from, to, model.ErrInvalidArgument)
	}
	if src.Balance < amount {
		return fmt.Errorf("transfer from %s: balance %d < %d: %w", from, src.Balance, amount, model.ErrInsufficientFunds)
	}

	newDst, err := fixedmath.Add(dst.Balance, amount)
	if err != nil {
		return fmt.Errorf("transfer to %s: %w", to, err)
	}
	src.Balance -= amount
	dst.Balance = newDst
	return nil
}

// Mint credits amount of asset to an account holding that asset.
func (l *Ledger) Mint(to model.Address, asset model.AssetID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("mint destination %s: %w", to, model.ErrInvalidAccountData)
	}
	if dst.Asset != asset {
		return fmt.Errorf("mint to %s: asset mismatch: %w", to, model.ErrInvalidArgument)
	}
	newBal, err := fixedmath.Add(dst.Balance, amount)
	if err != nil {
		return fmt.Errorf("mint to %s: %w", to, err)
	}
	dst.Balance = newBal
	return nil
}

// Burn debits amount of asset from an account under the given authority.
func (l *Ledger) Burn(from model.Address, asset model.AssetID, authority model.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return fmt.Errorf("burn source %s: %w", from, model.ErrInvalidAccountData)
	}
	if src.Asset != asset {
		return fmt.Errorf("burn from %s: asset mismatch: %w", from, model.ErrInvalidArgument)
	}
	if src.Authority != authority {
		return fmt.Errorf("burn from %s: authority mismatch: %w", from, model.ErrInvalidArgument)
	}
	if src.Balance < amount {
		return fmt.Errorf("burn from %s: balance %d < %d: %w", from, src.Balance, amount, model.ErrInsufficientFunds)
	}
	src.Balance -= amount
	return nil
}

// Snapshot captures the full ledger state for rollback.
type Snapshot map[model.Address]Account

// Snapshot returns a deep copy of all accounts.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := make(Snapshot, len(l.accounts))
	for addr, acct := range l.accounts {
		snap[addr] = *acct
	}
	return snap
}

// Restore replaces the ledger state with a previously taken snapshot.
func (l *Ledger) Restore(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[model.Address]*Account, len(snap))
	for addr, acct := range snap {
		copied := acct
		l.accounts[addr] = &copied
	}
}
