// Package engine executes pool operations: it validates derived
// addresses, runs the pricing and liquidity math against the state read
// at operation start, and instructs the custody ledger to move value.
// One operation is one atomic unit of work; any failure discards every
// mutation made earlier in the same operation.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"swapcore/internal/custody"
	"swapcore/internal/derive"
	"swapcore/internal/model"
	"swapcore/internal/store"
)

// Store is the pool arena with rollback support.
type Store interface {
	store.Store
	Snapshot() store.Snapshot
	Restore(store.Snapshot)
}

// Engine applies operations to the pool store and custody ledger.
type Engine struct {
	store  Store
	ledger *custody.Ledger
	logger *zap.Logger
}

func New(st Store, ledger *custody.Ledger, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, ledger: ledger, logger: logger}
}

// Ledger exposes the custody ledger, e.g. for account setup by the host.
func (e *Engine) Ledger() *custody.Ledger {
	return e.ledger
}

// Caller identifies the requesting party and its custody accounts for
// single-pool operations.
type Caller struct {
	Authority    model.Address
	AccountA     model.Address
	AccountB     model.Address
	ShareAccount model.Address
}

// PoolAccounts are the caller-supplied addresses of a pool's derived
// accounts. Every operation re-derives and verifies them before acting.
type PoolAccounts struct {
	Pool      model.Address
	VaultA    model.Address
	VaultB    model.Address
	ShareMint model.Address
}

// Receipt reports the effects of one applied operation.
type Receipt struct {
	Op           string `json:"op"`
	Pool         string `json:"pool,omitempty"`
	AmountIn     uint64 `json:"amount_in,omitempty"`
	AmountOut    uint64 `json:"amount_out,omitempty"`
	AmountA      uint64 `json:"amount_a,omitempty"`
	AmountB      uint64 `json:"amount_b,omitempty"`
	RefundA      uint64 `json:"refund_a,omitempty"`
	RefundB      uint64 `json:"refund_b,omitempty"`
	SharesMinted uint64 `json:"shares_minted,omitempty"`
	SharesBurned uint64 `json:"shares_burned,omitempty"`
	FeeAccrued   uint64 `json:"fee_accrued,omitempty"`
	Hops         int    `json:"hops,omitempty"`
}

// atomic runs fn with all-or-nothing semantics over the pool store and
// the custody ledger, standing in for the host transaction boundary.
func (e *Engine) atomic(fn func() (Receipt, error)) (Receipt, error) {
	poolSnap := e.store.Snapshot()
	ledgerSnap := e.ledger.Snapshot()

	rcpt, err := fn()
	if err != nil {
		e.store.Restore(poolSnap)
		e.ledger.Restore(ledgerSnap)
		return Receipt{}, err
	}
	return rcpt, nil
}

// custodyContext is the verified set of derived addresses for one pool.
type custodyContext struct {
	variant    model.PoolVariant
	poolAddr   model.Address
	salt       uint8
	vaultA     model.Address
	vaultB     model.Address
	shareMint  model.Address
	shareAsset model.AssetID
}

// resolvePool derives the pool's addresses from its asset pair and checks
// every caller-supplied address against the derivation. Assets must be
// given in stored order (native side first for native-paired pools).
func resolvePool(assetA, assetB model.AssetID, accts PoolAccounts) (custodyContext, error) {
	ctx := custodyContext{variant: model.VariantTwoToken}
	if assetA == model.NativeAssetID {
		ctx.variant = model.VariantNativePaired
	}

	var err error
	if ctx.variant == model.VariantNativePaired {
		if ctx.salt, err = derive.Verify(accts.Pool, derive.LabelNativePool, assetB.Bytes()); err != nil {
			return ctx, err
		}
		ctx.poolAddr = accts.Pool
		// The native reserve is held by the pool account itself.
		if accts.VaultA != accts.Pool {
			return ctx, fmt.Errorf("native vault must be the pool account: %w", model.ErrInvalidSeeds)
		}
		ctx.vaultA = accts.Pool
		if _, err = derive.Verify(accts.VaultB, derive.LabelNativeVault, accts.Pool.Bytes(), assetB.Bytes()); err != nil {
			return ctx, err
		}
		ctx.vaultB = accts.VaultB
		if _, err = derive.Verify(accts.ShareMint, derive.LabelNativeShareMint, accts.Pool.Bytes()); err != nil {
			return ctx, err
		}
	} else {
		if ctx.salt, err = derive.Verify(accts.Pool, derive.LabelPool, assetA.Bytes(), assetB.Bytes()); err != nil {
			return ctx, err
		}
		ctx.poolAddr = accts.Pool
		if _, err = derive.Verify(accts.VaultA, derive.LabelVault, accts.Pool.Bytes(), assetA.Bytes()); err != nil {
			return ctx, err
		}
		ctx.vaultA = accts.VaultA
		if _, err = derive.Verify(accts.VaultB, derive.LabelVault, accts.Pool.Bytes(), assetB.Bytes()); err != nil {
			return ctx, err
		}
		ctx.vaultB = accts.VaultB
		if _, err = derive.Verify(accts.ShareMint, derive.LabelShareMint, accts.Pool.Bytes()); err != nil {
			return ctx, err
		}
	}
	ctx.shareMint = accts.ShareMint
	ctx.shareAsset = model.AssetID(accts.ShareMint)
	return ctx, nil
}

// vaultsOf re-derives a loaded pool's vault addresses from its record.
func vaultsOf(poolAddr model.Address, rec model.PoolRecord) (model.Address, model.Address) {
	if rec.Variant == model.VariantNativePaired {
		vaultB, _ := derive.Derive(derive.LabelNativeVault, poolAddr.Bytes(), rec.TokenMint.Bytes())
		return poolAddr, vaultB
	}
	vaultA, _ := derive.Derive(derive.LabelVault, poolAddr.Bytes(), rec.AssetA.Bytes())
	vaultB, _ := derive.Derive(derive.LabelVault, poolAddr.Bytes(), rec.AssetB.Bytes())
	return vaultA, vaultB
}

func (e *Engine) moverFor(asset model.AssetID) custody.Mover {
	return custody.MoverFor(e.ledger, asset)
}
