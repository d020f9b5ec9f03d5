package engine

import (
	"errors"
	"testing"

	"swapcore/internal/custody"
	"swapcore/internal/derive"
	"swapcore/internal/model"
	"swapcore/internal/pricing"
	"swapcore/internal/store"
)

func testAddr(b byte) model.Address {
	var a model.Address
	a[0] = b
	return a
}

func testAsset(b byte) model.AssetID {
	var a model.AssetID
	a[0] = b
	return a
}

type fixture struct {
	eng    *Engine
	ledger *custody.Ledger
	st     *store.Memory
}

func newFixture() *fixture {
	st := store.NewMemory()
	l := custody.NewLedger()
	return &fixture{eng: New(st, l, nil), ledger: l, st: st}
}

// accountsFor derives the expected pool accounts for a pair given in
// stored order.
func accountsFor(a, b model.AssetID) PoolAccounts {
	if a == model.NativeAssetID {
		pool, _ := derive.Derive(derive.LabelNativePool, b.Bytes())
		vaultB, _ := derive.Derive(derive.LabelNativeVault, pool.Bytes(), b.Bytes())
		mint, _ := derive.Derive(derive.LabelNativeShareMint, pool.Bytes())
		return PoolAccounts{Pool: pool, VaultA: pool, VaultB: vaultB, ShareMint: mint}
	}
	pool, _ := derive.Derive(derive.LabelPool, a.Bytes(), b.Bytes())
	vaultA, _ := derive.Derive(derive.LabelVault, pool.Bytes(), a.Bytes())
	vaultB, _ := derive.Derive(derive.LabelVault, pool.Bytes(), b.Bytes())
	mint, _ := derive.Derive(derive.LabelShareMint, pool.Bytes())
	return PoolAccounts{Pool: pool, VaultA: vaultA, VaultB: vaultB, ShareMint: mint}
}

// fundUser creates a user with custody accounts for both assets.
func (f *fixture) fundUser(t *testing.T, seed byte, assetA, assetB model.AssetID, amountA, amountB uint64) Caller {
	t.Helper()
	c := Caller{
		Authority:    testAddr(seed),
		AccountA:     testAddr(seed + 1),
		AccountB:     testAddr(seed + 2),
		ShareAccount: testAddr(seed + 3),
	}
	if err := f.ledger.CreateAccount(c.AccountA, assetA, c.Authority); err != nil {
		t.Fatalf("create account a: %v", err)
	}
	if err := f.ledger.CreateAccount(c.AccountB, assetB, c.Authority); err != nil {
		t.Fatalf("create account b: %v", err)
	}
	if amountA > 0 {
		if err := f.ledger.Mint(c.AccountA, assetA, amountA); err != nil {
			t.Fatalf("fund account a: %v", err)
		}
	}
	if amountB > 0 {
		if err := f.ledger.Mint(c.AccountB, assetB, amountB); err != nil {
			t.Fatalf("fund account b: %v", err)
		}
	}
	return c
}

func (f *fixture) initPool(t *testing.T, assetA, assetB model.AssetID, amountA, amountB uint64, caller Caller) PoolAccounts {
	t.Helper()
	accts := accountsFor(assetA, assetB)
	if _, err := f.eng.InitPool(assetA, assetB, amountA, amountB, caller, accts); err != nil {
		t.Fatalf("init pool: %v", err)
	}
	return accts
}

func TestInitPoolCreatesState(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	caller := f.fundUser(t, 0x10, a, b, 5000, 5000)
	accts := accountsFor(a, b)

	rcpt, err := f.eng.InitPool(a, b, 1000, 2000, caller, accts)
	if err != nil {
		t.Fatalf("init pool: %v", err)
	}
	if rcpt.SharesMinted != 1414 {
		t.Fatalf("shares minted = %d, want 1414", rcpt.SharesMinted)
	}

	rec, err := f.st.Get(accts.Pool)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if rec.Variant != model.VariantTwoToken || rec.AssetA != a || rec.AssetB != b {
		t.Fatalf("unexpected record identity: %+v", rec)
	}
	if rec.ReserveA != 1000 || rec.ReserveB != 2000 || rec.TotalShareSupply != 1414 {
		t.Fatalf("unexpected record balances: %+v", rec)
	}
	if got := f.ledger.Balance(accts.VaultA); got != 1000 {
		t.Fatalf("vault a = %d, want 1000", got)
	}
	if got := f.ledger.Balance(accts.VaultB); got != 2000 {
		t.Fatalf("vault b = %d, want 2000", got)
	}
	if got := f.ledger.Balance(caller.ShareAccount); got != 1414 {
		t.Fatalf("share balance = %d, want 1414", got)
	}
	if got := f.ledger.Balance(caller.AccountA); got != 4000 {
		t.Fatalf("user a = %d, want 4000", got)
	}
}

func TestInitPoolTwice(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	caller := f.fundUser(t, 0x10, a, b, 5000, 5000)
	accts := f.initPool(t, a, b, 1000, 2000, caller)

	_, err := f.eng.InitPool(a, b, 100, 200, caller, accts)
	if !errors.Is(err, model.ErrAlreadyInitialized) {
		t.Fatalf("err = %v, want ErrAlreadyInitialized", err)
	}
	if got := f.ledger.Balance(caller.AccountA); got != 4000 {
		t.Fatalf("user a = %d after failed init, want 4000", got)
	}
}

func TestInitPoolBadSeeds(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	caller := f.fundUser(t, 0x10, a, b, 5000, 5000)
	accts := accountsFor(a, b)
	accts.VaultA = testAddr(0xEE)

	_, err := f.eng.InitPool(a, b, 1000, 2000, caller, accts)
	if !errors.Is(err, model.ErrInvalidSeeds) {
		t.Fatalf("err = %v, want ErrInvalidSeeds", err)
	}
	if f.st.Exists(accts.Pool) {
		t.Fatal("pool record created despite bad seeds")
	}
}

func TestSwapMatchesQuote(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 200000, 400000)
	accts := f.initPool(t, a, b, 100000, 200000, lp)

	trader := f.fundUser(t, 0x20, a, b, 10000, 0)
	want, err := pricing.Quote(10000, 100000, 200000)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	rcpt, err := f.eng.Swap(a, b, 10000, true, trader, accts)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if rcpt.AmountOut != want {
		t.Fatalf("amount out = %d, want %d", rcpt.AmountOut, want)
	}
	if rcpt.FeeAccrued != 30 {
		t.Fatalf("fee = %d, want 30", rcpt.FeeAccrued)
	}
	if got := f.ledger.Balance(trader.AccountB); got != want {
		t.Fatalf("trader b = %d, want %d", got, want)
	}

	rec, _ := f.st.Get(accts.Pool)
	if rec.ReserveA != 110000 || rec.ReserveB != 200000-want {
		t.Fatalf("reserves = %d/%d, want 110000/%d", rec.ReserveA, rec.ReserveB, 200000-want)
	}
	if rec.FeeAccruedA != 30 || rec.FeeAccruedB != 0 {
		t.Fatalf("fee counters = %d/%d, want 30/0", rec.FeeAccruedA, rec.FeeAccruedB)
	}
}

func TestSwapKeepsProductNonDecreasing(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 200000, 400000)
	accts := f.initPool(t, a, b, 100000, 200000, lp)
	trader := f.fundUser(t, 0x20, a, b, 50000, 50000)

	before, _ := f.st.Get(accts.Pool)
	kBefore := before.ReserveA * before.ReserveB

	if _, err := f.eng.Swap(a, b, 7777, true, trader, accts); err != nil {
		t.Fatalf("swap a to b: %v", err)
	}
	if _, err := f.eng.Swap(a, b, 12345, false, trader, accts); err != nil {
		t.Fatalf("swap b to a: %v", err)
	}

	after, _ := f.st.Get(accts.Pool)
	if after.ReserveA*after.ReserveB < kBefore {
		t.Fatalf("reserve product decreased: %d -> %d", kBefore, after.ReserveA*after.ReserveB)
	}
}

func TestSwapInsufficientBalanceRollsBack(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 200000, 400000)
	accts := f.initPool(t, a, b, 100000, 200000, lp)
	trader := f.fundUser(t, 0x20, a, b, 100, 0)

	_, err := f.eng.Swap(a, b, 10000, true, trader, accts)
	if !errors.Is(err, model.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	rec, _ := f.st.Get(accts.Pool)
	if rec.ReserveA != 100000 || rec.ReserveB != 200000 {
		t.Fatalf("reserves changed on failed swap: %d/%d", rec.ReserveA, rec.ReserveB)
	}
	if got := f.ledger.Balance(trader.AccountA); got != 100 {
		t.Fatalf("trader a = %d, want 100", got)
	}
}

func TestAddLiquidityRatioFit(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 5000, 5000)
	accts := f.initPool(t, a, b, 1000, 2000, lp)

	joiner := f.fundUser(t, 0x20, a, b, 500, 600)
	rcpt, err := f.eng.AddLiquidity(a, b, 500, 600, joiner, accts)
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	if rcpt.AmountA != 300 || rcpt.AmountB != 600 {
		t.Fatalf("final pair = %d/%d, want 300/600", rcpt.AmountA, rcpt.AmountB)
	}
	if rcpt.RefundA != 200 || rcpt.RefundB != 0 {
		t.Fatalf("refunds = %d/%d, want 200/0", rcpt.RefundA, rcpt.RefundB)
	}
	if rcpt.SharesMinted != 424 {
		t.Fatalf("shares = %d, want 424", rcpt.SharesMinted)
	}

	// The refund never left the joiner's account.
	if got := f.ledger.Balance(joiner.AccountA); got != 200 {
		t.Fatalf("joiner a = %d, want 200", got)
	}
	rec, _ := f.st.Get(accts.Pool)
	if rec.ReserveA != 1300 || rec.ReserveB != 2600 || rec.TotalShareSupply != 1838 {
		t.Fatalf("record = %d/%d supply %d, want 1300/2600 supply 1838", rec.ReserveA, rec.ReserveB, rec.TotalShareSupply)
	}
}

func TestRemoveLiquidity(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 1000, 2000)
	accts := f.initPool(t, a, b, 1000, 2000, lp)

	rcpt, err := f.eng.RemoveLiquidity(a, b, 707, lp, accts)
	if err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}
	if rcpt.AmountA != 500 || rcpt.AmountB != 1000 {
		t.Fatalf("payout = %d/%d, want 500/1000", rcpt.AmountA, rcpt.AmountB)
	}
	if got := f.ledger.Balance(lp.ShareAccount); got != 707 {
		t.Fatalf("remaining shares = %d, want 707", got)
	}
	rec, _ := f.st.Get(accts.Pool)
	if rec.ReserveA != 500 || rec.ReserveB != 1000 || rec.TotalShareSupply != 707 {
		t.Fatalf("record = %d/%d supply %d, want 500/1000 supply 707", rec.ReserveA, rec.ReserveB, rec.TotalShareSupply)
	}
}

func TestAddLiquidityDrainedPoolRejectsZeroShares(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 1000, 2000)
	accts := f.initPool(t, a, b, 1000, 2000, lp)

	// Drain the pool completely: supply and both reserves back to zero.
	if _, err := f.eng.RemoveLiquidity(a, b, 1414, lp, accts); err != nil {
		t.Fatalf("drain: %v", err)
	}
	rec, _ := f.st.Get(accts.Pool)
	if rec.ReserveA != 0 || rec.ReserveB != 0 || rec.TotalShareSupply != 0 {
		t.Fatalf("drained record = %d/%d supply %d, want 0/0 supply 0", rec.ReserveA, rec.ReserveB, rec.TotalShareSupply)
	}

	// A one-sided re-seed mints isqrt(5*0) = 0 shares. It must fail
	// outright instead of crediting reserves nobody can redeem.
	_, err := f.eng.AddLiquidity(a, b, 5, 0, lp, accts)
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	rec, _ = f.st.Get(accts.Pool)
	if rec.ReserveA != 0 || rec.TotalShareSupply != 0 {
		t.Fatalf("record = %d/%d supply %d after rejected deposit, want all zero", rec.ReserveA, rec.ReserveB, rec.TotalShareSupply)
	}
	if got := f.ledger.Balance(lp.AccountA); got != 1000 {
		t.Fatalf("depositor a = %d, want 1000", got)
	}
	if got := f.ledger.Balance(accts.VaultA); got != 0 {
		t.Fatalf("vault a = %d, want 0", got)
	}

	// A balanced re-seed is still allowed once it mints at least one share.
	rcpt, err := f.eng.AddLiquidity(a, b, 400, 900, lp, accts)
	if err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if rcpt.SharesMinted != 600 {
		t.Fatalf("re-seed shares = %d, want isqrt(360_000) = 600", rcpt.SharesMinted)
	}
}

func TestRemoveLiquidityBeyondSupply(t *testing.T) {
	f := newFixture()
	a, b := testAsset(1), testAsset(2)
	lp := f.fundUser(t, 0x10, a, b, 1000, 2000)
	accts := f.initPool(t, a, b, 1000, 2000, lp)

	_, err := f.eng.RemoveLiquidity(a, b, 5000, lp, accts)
	if !errors.Is(err, model.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	rec, _ := f.st.Get(accts.Pool)
	if rec.TotalShareSupply != 1414 {
		t.Fatalf("supply = %d after failed withdrawal, want 1414", rec.TotalShareSupply)
	}
}

func TestNativePoolRoundTrip(t *testing.T) {
	f := newFixture()
	mint := testAsset(7)
	lp := f.fundUser(t, 0x10, model.NativeAssetID, mint, 100000, 200000)
	accts := f.initPool(t, model.NativeAssetID, mint, 100000, 200000, lp)

	rec, err := f.st.Get(accts.Pool)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if rec.Variant != model.VariantNativePaired || rec.TokenMint != mint {
		t.Fatalf("unexpected record: %+v", rec)
	}
	// The pool account itself holds the native reserve.
	if got := f.ledger.Balance(accts.Pool); got != 100000 {
		t.Fatalf("pool native balance = %d, want 100000", got)
	}

	trader := f.fundUser(t, 0x20, model.NativeAssetID, mint, 5000, 0)
	want, _ := pricing.Quote(5000, 100000, 200000)
	rcpt, err := f.eng.Swap(model.NativeAssetID, mint, 5000, true, trader, accts)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if rcpt.AmountOut != want {
		t.Fatalf("amount out = %d, want %d", rcpt.AmountOut, want)
	}
	if got := f.ledger.Balance(accts.Pool); got != 105000 {
		t.Fatalf("pool native balance = %d, want 105000", got)
	}
}

func TestInitPoolNormalizesNativeOrder(t *testing.T) {
	f := newFixture()
	mint := testAsset(7)
	caller := f.fundUser(t, 0x10, mint, model.NativeAssetID, 200000, 100000)

	native := accountsFor(model.NativeAssetID, mint)
	// Present everything token-first; the engine flips it to native-first.
	flipped := PoolAccounts{
		Pool:      native.Pool,
		VaultA:    native.VaultB,
		VaultB:    native.VaultA,
		ShareMint: native.ShareMint,
	}
	if _, err := f.eng.InitPool(mint, model.NativeAssetID, 200000, 100000, caller, flipped); err != nil {
		t.Fatalf("init pool: %v", err)
	}

	rec, err := f.st.Get(native.Pool)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if rec.AssetA != model.NativeAssetID || rec.AssetB != mint {
		t.Fatalf("pair not normalized: %+v", rec)
	}
	if rec.ReserveA != 100000 || rec.ReserveB != 200000 {
		t.Fatalf("reserves = %d/%d, want 100000/200000", rec.ReserveA, rec.ReserveB)
	}
}
