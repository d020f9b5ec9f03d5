package engine

import (
	"errors"
	"testing"

	"swapcore/internal/model"
	"swapcore/internal/pricing"
)

// routeFixture sets up two pools, one per leg of an A -> B -> C route,
// and a trader holding only asset A.
type routeFixture struct {
	*fixture
	a, b, c  model.AssetID
	poolAB   PoolAccounts
	poolBC   PoolAccounts
	trader   RouteCaller
	inputA   model.Address
	interB   model.Address
	outputC  model.Address
	tradeAmt uint64
}

func newRouteFixture(t *testing.T) *routeFixture {
	t.Helper()
	f := newFixture()
	rf := &routeFixture{fixture: f, a: testAsset(1), b: testAsset(2), c: testAsset(3), tradeAmt: 10000}

	lp1 := f.fundUser(t, 0x10, rf.a, rf.b, 100000, 200000)
	rf.poolAB = f.initPool(t, rf.a, rf.b, 100000, 200000, lp1)
	lp2 := f.fundUser(t, 0x20, rf.b, rf.c, 200000, 100000)
	rf.poolBC = f.initPool(t, rf.b, rf.c, 200000, 100000, lp2)

	auth := testAddr(0x30)
	rf.inputA, rf.interB, rf.outputC = testAddr(0x31), testAddr(0x32), testAddr(0x33)
	for _, acct := range []struct {
		addr  model.Address
		asset model.AssetID
	}{
		{rf.inputA, rf.a},
		{rf.interB, rf.b},
		{rf.outputC, rf.c},
	} {
		if err := f.ledger.CreateAccount(acct.addr, acct.asset, auth); err != nil {
			t.Fatalf("create %s: %v", acct.addr, err)
		}
	}
	if err := f.ledger.Mint(rf.inputA, rf.a, rf.tradeAmt); err != nil {
		t.Fatalf("fund input: %v", err)
	}
	rf.trader = RouteCaller{Authority: auth, InputAccount: rf.inputA}
	return rf
}

func (rf *routeFixture) hops() []Hop {
	return []Hop{
		{AssetA: rf.a, AssetB: rf.b, Accounts: rf.poolAB, Output: rf.interB},
		{AssetA: rf.b, AssetB: rf.c, Accounts: rf.poolBC, Output: rf.outputC},
	}
}

func TestMultihopSwapComposesQuotes(t *testing.T) {
	rf := newRouteFixture(t)

	mid, _ := pricing.Quote(rf.tradeAmt, 100000, 200000)
	want, _ := pricing.Quote(mid, 200000, 100000)

	rcpt, err := rf.eng.MultihopSwap(rf.tradeAmt, want, rf.trader, rf.hops())
	if err != nil {
		t.Fatalf("multihop swap: %v", err)
	}
	if rcpt.AmountOut != want {
		t.Fatalf("amount out = %d, want %d", rcpt.AmountOut, want)
	}
	if rcpt.Hops != 2 {
		t.Fatalf("hops = %d, want 2", rcpt.Hops)
	}
	if got := rf.ledger.Balance(rf.outputC); got != want {
		t.Fatalf("output balance = %d, want %d", got, want)
	}
	// The intermediate leg is fully consumed by the second hop.
	if got := rf.ledger.Balance(rf.interB); got != 0 {
		t.Fatalf("intermediate balance = %d, want 0", got)
	}
	if got := rf.ledger.Balance(rf.inputA); got != 0 {
		t.Fatalf("input balance = %d, want 0", got)
	}
}

func TestMultihopSwapMinimumOutRollsBack(t *testing.T) {
	rf := newRouteFixture(t)

	beforeAB, _ := rf.st.Get(rf.poolAB.Pool)
	beforeBC, _ := rf.st.Get(rf.poolBC.Pool)

	_, err := rf.eng.MultihopSwap(rf.tradeAmt, 1<<40, rf.trader, rf.hops())
	if !errors.Is(err, model.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	afterAB, _ := rf.st.Get(rf.poolAB.Pool)
	afterBC, _ := rf.st.Get(rf.poolBC.Pool)
	if afterAB != beforeAB || afterBC != beforeBC {
		t.Fatal("pool records changed on rolled-back route")
	}
	if got := rf.ledger.Balance(rf.inputA); got != rf.tradeAmt {
		t.Fatalf("input balance = %d after rollback, want %d", got, rf.tradeAmt)
	}
	if got := rf.ledger.Balance(rf.interB); got != 0 {
		t.Fatalf("intermediate balance = %d after rollback, want 0", got)
	}
	if got := rf.ledger.Balance(rf.outputC); got != 0 {
		t.Fatalf("output balance = %d after rollback, want 0", got)
	}
}

func TestMultihopSwapWantsTwoHops(t *testing.T) {
	rf := newRouteFixture(t)

	_, err := rf.eng.MultihopSwap(rf.tradeAmt, 0, rf.trader, rf.hops()[:1])
	if !errors.Is(err, model.ErrNotEnoughAccountKeys) {
		t.Fatalf("err = %v, want ErrNotEnoughAccountKeys", err)
	}
}

func TestMultihopSwapWithPath(t *testing.T) {
	rf := newRouteFixture(t)

	mid, _ := pricing.Quote(rf.tradeAmt, 100000, 200000)
	want, _ := pricing.Quote(mid, 200000, 100000)

	path := []model.AssetID{rf.a, rf.b, rf.c}
	rcpt, err := rf.eng.MultihopSwapWithPath(rf.tradeAmt, 0, path, rf.trader, rf.hops())
	if err != nil {
		t.Fatalf("multihop swap with path: %v", err)
	}
	if rcpt.AmountOut != want {
		t.Fatalf("amount out = %d, want %d", rcpt.AmountOut, want)
	}
}

func TestMultihopSwapWithPathMismatch(t *testing.T) {
	rf := newRouteFixture(t)

	// Path names asset C where the first pool trades A/B.
	path := []model.AssetID{rf.c, rf.b, rf.a}
	_, err := rf.eng.MultihopSwapWithPath(rf.tradeAmt, 0, path, rf.trader, rf.hops())
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if got := rf.ledger.Balance(rf.inputA); got != rf.tradeAmt {
		t.Fatalf("input balance = %d after failed route, want %d", got, rf.tradeAmt)
	}
}

func TestMultihopSwapWithPathShapeChecks(t *testing.T) {
	rf := newRouteFixture(t)

	_, err := rf.eng.MultihopSwapWithPath(rf.tradeAmt, 0, []model.AssetID{rf.a}, rf.trader, rf.hops())
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("short path: err = %v, want ErrInvalidArgument", err)
	}

	path := []model.AssetID{rf.a, rf.b, rf.c}
	_, err = rf.eng.MultihopSwapWithPath(rf.tradeAmt, 0, path, rf.trader, rf.hops()[:1])
	if !errors.Is(err, model.ErrNotEnoughAccountKeys) {
		t.Fatalf("missing hop: err = %v, want ErrNotEnoughAccountKeys", err)
	}
}

func TestMultihopSwapReversePathDirection(t *testing.T) {
	rf := newRouteFixture(t)

	// Route C -> B -> A so both hops run against stored order.
	auth := testAddr(0x40)
	inputC, interB, outputA := testAddr(0x41), testAddr(0x42), testAddr(0x43)
	for _, acct := range []struct {
		addr  model.Address
		asset model.AssetID
	}{
		{inputC, rf.c},
		{interB, rf.b},
		{outputA, rf.a},
	} {
		if err := rf.ledger.CreateAccount(acct.addr, acct.asset, auth); err != nil {
			t.Fatalf("create %s: %v", acct.addr, err)
		}
	}
	if err := rf.ledger.Mint(inputC, rf.c, 5000); err != nil {
		t.Fatalf("fund input: %v", err)
	}

	mid, _ := pricing.Quote(5000, 100000, 200000)
	want, _ := pricing.Quote(mid, 200000, 100000)

	hops := []Hop{
		{AssetA: rf.b, AssetB: rf.c, Accounts: rf.poolBC, Output: interB},
		{AssetA: rf.a, AssetB: rf.b, Accounts: rf.poolAB, Output: outputA},
	}
	caller := RouteCaller{Authority: auth, InputAccount: inputC}
	rcpt, err := rf.eng.MultihopSwapWithPath(5000, 0, []model.AssetID{rf.c, rf.b, rf.a}, caller, hops)
	if err != nil {
		t.Fatalf("reverse route: %v", err)
	}
	if rcpt.AmountOut != want {
		t.Fatalf("amount out = %d, want %d", rcpt.AmountOut, want)
	}
	if got := rf.ledger.Balance(outputA); got != want {
		t.Fatalf("output balance = %d, want %d", got, want)
	}
}
