package transfer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingnet-wallet/internal/fees"
	"github.com/Klingon-tech/klingnet-wallet/pkg/errs"
	"github.com/Klingon-tech/klingnet-wallet/pkg/ledger"
	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	operatorID  types.AccountID = "1001"
	collectorID types.AccountID = "98"
)

var tokenAsset = types.AssetID(strings.Repeat("ab", 32))

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// staticResolver serves fixed decimals for tokens and counts lookups.
type staticResolver struct {
	decimals map[types.AssetID]uint32
	err      error
	calls    int
}

func (r *staticResolver) resolve(_ context.Context, asset types.AssetID) (uint32, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	d, ok := r.decimals[asset]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return d, nil
}

// staticBalances serves fixed cached balances.
type staticBalances map[types.AssetID]string

func (b staticBalances) Balance(asset types.AssetID) (decimal.Decimal, bool) {
	s, ok := b[asset]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.RequireFromString(s), true
}

func onePercent() fees.Spec {
	return fees.Spec{PercentageCut: decimal.NewFromInt(1), Collector: collectorID}
}

func noFee() fees.Spec {
	return fees.Spec{}
}

func newTestBuilder(t *testing.T, spec fees.Spec, resolver *staticResolver, balances BalanceSource) *Builder {
	t.Helper()
	if resolver == nil {
		resolver = &staticResolver{}
	}
	b, err := NewBuilder(operatorID, spec, resolver.resolve, balances)
	if err != nil {
		t.Fatalf("NewBuilder() error: %v", err)
	}
	return b
}

// legFor finds the single leg for an (asset, account) pair.
func legFor(t *testing.T, tx *ledger.Transaction, asset types.AssetID, account types.AccountID) ledger.Leg {
	t.Helper()
	var found *ledger.Leg
	for _, leg := range tx.Body.Transfers {
		if leg.Asset == asset && leg.Account == account {
			if found != nil {
				t.Fatalf("multiple legs for %s/%s", asset, account)
			}
			l := leg
			found = &l
		}
	}
	if found == nil {
		t.Fatalf("no leg for %s/%s in %+v", asset, account, tx.Body.Transfers)
	}
	return *found
}

func TestBuild_FeeScenario(t *testing.T) {
	// Two native instructions, 100 and 50, at a 1% cut: fees 1 and 0.5,
	// effective 99 and 49.5, collector credited 1.5, operator debited the
	// full 150 so every asset sums to zero.
	b := newTestBuilder(t, onePercent(), nil, nil)

	tx, feeTotals, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "100")},
		{Asset: types.AssetNative, To: "3003", Amount: dec(t, "50")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if got := legFor(t, tx, types.AssetNative, "2002").Amount; got != 9_900_000_000 {
		t.Errorf("recipient 2002 credit = %d, want 9900000000", got)
	}
	if got := legFor(t, tx, types.AssetNative, "3003").Amount; got != 4_950_000_000 {
		t.Errorf("recipient 3003 credit = %d, want 4950000000", got)
	}

	// Collector takes two credits, 1 and 0.5 in human units.
	var collectorTotal int64
	for _, leg := range tx.Body.Transfers {
		if leg.Account == collectorID {
			collectorTotal += leg.Amount
		}
	}
	if collectorTotal != 150_000_000 {
		t.Errorf("collector credits = %d, want 150000000", collectorTotal)
	}

	if got := legFor(t, tx, types.AssetNative, operatorID).Amount; got != -15_000_000_000 {
		t.Errorf("operator debit = %d, want -15000000000", got)
	}

	if feeTotals[types.AssetNative] != 150_000_000 {
		t.Errorf("fee ledger = %d, want 150000000", feeTotals[types.AssetNative])
	}

	if err := tx.ValidateBalanced(); err != nil {
		t.Errorf("ValidateBalanced() error: %v", err)
	}
}

func TestBuild_ZeroSum(t *testing.T) {
	resolver := &staticResolver{decimals: map[types.AssetID]uint32{tokenAsset: 6}}
	b := newTestBuilder(t, onePercent(), resolver, nil)

	tx, _, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "12.345")},
		{Asset: tokenAsset, To: "2002", Amount: dec(t, "7.77")},
		{Asset: tokenAsset, To: "3003", Amount: dec(t, "0.33")},
		{Asset: types.AssetNative, From: "4004", To: "5005", Amount: dec(t, "2")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	sums := make(map[types.AssetID]int64)
	for _, leg := range tx.Body.Transfers {
		sums[leg.Asset] += leg.Amount
	}
	for asset, sum := range sums {
		if sum != 0 {
			t.Errorf("asset %s sums to %d, want 0", asset, sum)
		}
	}
}

func TestBuild_NoFeeSpec(t *testing.T) {
	b := newTestBuilder(t, noFee(), nil, nil)

	tx, feeTotals, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "100")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if len(feeTotals) != 0 {
		t.Errorf("fee ledger should be empty, got %v", feeTotals)
	}
	if got := legFor(t, tx, types.AssetNative, "2002").Amount; got != 10_000_000_000 {
		t.Errorf("recipient credit = %d, want 10000000000", got)
	}
	if got := legFor(t, tx, types.AssetNative, operatorID).Amount; got != -10_000_000_000 {
		t.Errorf("operator debit = %d, want -10000000000", got)
	}
}

func TestBuild_TokenDecimalsScaling(t *testing.T) {
	resolver := &staticResolver{decimals: map[types.AssetID]uint32{tokenAsset: 2}}
	b := newTestBuilder(t, noFee(), resolver, nil)

	tx, _, err := b.Build(context.Background(), []Instruction{
		{Asset: tokenAsset, To: "2002", Amount: dec(t, "3.14")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if got := legFor(t, tx, tokenAsset, "2002").Amount; got != 314 {
		t.Errorf("token credit = %d, want 314", got)
	}
}

func TestBuild_DecimalsLookupOncePerToken(t *testing.T) {
	resolver := &staticResolver{decimals: map[types.AssetID]uint32{tokenAsset: 6}}
	b := newTestBuilder(t, noFee(), resolver, nil)

	_, _, err := b.Build(context.Background(), []Instruction{
		{Asset: tokenAsset, To: "2002", Amount: dec(t, "1")},
		{Asset: tokenAsset, To: "3003", Amount: dec(t, "2")},
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "3")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1 (native never resolves, token resolves once)", resolver.calls)
	}
}

func TestBuild_DecimalsFailureAbortsWholeBatch(t *testing.T) {
	resolver := &staticResolver{err: errors.New("mirror unavailable")}
	b := newTestBuilder(t, noFee(), resolver, nil)

	tx, feeTotals, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "10")},
		{Asset: tokenAsset, To: "3003", Amount: dec(t, "5")},
	}, Options{})
	if err == nil {
		t.Fatal("Build() should fail when a token's decimals cannot be resolved")
	}
	if tx != nil || feeTotals != nil {
		t.Error("no partial transaction may be constructed")
	}
	if errs.ClassOf(err) != errs.ClassValidation {
		t.Errorf("error class = %v, want validation", errs.ClassOf(err))
	}
}

func TestBuild_ValidationFailures(t *testing.T) {
	b := newTestBuilder(t, onePercent(), nil, nil)

	tests := []struct {
		name         string
		instructions []Instruction
	}{
		{"empty batch", nil},
		{"no recipient", []Instruction{{Asset: types.AssetNative, Amount: dec(t, "1")}}},
		{"zero amount", []Instruction{{Asset: types.AssetNative, To: "2002", Amount: decimal.Zero}}},
		{"negative amount", []Instruction{{Asset: types.AssetNative, To: "2002", Amount: dec(t, "-5")}}},
		{"bad asset", []Instruction{{Asset: "not-an-asset", To: "2002", Amount: dec(t, "1")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := b.Build(context.Background(), tt.instructions, Options{})
			if err == nil {
				t.Fatal("Build() should have failed")
			}
			if errs.ClassOf(err) != errs.ClassValidation {
				t.Errorf("error class = %v, want validation", errs.ClassOf(err))
			}
		})
	}
}

func TestBuild_NegativeEffectiveAmount(t *testing.T) {
	// A 100% cut rounds the fee above tiny amounts: fee(0.004) = 0.00...
	// use a cut that produces fee > amount instead.
	spec := fees.Spec{PercentageCut: decimal.NewFromInt(100), Collector: collectorID}
	b := newTestBuilder(t, spec, nil, nil)

	// amount 0.004 at 100%: fee = round(0.004, 2) = 0, effective 0.004 — fine.
	// amount 0.002 at 100% rounds fee to 0 as well, so force the negative
	// case with a fee exceeding the amount: cut 100% on 0.006 gives fee
	// 0.01 > amount.
	_, _, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "0.006")},
	}, Options{})
	if err == nil {
		t.Fatal("Build() should reject a fee exceeding the amount")
	}
	if errs.ClassOf(err) != errs.ClassValidation {
		t.Errorf("error class = %v, want validation", errs.ClassOf(err))
	}
}

func TestBuild_DelegatedTransferDebitsFromAccount(t *testing.T) {
	b := newTestBuilder(t, noFee(), nil, nil)

	tx, _, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, From: "4004", To: "2002", Amount: dec(t, "1")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if got := legFor(t, tx, types.AssetNative, "4004").Amount; got != -100_000_000 {
		t.Errorf("delegated debit = %d, want -100000000", got)
	}
	for _, leg := range tx.Body.Transfers {
		if leg.Account == operatorID {
			t.Errorf("operator should not appear in a fully delegated batch, got leg %+v", leg)
		}
	}
}

func TestBuild_AggregatesDebitsPerSender(t *testing.T) {
	b := newTestBuilder(t, noFee(), nil, nil)

	tx, _, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "1")},
		{Asset: types.AssetNative, To: "3003", Amount: dec(t, "2")},
		{Asset: types.AssetNative, To: "4004", Amount: dec(t, "3")},
	}, Options{})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	var operatorLegs int
	for _, leg := range tx.Body.Transfers {
		if leg.Account == operatorID {
			operatorLegs++
		}
	}
	if operatorLegs != 1 {
		t.Errorf("operator debit legs = %d, want 1 aggregated leg", operatorLegs)
	}
	if got := legFor(t, tx, types.AssetNative, operatorID).Amount; got != -600_000_000 {
		t.Errorf("aggregated debit = %d, want -600000000", got)
	}
}

func TestBuild_DeterministicLegOrder(t *testing.T) {
	resolver := &staticResolver{decimals: map[types.AssetID]uint32{tokenAsset: 6}}

	build := func() *ledger.Transaction {
		b := newTestBuilder(t, noFee(), resolver, nil)
		tx, _, err := b.Build(context.Background(), []Instruction{
			{Asset: tokenAsset, To: "2002", Amount: dec(t, "1")},
			{Asset: types.AssetNative, To: "3003", Amount: dec(t, "2")},
			{Asset: types.AssetNative, From: "4004", To: "5005", Amount: dec(t, "3")},
		}, Options{})
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		return tx
	}

	first := build()
	second := build()
	if len(first.Body.Transfers) != len(second.Body.Transfers) {
		t.Fatal("leg counts differ across identical builds")
	}
	for i := range first.Body.Transfers {
		if first.Body.Transfers[i] != second.Body.Transfers[i] {
			t.Errorf("leg %d differs: %+v vs %+v", i, first.Body.Transfers[i], second.Body.Transfers[i])
		}
	}
}

func TestBuild_BalancePreflight(t *testing.T) {
	balances := staticBalances{types.AssetNative: "100"}

	t.Run("shortfall rejected", func(t *testing.T) {
		b := newTestBuilder(t, noFee(), nil, balances)
		_, _, err := b.Build(context.Background(), []Instruction{
			{Asset: types.AssetNative, To: "2002", Amount: dec(t, "150")},
		}, Options{})
		if err == nil {
			t.Fatal("Build() should reject a cached-balance shortfall")
		}

		var ib *InsufficientBalanceError
		if !errors.As(err, &ib) {
			t.Fatalf("error should wrap InsufficientBalanceError, got %v", err)
		}
		if !ib.Need.Equal(dec(t, "150")) || !ib.Have.Equal(dec(t, "100")) {
			t.Errorf("shortfall = need %s have %s", ib.Need, ib.Have)
		}
	})

	t.Run("sufficient balance passes", func(t *testing.T) {
		b := newTestBuilder(t, noFee(), nil, balances)
		if _, _, err := b.Build(context.Background(), []Instruction{
			{Asset: types.AssetNative, To: "2002", Amount: dec(t, "100")},
		}, Options{}); err != nil {
			t.Errorf("Build() error: %v", err)
		}
	})

	t.Run("unknown balance passes", func(t *testing.T) {
		b := newTestBuilder(t, noFee(), &staticResolver{decimals: map[types.AssetID]uint32{tokenAsset: 6}}, balances)
		if _, _, err := b.Build(context.Background(), []Instruction{
			{Asset: tokenAsset, To: "2002", Amount: dec(t, "9999")},
		}, Options{}); err != nil {
			t.Errorf("Build() should pass when no cached balance is known: %v", err)
		}
	})

	t.Run("override proceeds", func(t *testing.T) {
		b := newTestBuilder(t, noFee(), nil, balances)
		if _, _, err := b.Build(context.Background(), []Instruction{
			{Asset: types.AssetNative, To: "2002", Amount: dec(t, "150")},
		}, Options{AllowUnverifiedBalance: true}); err != nil {
			t.Errorf("Build() with AllowUnverifiedBalance error: %v", err)
		}
	})

	t.Run("delegated debits skip preflight", func(t *testing.T) {
		b := newTestBuilder(t, noFee(), nil, balances)
		if _, _, err := b.Build(context.Background(), []Instruction{
			{Asset: types.AssetNative, From: "4004", To: "2002", Amount: dec(t, "500")},
		}, Options{}); err != nil {
			t.Errorf("delegated transfers should not preflight the operator balance: %v", err)
		}
	})
}

func TestBuild_ScalingRoundTrip(t *testing.T) {
	// raw / 10^decimals reproduces the human amount within one raw unit.
	resolver := &staticResolver{decimals: map[types.AssetID]uint32{tokenAsset: 6}}
	b := newTestBuilder(t, noFee(), resolver, nil)

	amounts := []string{"1", "0.000001", "123456.654321", "0.5"}
	for _, a := range amounts {
		tx, _, err := b.Build(context.Background(), []Instruction{
			{Asset: tokenAsset, To: "2002", Amount: dec(t, a)},
		}, Options{})
		if err != nil {
			t.Fatalf("Build(%s) error: %v", a, err)
		}
		raw := legFor(t, tx, tokenAsset, "2002").Amount
		back := decimal.New(raw, -6)
		diff := back.Sub(dec(t, a)).Abs()
		if diff.GreaterThan(decimal.New(1, -6)) {
			t.Errorf("round trip of %s drifted by %s", a, diff)
		}
	}
}

func TestBuild_MemoAndMaxFee(t *testing.T) {
	b := newTestBuilder(t, noFee(), nil, nil)

	tx, _, err := b.Build(context.Background(), []Instruction{
		{Asset: types.AssetNative, To: "2002", Amount: dec(t, "1")},
	}, Options{Memo: "lunch", MaxFee: 42})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if tx.Body.Memo != "lunch" || tx.Body.MaxFee != 42 {
		t.Errorf("memo/maxfee = %q/%d", tx.Body.Memo, tx.Body.MaxFee)
	}
	if tx.Frozen() {
		t.Error("built transaction should not be frozen yet")
	}
}

func TestNewBuilder_Invalid(t *testing.T) {
	resolver := &staticResolver{}

	if _, err := NewBuilder("", noFee(), resolver.resolve, nil); err == nil {
		t.Error("missing operator should be rejected")
	}
	if _, err := NewBuilder(operatorID, noFee(), nil, nil); err == nil {
		t.Error("missing resolver should be rejected")
	}
	bad := fees.Spec{PercentageCut: decimal.NewFromInt(5)}
	if _, err := NewBuilder(operatorID, bad, resolver.resolve, nil); err == nil {
		t.Error("fee cut without collector should be rejected")
	}
}
