package strategy

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/signal"
)

func ret(sym string, pct string) signal.Return {
	return signal.Return{Symbol: sym, Pct: decimal.RequireFromString(pct)}
}

func TestRankSortsDescending(t *testing.T) {
	returns := []signal.Return{
		ret("CUSDT", "0"),
		ret("AUSDT", "0.10"),
		ret("EUSDT", "-0.10"),
		ret("DUSDT", "-0.05"),
		ret("BUSDT", "0.05"),
	}
	ranked, err := Rank(returns)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	want := []string{"AUSDT", "BUSDT", "CUSDT", "DUSDT", "EUSDT"}
	for i, sym := range want {
		if ranked[i].Symbol != sym {
			t.Fatalf("rank %d: expected %s, got %s", i, sym, ranked[i].Symbol)
		}
	}
}

func TestRankTieBreaksBySymbol(t *testing.T) {
	returns := []signal.Return{
		ret("ZZZUSDT", "0.05"),
		ret("AAAUSDT", "0.05"),
		ret("MMMUSDT", "0.05"),
	}
	ranked, err := Rank(returns)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	want := []string{"AAAUSDT", "MMMUSDT", "ZZZUSDT"}
	for i, sym := range want {
		if ranked[i].Symbol != sym {
			t.Fatalf("tie-break rank %d: expected %s, got %s", i, sym, ranked[i].Symbol)
		}
	}
}

func TestRankDeterministic(t *testing.T) {
	returns := []signal.Return{
		ret("BUSDT", "0.02"),
		ret("AUSDT", "0.02"),
		ret("CUSDT", "-0.01"),
	}
	first, err := Rank(returns)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	second, err := Rank(returns)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	for i := range first {
		if first[i].Symbol != second[i].Symbol {
			t.Fatalf("rank not deterministic at %d: %s vs %s", i, first[i].Symbol, second[i].Symbol)
		}
	}
}

func TestRankRejectsDuplicates(t *testing.T) {
	_, err := Rank([]signal.Return{ret("AUSDT", "0.1"), ret("AUSDT", "0.2")})
	if !errors.Is(err, ErrInvalidReturn) {
		t.Fatalf("expected ErrInvalidReturn, got %v", err)
	}
}

func TestRankRejectsEmptySymbol(t *testing.T) {
	_, err := Rank([]signal.Return{ret("", "0.1")})
	if !errors.Is(err, ErrInvalidReturn) {
		t.Fatalf("expected ErrInvalidReturn, got %v", err)
	}
}

func TestComputeTargetSelectsTopAndBottom(t *testing.T) {
	returns := []signal.Return{
		ret("AUSDT", "0.10"),
		ret("BUSDT", "0.05"),
		ret("CUSDT", "0"),
		ret("DUSDT", "-0.05"),
		ret("EUSDT", "-0.10"),
	}
	ranked, err := Rank(returns)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	targets, err := ComputeTarget(ranked, 1, 1, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("ComputeTarget returned error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	bySymbol := map[string]Target{}
	for _, tg := range targets {
		bySymbol[tg.Symbol] = tg
	}
	if bySymbol["AUSDT"].Side != Long {
		t.Fatalf("expected AUSDT long, got %+v", bySymbol["AUSDT"])
	}
	if bySymbol["EUSDT"].Side != Short {
		t.Fatalf("expected EUSDT short, got %+v", bySymbol["EUSDT"])
	}
	for _, sym := range []string{"BUSDT", "CUSDT", "DUSDT"} {
		if _, held := bySymbol[sym]; held {
			t.Fatalf("expected %s flat, found target", sym)
		}
	}
}

func TestComputeTargetCountsAndDisjoint(t *testing.T) {
	returns := make([]signal.Return, 0, 10)
	for _, r := range []struct{ sym, pct string }{
		{"AUSDT", "0.09"}, {"BUSDT", "0.07"}, {"CUSDT", "0.04"}, {"DUSDT", "0.02"},
		{"EUSDT", "0.01"}, {"FUSDT", "-0.01"}, {"GUSDT", "-0.02"}, {"HUSDT", "-0.04"},
		{"IUSDT", "-0.07"}, {"JUSDT", "-0.09"},
	} {
		returns = append(returns, ret(r.sym, r.pct))
	}
	ranked, err := Rank(returns)
	if err != nil {
		t.Fatalf("Rank returned error: %v", err)
	}
	targets, err := ComputeTarget(ranked, 2, 2, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("ComputeTarget returned error: %v", err)
	}
	longs, shorts := 0, 0
	seen := map[string]struct{}{}
	for _, tg := range targets {
		if _, dup := seen[tg.Symbol]; dup {
			t.Fatalf("long and short sets not disjoint: %s", tg.Symbol)
		}
		seen[tg.Symbol] = struct{}{}
		switch tg.Side {
		case Long:
			longs++
		case Short:
			shorts++
		}
	}
	if longs != 2 || shorts != 2 {
		t.Fatalf("expected exactly 2 longs and 2 shorts, got %d/%d", longs, shorts)
	}
}

func TestComputeTargetNotionalApplied(t *testing.T) {
	ranked := []signal.Return{ret("AUSDT", "0.1"), ret("BUSDT", "-0.1")}
	notional := decimal.NewFromInt(200)
	targets, err := ComputeTarget(ranked, 1, 1, notional)
	if err != nil {
		t.Fatalf("ComputeTarget returned error: %v", err)
	}
	for _, tg := range targets {
		if !tg.NotionalUSD.Equal(notional) {
			t.Fatalf("expected notional 200 for %s, got %s", tg.Symbol, tg.NotionalUSD)
		}
	}
}

func TestComputeTargetInsufficientData(t *testing.T) {
	ranked := []signal.Return{ret("AUSDT", "0.1"), ret("BUSDT", "-0.1"), ret("CUSDT", "0")}
	_, err := ComputeTarget(ranked, 2, 2, decimal.NewFromInt(200))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComputeTargetExactFit(t *testing.T) {
	ranked := []signal.Return{ret("AUSDT", "0.1"), ret("BUSDT", "-0.1")}
	targets, err := ComputeTarget(ranked, 1, 1, decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("ComputeTarget returned error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets on exact fit, got %d", len(targets))
	}
}
