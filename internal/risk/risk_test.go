package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/whoareyou40/longshort/internal/rebalance"
	"github.com/whoareyou40/longshort/internal/signal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAllow(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: dec("50")}
	if !limits.Allow(dec("49.9")) {
		t.Fatalf("expected notional under limit to pass")
	}
	if limits.Allow(dec("50.1")) {
		t.Fatalf("expected notional above limit to fail")
	}
}

func TestAllowZeroCapDisabled(t *testing.T) {
	limits := Limits{}
	if !limits.Allow(dec("1000000")) {
		t.Fatalf("zero cap should disable the check")
	}
}

func TestCheckBatchRejectsTooManyOpens(t *testing.T) {
	limits := Limits{MaxPositions: 1}
	ins := []rebalance.Instruction{
		{Symbol: "AUSDT", Action: rebalance.OpenLong, Quantity: dec("1")},
		{Symbol: "BUSDT", Action: rebalance.OpenShort, Quantity: dec("1")},
	}
	prices := signal.PriceBook{"AUSDT": dec("10"), "BUSDT": dec("10")}
	if err := limits.CheckBatch(ins, prices); err == nil {
		t.Fatalf("expected max positions rejection")
	}
}

func TestCheckBatchIgnoresCloses(t *testing.T) {
	limits := Limits{MaxPositions: 1, MaxNotionalPerTrade: dec("5")}
	ins := []rebalance.Instruction{
		{Symbol: "AUSDT", Action: rebalance.Close, Quantity: dec("100"), ReduceOnly: true},
		{Symbol: "BUSDT", Action: rebalance.Close, Quantity: dec("100"), ReduceOnly: true, CloseShort: true},
	}
	if err := limits.CheckBatch(ins, nil); err != nil {
		t.Fatalf("closes must always pass, got %v", err)
	}
}

func TestCheckBatchPerTradeCap(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: dec("100")}
	ins := []rebalance.Instruction{{Symbol: "AUSDT", Action: rebalance.OpenLong, Quantity: dec("11")}}
	prices := signal.PriceBook{"AUSDT": dec("10")}
	if err := limits.CheckBatch(ins, prices); err == nil {
		t.Fatalf("expected per-trade cap rejection at notional 110")
	}
}

func TestCheckBatchPortfolioCap(t *testing.T) {
	limits := Limits{MaxPortfolioNotional: dec("150")}
	ins := []rebalance.Instruction{
		{Symbol: "AUSDT", Action: rebalance.OpenLong, Quantity: dec("10")},
		{Symbol: "BUSDT", Action: rebalance.OpenShort, Quantity: dec("10")},
	}
	prices := signal.PriceBook{"AUSDT": dec("10"), "BUSDT": dec("10")}
	if err := limits.CheckBatch(ins, prices); err == nil {
		t.Fatalf("expected portfolio cap rejection at notional 200")
	}
}

func TestCheckBatchMissingPrice(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: dec("100")}
	ins := []rebalance.Instruction{{Symbol: "AUSDT", Action: rebalance.OpenLong, Quantity: dec("1")}}
	if err := limits.CheckBatch(ins, signal.PriceBook{}); err == nil {
		t.Fatalf("expected error for unpriceable open")
	}
}
