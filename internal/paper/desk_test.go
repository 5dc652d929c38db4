package paper

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/whoareyou40/longshort/internal/rebalance"
	"github.com/whoareyou40/longshort/internal/signal"
)

type fixedPricer struct {
	book signal.PriceBook
}

func (p fixedPricer) MarkPrices(_ context.Context, symbols []string) (signal.PriceBook, error) {
	out := make(signal.PriceBook, len(symbols))
	for _, sym := range symbols {
		if price, ok := p.book[sym]; ok {
			out[sym] = price
		}
	}
	return out, nil
}

func TestDeskFillsOpenAndClose(t *testing.T) {
	account := NewAccount(dec("1000"))
	ledger := NewLedger(4)
	desk := NewDesk(account, fixedPricer{signal.PriceBook{"EUSDT": dec("50")}}, ledger, zerolog.Nop())
	ctx := context.Background()

	err := desk.Submit(ctx, rebalance.Instruction{Symbol: "EUSDT", Action: rebalance.OpenShort, Quantity: dec("4")})
	if err != nil {
		t.Fatalf("Submit open returned error: %v", err)
	}
	if !account.Position("EUSDT").Equal(dec("-4")) {
		t.Fatalf("expected short 4, got %s", account.Position("EUSDT"))
	}

	err = desk.Submit(ctx, rebalance.Instruction{Symbol: "EUSDT", Action: rebalance.Close, Quantity: dec("4"), ReduceOnly: true, CloseShort: true})
	if err != nil {
		t.Fatalf("Submit close returned error: %v", err)
	}
	if !account.Position("EUSDT").IsZero() {
		t.Fatalf("expected flat after close")
	}

	fills := ledger.Snapshot()
	if len(fills) != 2 {
		t.Fatalf("expected 2 recorded fills, got %d", len(fills))
	}
	if fills[0].Action != string(rebalance.OpenShort) || fills[1].Action != string(rebalance.Close) {
		t.Fatalf("unexpected fill actions: %+v", fills)
	}
}

func TestDeskRejectsUnpricedSymbol(t *testing.T) {
	account := NewAccount(dec("1000"))
	desk := NewDesk(account, fixedPricer{signal.PriceBook{}}, nil, zerolog.Nop())

	err := desk.Submit(context.Background(), rebalance.Instruction{Symbol: "AUSDT", Action: rebalance.OpenLong, Quantity: dec("1")})
	if err == nil {
		t.Fatalf("expected fill price error")
	}
	if len(account.OpenPositions()) != 0 {
		t.Fatalf("failed fill must not mutate the account")
	}
}

func TestDeskReportsPositions(t *testing.T) {
	account := NewAccount(dec("1000"))
	desk := NewDesk(account, fixedPricer{signal.PriceBook{"AUSDT": dec("10")}}, nil, zerolog.Nop())
	ctx := context.Background()

	if err := desk.Submit(ctx, rebalance.Instruction{Symbol: "AUSDT", Action: rebalance.OpenLong, Quantity: dec("2")}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	positions, err := desk.OpenPositions(ctx)
	if err != nil {
		t.Fatalf("OpenPositions returned error: %v", err)
	}
	if len(positions) != 1 || positions[0].Symbol != "AUSDT" {
		t.Fatalf("unexpected positions: %+v", positions)
	}
}
