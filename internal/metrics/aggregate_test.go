package metrics

import (
	"testing"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fillWithPnL(price, size int64, pnl *decimal.Decimal) models.Fill {
	return models.Fill{
		Price:     dec(price),
		Size:      dec(size),
		Fee:       decimal.NewFromFloat(0.5),
		ClosedPnL: pnl,
	}
}

func TestAggregate_Sums(t *testing.T) {
	pnl1 := dec(100)
	pnl2 := dec(-40)
	fills := []models.Fill{
		fillWithPnL(50000, 1, &pnl1),
		fillWithPnL(51000, 2, &pnl2),
		fillWithPnL(52000, 1, nil), // missing contribution counts as zero
	}
	sum := Aggregate(fills)
	if sum.RealizedPnL.Cmp(dec(60)) != 0 {
		t.Fatalf("realizedPnl=%s want 60", sum.RealizedPnL)
	}
	if sum.TradeCount != 3 {
		t.Fatalf("tradeCount=%d want 3", sum.TradeCount)
	}
	if sum.FeesPaid.Cmp(decimal.NewFromFloat(1.5)) != 0 {
		t.Fatalf("feesPaid=%s want 1.5", sum.FeesPaid)
	}
	// 50000 + 102000 + 52000
	if sum.TradingVolume.Cmp(dec(204000)) != 0 {
		t.Fatalf("volume=%s want 204000", sum.TradingVolume)
	}
}

func TestCompute_ReturnCap(t *testing.T) {
	pnl := dec(5000)
	fills := []models.Fill{fillWithPnL(1, 1, &pnl)}
	cap := dec(10000)
	sum := Compute(fills, dec(1000000), &cap)
	if sum.ReturnPct.Cmp(dec(50)) != 0 {
		t.Fatalf("returnPct=%s want 50 (capped base), not 0.5", sum.ReturnPct)
	}
	if sum.EffectiveCapital.Cmp(cap) != 0 {
		t.Fatalf("effectiveCapital=%s want %s", sum.EffectiveCapital, cap)
	}
}

func TestCompute_UncappedUsesEquity(t *testing.T) {
	pnl := dec(5000)
	fills := []models.Fill{fillWithPnL(1, 1, &pnl)}
	sum := Compute(fills, dec(100000), nil)
	if sum.ReturnPct.Cmp(dec(5)) != 0 {
		t.Fatalf("returnPct=%s want 5", sum.ReturnPct)
	}
}

func TestCompute_NonPositiveEquityYieldsZero(t *testing.T) {
	pnl := dec(5000)
	fills := []models.Fill{fillWithPnL(1, 1, &pnl)}
	for _, equity := range []decimal.Decimal{decimal.Zero, dec(-100)} {
		sum := Compute(fills, equity, nil)
		if !sum.ReturnPct.IsZero() {
			t.Fatalf("returnPct=%s want 0 for equity=%s", sum.ReturnPct, equity)
		}
	}
}
