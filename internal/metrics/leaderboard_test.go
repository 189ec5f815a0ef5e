package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
)

func row(account string, volume, pnl, ret int64) AccountSummary {
	return AccountSummary{
		Account: account,
		Summary: Summary{
			TradingVolume: decimal.NewFromInt(volume),
			RealizedPnL:   decimal.NewFromInt(pnl),
			ReturnPct:     decimal.NewFromInt(ret),
		},
	}
}

func TestRank_DescendingDense(t *testing.T) {
	rows := []AccountSummary{
		row("a", 100, 10, 1),
		row("b", 300, 30, 3),
		row("c", 200, 20, 2),
	}
	got := Rank(rows, MetricVolume)
	if got[0].Account != "b" || got[1].Account != "c" || got[2].Account != "a" {
		t.Fatalf("order=%s,%s,%s want b,c,a", got[0].Account, got[1].Account, got[2].Account)
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].Rank != want {
			t.Fatalf("rank[%d]=%d want %d", i, got[i].Rank, want)
		}
	}
}

func TestRank_TiesShareDenseRankAndKeepInputOrder(t *testing.T) {
	rows := []AccountSummary{
		row("a", 0, 50, 0),
		row("b", 0, 100, 0),
		row("c", 0, 100, 0),
		row("d", 0, 10, 0),
	}
	got := Rank(rows, MetricRealizedPnL)
	if got[0].Account != "b" || got[1].Account != "c" {
		t.Fatalf("tied accounts must keep input order, got %s,%s", got[0].Account, got[1].Account)
	}
	if got[0].Rank != 1 || got[1].Rank != 1 {
		t.Fatalf("tied ranks=%d,%d want 1,1", got[0].Rank, got[1].Rank)
	}
	if got[2].Rank != 2 || got[3].Rank != 3 {
		t.Fatalf("dense ranks=%d,%d want 2,3", got[2].Rank, got[3].Rank)
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric(""); err != nil || m != MetricReturnPct {
		t.Fatalf("empty metric should default to return, got %v %v", m, err)
	}
	if m, err := ParseMetric("Volume"); err != nil || m != MetricVolume {
		t.Fatalf("volume parse failed: %v %v", m, err)
	}
	if _, err := ParseMetric("sharpe"); err == nil {
		t.Fatalf("unknown metric must error")
	}
}
