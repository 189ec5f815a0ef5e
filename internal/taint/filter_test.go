package taint

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func lc(coin string, start time.Time, end *time.Time, builder, manual bool) models.Lifecycle {
	return models.Lifecycle{
		Account:         "0xabc",
		Coin:            coin,
		StartTime:       start,
		EndTime:         end,
		HasBuilderFills: builder,
		HasManualFills:  manual,
	}
}

func attributedFill(coin string, at time.Time) models.Fill {
	fee := decimal.NewFromFloat(0.02)
	return models.Fill{
		Account:    "0xabc",
		Coin:       coin,
		Direction:  models.DirectionBuy,
		Price:      decimal.NewFromInt(100),
		Size:       decimal.NewFromInt(1),
		BuilderFee: &fee,
		FilledAt:   at,
	}
}

func manualFill(coin string, at time.Time) models.Fill {
	f := attributedFill(coin, at)
	f.BuilderFee = nil
	return f
}

func TestTainted_RequiresBothKinds(t *testing.T) {
	if Tainted(lc("BTC", t0, nil, true, false)) {
		t.Fatalf("builder-only lifecycle must not be tainted")
	}
	if Tainted(lc("BTC", t0, nil, false, true)) {
		t.Fatalf("manual-only lifecycle must not be tainted")
	}
	if Tainted(lc("BTC", t0, nil, false, false)) {
		t.Fatalf("empty flags must not be tainted")
	}
	if !Tainted(lc("BTC", t0, nil, true, true)) {
		t.Fatalf("mixed lifecycle must be tainted")
	}
}

func TestFilterFills_TaintedLifecycleExcludesAllFills(t *testing.T) {
	// One attributed buy, one manual buy, one attributed closing sell: all
	// three fills fall inside the tainted interval and are excluded, even
	// though two of them individually carry positive builder fees.
	end := t0.Add(2 * time.Minute)
	lifecycles := []models.Lifecycle{lc("BTC", t0, &end, true, true)}
	fills := []models.Fill{
		attributedFill("BTC", t0),
		manualFill("BTC", t0.Add(time.Minute)),
		attributedFill("BTC", end),
	}
	got := FilterFills(fills, lifecycles)
	if len(got) != 0 {
		t.Fatalf("visible fills=%d want 0", len(got))
	}
}

func TestFilterFills_CleanAttributedFillsPass(t *testing.T) {
	end := t0.Add(time.Minute)
	lifecycles := []models.Lifecycle{lc("BTC", t0, &end, true, false)}
	fills := []models.Fill{
		attributedFill("BTC", t0),
		attributedFill("BTC", end),
		manualFill("BTC", t0.Add(30*time.Second)),
	}
	got := FilterFills(fills, lifecycles)
	if len(got) != 2 {
		t.Fatalf("visible fills=%d want 2 (manual fill dropped by per-fill check)", len(got))
	}
}

func TestFilterFills_OpenEndedIntervalExtendsForever(t *testing.T) {
	lifecycles := []models.Lifecycle{lc("BTC", t0, nil, true, true)}
	fills := []models.Fill{
		attributedFill("BTC", t0.Add(365 * 24 * time.Hour)),
	}
	got := FilterFills(fills, lifecycles)
	if len(got) != 0 {
		t.Fatalf("fill inside open-ended tainted interval must be excluded")
	}
}

func TestFilterFills_PerInstrumentIsolation(t *testing.T) {
	lifecycles := []models.Lifecycle{
		lc("BTC", t0, nil, true, true),
		lc("ETH", t0, nil, true, false),
	}
	fills := []models.Fill{
		attributedFill("BTC", t0.Add(time.Minute)),
		attributedFill("ETH", t0.Add(time.Minute)),
	}
	got := FilterFills(fills, lifecycles)
	if len(got) != 1 || got[0].Coin != "ETH" {
		t.Fatalf("got=%v want only the ETH fill", got)
	}
}

func TestFilterSnapshots_OnlyInsideCleanLifecycles(t *testing.T) {
	end := t0.Add(time.Hour)
	lifecycles := []models.Lifecycle{
		lc("BTC", t0, &end, true, false),
		lc("BTC", t0.Add(2*time.Hour), nil, true, true),
	}
	snaps := []models.PositionSnapshot{
		{Coin: "BTC", SnapshotAt: t0.Add(30 * time.Minute)},           // inside clean
		{Coin: "BTC", SnapshotAt: t0.Add(90 * time.Minute)},           // between lifecycles
		{Coin: "BTC", SnapshotAt: t0.Add(3 * time.Hour)},              // inside tainted
		{Coin: "ETH", SnapshotAt: t0.Add(30 * time.Minute)},           // no lifecycle at all
		{Coin: "BTC", SnapshotAt: end},                                // closing boundary is inclusive
	}
	got := FilterSnapshots(snaps, lifecycles)
	if len(got) != 2 {
		t.Fatalf("visible snapshots=%d want 2", len(got))
	}
	if !got[0].SnapshotAt.Equal(t0.Add(30*time.Minute)) || !got[1].SnapshotAt.Equal(end) {
		t.Fatalf("unexpected visible snapshots: %v", got)
	}
}

func TestHasTaint(t *testing.T) {
	if HasTaint([]models.Lifecycle{lc("BTC", t0, nil, true, false)}) {
		t.Fatalf("clean set reported tainted")
	}
	set := []models.Lifecycle{
		lc("BTC", t0, nil, true, false),
		lc("ETH", t0, nil, true, true),
	}
	if !HasTaint(set) {
		t.Fatalf("set with one tainted lifecycle not reported")
	}
}
