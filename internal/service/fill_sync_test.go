package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradeaudit/internal/models"
)

// testBase stays inside the sync lookback window regardless of wall clock.
var testBase = time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Minute)

func testFill(id, account, coin, side string, px, sz int64, at time.Time, builder bool, pnl *int64) models.Fill {
	f := models.Fill{
		Account:    account,
		Coin:       coin,
		Direction:  side,
		Price:      decimal.NewFromInt(px),
		Size:       decimal.NewFromInt(sz),
		Fee:        decimal.NewFromInt(1),
		ExternalID: id,
		FilledAt:   at,
	}
	if builder {
		bf := decimal.NewFromFloat(0.1)
		f.BuilderFee = &bf
	}
	if pnl != nil {
		v := decimal.NewFromInt(*pnl)
		f.ClosedPnL = &v
	}
	return f
}

func int64Ptr(v int64) *int64 { return &v }

func TestSync_IngestsAndRebuilds(t *testing.T) {
	repo := newStubRepo()
	source := &stubSource{
		fills: map[string][]models.Fill{
			"0xa": {
				testFill("t1", "0xa", "ETH", models.DirectionBuy, 2000, 1, testBase, true, nil),
				testFill("t2", "0xa", "ETH", models.DirectionSell, 2100, 1, testBase.Add(time.Minute), true, int64Ptr(100)),
			},
		},
		deposits: map[string][]models.Deposit{
			"0xa": {{Account: "0xa", Amount: decimal.NewFromInt(5000), ExternalID: "d1", DepositedAt: testBase.Add(-time.Hour)}},
		},
	}
	svc := &FillSyncService{Store: repo, Source: source, LookbackDays: 30}

	result, err := svc.Sync(context.Background(), SyncOptions{Accounts: []string{"0xa"}})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.RunID == "" {
		t.Fatalf("run id is empty")
	}
	if result.Fills != 2 || result.Deposits != 1 {
		t.Fatalf("fills=%d deposits=%d want 2,1", result.Fills, result.Deposits)
	}
	if len(repo.fills) != 2 {
		t.Fatalf("stored fills=%d want 2", len(repo.fills))
	}
	if len(repo.snapshots) != 2 {
		t.Fatalf("stored snapshots=%d want 2", len(repo.snapshots))
	}
	if len(repo.lifecycles) != 1 {
		t.Fatalf("stored lifecycles=%d want 1", len(repo.lifecycles))
	}
	for _, lc := range repo.lifecycles {
		if lc.Open() {
			t.Fatalf("lifecycle should be closed")
		}
		if !lc.HasBuilderFills || lc.HasManualFills {
			t.Fatalf("flags builder=%v manual=%v want true,false", lc.HasBuilderFills, lc.HasManualFills)
		}
	}

	state, err := repo.GetSyncState(context.Background(), "fills:0xa")
	if err != nil || state == nil {
		t.Fatalf("sync state missing: %v", err)
	}
	if state.WatermarkTS == nil || !state.WatermarkTS.Equal(testBase.Add(time.Minute)) {
		t.Fatalf("watermark=%v want %v", state.WatermarkTS, testBase.Add(time.Minute))
	}
	if state.LastError != nil {
		t.Fatalf("last error should be nil, got %q", *state.LastError)
	}
}

func TestSync_ReRunIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	source := &stubSource{
		fills: map[string][]models.Fill{
			"0xa": {
				testFill("t1", "0xa", "ETH", models.DirectionBuy, 2000, 2, testBase, true, nil),
				testFill("t2", "0xa", "ETH", models.DirectionSell, 2100, 2, testBase.Add(time.Minute), true, int64Ptr(200)),
			},
		},
	}
	svc := &FillSyncService{Store: repo, Source: source, LookbackDays: 30}

	for i := 0; i < 2; i++ {
		if _, err := svc.Sync(context.Background(), SyncOptions{Accounts: []string{"0xa"}, Full: true}); err != nil {
			t.Fatalf("Sync pass %d: %v", i, err)
		}
	}
	if len(repo.fills) != 2 || len(repo.snapshots) != 2 || len(repo.lifecycles) != 1 {
		t.Fatalf("fills=%d snapshots=%d lifecycles=%d want 2,2,1",
			len(repo.fills), len(repo.snapshots), len(repo.lifecycles))
	}
}

func TestSync_RemovesStaleLifecycles(t *testing.T) {
	repo := newStubRepo()
	source := &stubSource{
		fills: map[string][]models.Fill{
			"0xa": {
				testFill("t1", "0xa", "ETH", models.DirectionBuy, 2000, 1, testBase, true, nil),
				testFill("t2", "0xa", "ETH", models.DirectionSell, 2100, 1, testBase.Add(time.Minute), true, int64Ptr(100)),
			},
		},
	}
	svc := &FillSyncService{Store: repo, Source: source, LookbackDays: 30}
	if _, err := svc.Sync(context.Background(), SyncOptions{Accounts: []string{"0xa"}}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// A leftover row from an earlier pass whose boundary no replay produces.
	bogusStart := testBase.Add(-24 * time.Hour)
	repo.lifecycles[snapKey("0xa", "ETH", bogusStart)] = models.Lifecycle{
		Account: "0xa", Coin: "ETH", StartTime: bogusStart,
	}

	result, err := svc.Sync(context.Background(), SyncOptions{Accounts: []string{"0xa"}, Full: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Stale != 1 {
		t.Fatalf("stale=%d want 1", result.Stale)
	}
	if len(repo.lifecycles) != 1 {
		t.Fatalf("lifecycles=%d want 1", len(repo.lifecycles))
	}
}

func TestSync_NoAccounts(t *testing.T) {
	svc := &FillSyncService{Store: newStubRepo(), Source: &stubSource{}}
	if _, err := svc.Sync(context.Background(), SyncOptions{}); err == nil {
		t.Fatalf("expected error for empty account list")
	}
}
