package app_test

import (
	"context"
	"testing"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/infra/memory"
	"odyssey-quiz-service/internal/logger"
)

func TestCreditAccumulates(t *testing.T) {
	ctx := context.Background()
	ledger := app.NewLedger(memory.NewStore(), testUsers(), logger.NewNop())

	if total, err := ledger.Credit(ctx, 1, 10); err != nil || total != 10 {
		t.Fatalf("first credit: total=%d err=%v", total, err)
	}
	if total, err := ledger.Credit(ctx, 1, 25); err != nil || total != 35 {
		t.Fatalf("second credit: total=%d err=%v", total, err)
	}

	total, err := ledger.Total(ctx, 1)
	if err != nil || total != 35 {
		t.Fatalf("total: %d err=%v", total, err)
	}
}

func TestTotalIsZeroForUnknownUser(t *testing.T) {
	ledger := app.NewLedger(memory.NewStore(), testUsers(), logger.NewNop())
	total, err := ledger.Total(context.Background(), 99)
	if err != nil || total != 0 {
		t.Fatalf("expected zero total, got %d err=%v", total, err)
	}
}

func TestTopRanksByPoints(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ledger := app.NewLedger(store, testUsers(), logger.NewNop())

	ledger.Credit(ctx, 1, 30)
	ledger.Credit(ctx, 2, 50)
	ledger.Credit(ctx, 7, 50) // not in the directory

	entries, err := ledger.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].UserID != 2 || entries[0].Rank != 1 || entries[0].Username != "bob" {
		t.Fatalf("unexpected leader: %+v", entries[0])
	}
	// Tie broken by user id.
	if entries[1].UserID != 7 || entries[1].Rank != 2 {
		t.Fatalf("unexpected second place: %+v", entries[1])
	}
	if entries[1].Username != "Unknown" {
		t.Fatalf("unresolvable user should show as Unknown, got %q", entries[1].Username)
	}
	if entries[2].UserID != 1 || entries[2].Rank != 3 {
		t.Fatalf("unexpected third place: %+v", entries[2])
	}
}

func TestTopRespectsLimit(t *testing.T) {
	ctx := context.Background()
	ledger := app.NewLedger(memory.NewStore(), testUsers(), logger.NewNop())
	for id := int64(1); id <= 5; id++ {
		ledger.Credit(ctx, id, int(id)*10)
	}

	entries, err := ledger.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestTiersLadder(t *testing.T) {
	ledger := app.NewLedger(memory.NewStore(), testUsers(), logger.NewNop())
	tiers := ledger.Tiers()
	if len(tiers) != 4 {
		t.Fatalf("expected 4 tiers, got %d", len(tiers))
	}
	if tiers[0].Name != "Radiant" || tiers[0].Capacity != 10 {
		t.Fatalf("unexpected top tier: %+v", tiers[0])
	}
	if tiers[3].Name != "Participant" {
		t.Fatalf("unexpected bottom tier: %+v", tiers[3])
	}
}

func TestSnapshotsFor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedSnapshots([]domain.LeaderboardSnapshot{
		{ID: 1, SnapshotDate: "2025-06-14", UserID: 1, Rank: 1, Tier: "Radiant"},
		{ID: 2, SnapshotDate: "2025-06-13", UserID: 2, Rank: 1, Tier: "Radiant"},
	})
	ledger := app.NewLedger(store, testUsers(), logger.NewNop())

	snaps, err := ledger.SnapshotsFor(ctx, "2025-06-14")
	if err != nil {
		t.Fatalf("snapshots failed: %v", err)
	}
	if len(snaps) != 1 || snaps[0].UserID != 1 {
		t.Fatalf("unexpected snapshots: %+v", snaps)
	}
}
