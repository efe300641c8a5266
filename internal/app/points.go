package app

import (
	"context"

	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// LeaderboardSize is how many users the public leaderboard shows.
const LeaderboardSize = 100

// Ledger accumulates per-user points across quizzes and serves the
// leaderboard read paths. Totals only ever increase.
type Ledger struct {
	store Store
	users Directory
	log   *logger.Logger
}

func NewLedger(store Store, users Directory, log *logger.Logger) *Ledger {
	return &Ledger{
		store: store,
		users: users,
		log:   log.With("service", "ledger"),
	}
}

// Credit adds delta to the user's running total, creating the row on first
// use, and returns the new total. The increment is atomic at the store level.
func (l *Ledger) Credit(ctx context.Context, userID int64, delta int) (int64, error) {
	return l.store.CreditPoints(ctx, userID, delta)
}

// Total returns the user's running total, zero when the user never scored.
func (l *Ledger) Total(ctx context.Context, userID int64) (int64, error) {
	return l.store.TotalPoints(ctx, userID)
}

// Top returns the highest-scoring users as ranked leaderboard entries.
func (l *Ledger) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	points, err := l.store.TopPoints(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(points))
	for i, up := range points {
		username := "Unknown"
		if user, err := l.users.UserByID(ctx, up.UserID); err == nil {
			username = user.Username
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      up.UserID,
			Username:    username,
			TotalPoints: up.TotalPoints,
		})
	}
	return entries, nil
}

// Tiers returns the static leaderboard tier ladder.
func (l *Ledger) Tiers() []domain.Tier {
	return []domain.Tier{
		{Name: "Radiant", Capacity: 10},
		{Name: "Immortal", Capacity: 25},
		{Name: "Guardian", Capacity: 50},
		{Name: "Participant", Capacity: 999999},
	}
}

// SnapshotsFor reads historical leaderboard snapshots for a date. Nothing in
// this service writes snapshots yet; the read path exists for the historical
// leaderboard UI.
func (l *Ledger) SnapshotsFor(ctx context.Context, date string) ([]domain.LeaderboardSnapshot, error) {
	return l.store.SnapshotsByDate(ctx, date)
}
