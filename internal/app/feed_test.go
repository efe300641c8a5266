package app_test

import (
	"testing"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
)

func TestFeedDeliversToSubscribers(t *testing.T) {
	feed := app.NewFeed()
	ch1, cancel1 := feed.Subscribe()
	defer cancel1()
	ch2, cancel2 := feed.Subscribe()
	defer cancel2()

	entries := []domain.LeaderboardEntry{{Rank: 1, UserID: 1, Username: "alice", TotalPoints: 10}}
	feed.Publish(entries)

	for i, ch := range []<-chan []domain.LeaderboardEntry{ch1, ch2} {
		got := <-ch
		if len(got) != 1 || got[0].UserID != 1 {
			t.Fatalf("subscriber %d got %+v", i, got)
		}
	}
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	feed := app.NewFeed()
	ch, cancel := feed.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after cancel")
	}
	// Publishing after cancel must not panic.
	feed.Publish(nil)
	cancel() // double cancel is safe
}

func TestFeedDropsStaleUpdates(t *testing.T) {
	feed := app.NewFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	// Overfill the subscriber buffer; Publish must not block.
	for i := 0; i < 20; i++ {
		feed.Publish([]domain.LeaderboardEntry{{Rank: 1, UserID: int64(i)}})
	}

	var last []domain.LeaderboardEntry
	for {
		select {
		case entries := <-ch:
			last = entries
			continue
		default:
		}
		break
	}
	if len(last) != 1 || last[0].UserID != 19 {
		t.Fatalf("expected newest update to survive, got %+v", last)
	}
}
