package app

import (
	"sync"

	"odyssey-quiz-service/internal/domain"
)

// Feed fans leaderboard updates out to live subscribers (the websocket
// transport). Publishing never blocks: a slow subscriber has its stale update
// replaced by the newest one.
type Feed struct {
	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan []domain.LeaderboardEntry]struct{})}
}

// Subscribe returns a channel of leaderboard updates and a cancel function
// the caller must invoke to avoid leaks.
func (f *Feed) Subscribe() (<-chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers entries to every subscriber, dropping the oldest queued
// update when a subscriber's buffer is full.
func (f *Feed) Publish(entries []domain.LeaderboardEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- entries:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}
