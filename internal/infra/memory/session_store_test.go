package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"odyssey-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if err := store.Create(ctx, "tok-1", 7, time.Hour); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	userID, err := store.Resolve(ctx, "tok-1")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if userID != 7 {
		t.Fatalf("expected user 7, got %d", userID)
	}

	if _, err := store.Resolve(ctx, "tok-unknown"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session-not-found, got %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	if err := store.Create(ctx, "tok-1", 7, time.Minute); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Resolve(ctx, "tok-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}
}
