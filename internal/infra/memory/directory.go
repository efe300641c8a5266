package memory

import (
	"context"
	"sync"

	"odyssey-quiz-service/internal/domain"
)

// Directory is a static in-process user directory, seeded from config or
// tests. Lookups are read-only.
type Directory struct {
	mu      sync.RWMutex
	byEmail map[string]domain.User
	byID    map[int64]domain.User
}

func NewDirectory(users []domain.User) *Directory {
	d := &Directory{
		byEmail: make(map[string]domain.User, len(users)),
		byID:    make(map[int64]domain.User, len(users)),
	}
	for _, user := range users {
		d.byEmail[user.Email] = user
		d.byID[user.ID] = user
	}
	return d
}

func (d *Directory) UserByEmail(_ context.Context, email string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (d *Directory) UserByID(_ context.Context, id int64) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}
