package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/qaportal/internal/domain/user"
)

type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User // id -> user
	byEmail map[string]string    // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.items[id], nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) ListByRole(_ context.Context, role string) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0)
	for _, u := range r.items {
		if u.Role == role {
			out = append(out, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UsersRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	r.items[id] = u
	return nil
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *UsersRepo) Ping(context.Context) error { return nil }
