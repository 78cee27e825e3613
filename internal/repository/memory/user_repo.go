package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vedran77/teamchat/internal/domain"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]domain.User)}
}

func (r *UserRepo) Put(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = *user
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt < users[j].CreatedAt })
	return users, nil
}
