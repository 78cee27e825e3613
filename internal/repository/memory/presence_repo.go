package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vedran77/teamchat/internal/domain"
)

// PresenceRepo keeps presence in process memory. Used when no Postgres DSN
// is configured; state is lost on restart.
type PresenceRepo struct {
	mu    sync.RWMutex
	byUID map[string]domain.Presence
}

func NewPresenceRepo() *PresenceRepo {
	return &PresenceRepo{byUID: make(map[string]domain.Presence)}
}

func (r *PresenceRepo) Set(_ context.Context, p *domain.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUID[p.UserID] = *p
	return nil
}

func (r *PresenceRepo) Get(_ context.Context, userID string) (*domain.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byUID[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PresenceRepo) ListOnline(_ context.Context) ([]domain.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []domain.Presence
	for _, p := range r.byUID {
		if p.Status != domain.PresenceOffline {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].LastChanged.After(list[j].LastChanged)
	})
	return list, nil
}
