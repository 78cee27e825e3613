package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

type ChannelRepo struct {
	mu       sync.RWMutex
	channels map[string]domain.Channel
}

func NewChannelRepo() *ChannelRepo {
	return &ChannelRepo{channels: make(map[string]domain.Channel)}
}

func (r *ChannelRepo) Create(_ context.Context, ch *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[ch.ChannelID]; ok {
		return repository.ErrExists
	}
	c := *ch
	c.Participants = slices.Clone(ch.Participants)
	r.channels[ch.ChannelID] = c
	return nil
}

func (r *ChannelRepo) GetByID(_ context.Context, id string) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (r *ChannelRepo) ListPublic(_ context.Context) ([]domain.Channel, error) {
	return r.filter(func(c domain.Channel) bool { return !c.IsDM }), nil
}

func (r *ChannelRepo) ListDMs(_ context.Context, userID string) ([]domain.Channel, error) {
	return r.filter(func(c domain.Channel) bool { return c.IsDM && c.HasParticipant(userID) }), nil
}

func (r *ChannelRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, id)
	return nil
}

func (r *ChannelRepo) filter(keep func(domain.Channel) bool) []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Channel
	for _, c := range r.channels {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}
