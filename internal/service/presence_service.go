package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

var ErrInvalidPresence = errors.New("presence status must be online, away or offline")

type PresenceService struct {
	presenceRepo repository.PresenceRepository
	notifier     Notifier
	now          func() time.Time
}

func NewPresenceService(presenceRepo repository.PresenceRepository) *PresenceService {
	return &PresenceService{presenceRepo: presenceRepo, now: time.Now}
}

func (s *PresenceService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *PresenceService) Set(ctx context.Context, userID, status string) (*domain.Presence, error) {
	if !domain.ValidPresence(status) {
		return nil, ErrInvalidPresence
	}

	p := &domain.Presence{UserID: userID, Status: status, LastChanged: s.now().UTC()}
	if err := s.presenceRepo.Set(ctx, p); err != nil {
		return nil, fmt.Errorf("saving presence: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyPresence(p)
	}
	return p, nil
}

// Get returns the user's presence, offline if none was recorded.
func (s *PresenceService) Get(ctx context.Context, userID string) (*domain.Presence, error) {
	p, err := s.presenceRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &domain.Presence{UserID: userID, Status: domain.PresenceOffline}, nil
	}
	return p, nil
}

// Online lists every user not marked offline, most recently changed first.
func (s *PresenceService) Online(ctx context.Context) ([]domain.Presence, error) {
	list, err := s.presenceRepo.ListOnline(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Presence{}
	}
	return list, nil
}
