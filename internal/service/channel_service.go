package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotChannelOwner = errors.New("only the channel creator can perform this action")
	ErrNotParticipant  = errors.New("you are not a participant of this conversation")
)

type ChannelService struct {
	channelRepo repository.ChannelRepository
	messageRepo repository.MessageRepository
	notifier    Notifier
	now         func() time.Time
}

func NewChannelService(channelRepo repository.ChannelRepository, messageRepo repository.MessageRepository) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		messageRepo: messageRepo,
		now:         time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ChannelService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *ChannelService) Create(ctx context.Context, userID, name string) (*domain.Channel, error) {
	ch := &domain.Channel{
		ChannelID: uuid.NewString(),
		Name:      strings.TrimSpace(name),
		CreatedBy: userID,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.channelRepo.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyChannelCreated(ch)
	}
	return ch, nil
}

// Get returns a channel the user may read. DM channels are visible to their
// participants only.
func (s *ChannelService) Get(ctx context.Context, userID, channelID string) (*domain.Channel, error) {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	if ch.IsDM && !ch.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return ch, nil
}

// List returns the non-DM channels, oldest first.
func (s *ChannelService) List(ctx context.Context) ([]domain.Channel, error) {
	channels, err := s.channelRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	return channels, nil
}

func (s *ChannelService) Delete(ctx context.Context, userID, channelID string) error {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return ErrChannelNotFound
	}
	if ch.IsDM || ch.CreatedBy != userID {
		return ErrNotChannelOwner
	}

	if err := s.channelRepo.Delete(ctx, channelID); err != nil {
		return fmt.Errorf("deleting channel: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyChannelDeleted(channelID)
	}

	// Orphaned messages are unreachable once the channel is gone.
	n, err := s.messageRepo.DeleteByChannel(ctx, channelID)
	if err != nil {
		zap.L().Warn("channel messages not fully deleted",
			zap.String("channel_id", channelID), zap.Int("deleted", n), zap.Error(err))
	}
	return nil
}
