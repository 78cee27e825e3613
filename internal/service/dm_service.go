package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
	"go.uber.org/zap"
)

var ErrCannotDMSelf = errors.New("cannot start a conversation with yourself")

type DMService struct {
	channelRepo repository.ChannelRepository
	users       *UserService
	notifier    Notifier
	now         func() time.Time
}

func NewDMService(channelRepo repository.ChannelRepository, users *UserService) *DMService {
	return &DMService{
		channelRepo: channelRepo,
		users:       users,
		now:         time.Now,
	}
}

func (s *DMService) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetOrCreate finds or creates the DM channel between two users and
// announces it to both of them.
func (s *DMService) GetOrCreate(ctx context.Context, userID, otherUserID string) (*domain.DMChannel, error) {
	if userID == otherUserID {
		return nil, ErrCannotDMSelf
	}

	other, err := s.users.Get(ctx, otherUserID)
	if err != nil {
		return nil, err
	}

	id := domain.DMChannelID(userID, otherUserID)
	ch, err := s.channelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ch == nil {
		pair := domain.SortedPair(userID, otherUserID)
		ch = &domain.Channel{
			ChannelID:    id,
			Name:         id,
			CreatedBy:    userID,
			CreatedAt:    s.now().UnixMilli(),
			IsDM:         true,
			Participants: pair[:],
		}
		err = s.channelRepo.Create(ctx, ch)
		if errors.Is(err, repository.ErrExists) {
			// lost the race to the other participant
			ch, err = s.channelRepo.GetByID(ctx, id)
		}
		if err != nil {
			return nil, fmt.Errorf("creating dm channel: %w", err)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyDMCreated(userID, &domain.DMChannel{Channel: *ch, OtherUser: other})
		if me, err := s.users.Get(ctx, userID); err == nil {
			s.notifier.NotifyDMCreated(otherUserID, &domain.DMChannel{Channel: *ch, OtherUser: me})
		}
	}

	return &domain.DMChannel{Channel: *ch, OtherUser: other}, nil
}

// List returns the user's DM channels with the other participant resolved.
func (s *DMService) List(ctx context.Context, userID string) ([]domain.DMChannel, error) {
	channels, err := s.channelRepo.ListDMs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DMChannel, 0, len(channels))
	for _, ch := range channels {
		dm := domain.DMChannel{Channel: ch}
		other, err := s.users.Get(ctx, ch.OtherParticipant(userID))
		switch {
		case err == nil:
			dm.OtherUser = other
		case errors.Is(err, ErrUserNotFound):
		default:
			zap.L().Warn("dm participant lookup failed", zap.String("channel_id", ch.ChannelID), zap.Error(err))
		}
		out = append(out, dm)
	}
	return out, nil
}
