package repository

import (
	"context"
	"errors"

	"github.com/vedran77/teamchat/internal/domain"
)

var (
	// ErrConflict means a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("conditional write conflict")
	ErrExists   = errors.New("item already exists")
)

type UserRepository interface {
	Put(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id string) (*domain.Channel, error)
	ListPublic(ctx context.Context) ([]domain.Channel, error)
	ListDMs(ctx context.Context, userID string) ([]domain.Channel, error)
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	// Create stores msg, moving its timestamp forward if another message
	// already occupies the slot. MessageID and Timestamp are set on return.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByChannel(ctx context.Context, channelID string, limit int) ([]domain.Message, error)
	ListThread(ctx context.Context, parentMessageID string) ([]domain.Message, error)
	// UpdateReactions writes reactions if the stored version still equals
	// msg.Version, returning ErrConflict otherwise.
	UpdateReactions(ctx context.Context, msg *domain.Message, reactions map[string][]string) error
	Delete(ctx context.Context, id string) error
	DeleteByChannel(ctx context.Context, channelID string) (int, error)
	// Search returns up to limit matches, newest first. Messages rejected by
	// visible are skipped before the limit applies; a nil visible keeps all.
	Search(ctx context.Context, query string, limit int, visible func(*domain.Message) bool) ([]domain.Message, error)
}

type PresenceRepository interface {
	Set(ctx context.Context, p *domain.Presence) error
	Get(ctx context.Context, userID string) (*domain.Presence, error)
	ListOnline(ctx context.Context) ([]domain.Presence, error)
}
