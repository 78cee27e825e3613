package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrReservedUser = errors.New("user id is reserved")
)

const defaultDisplayName = "Anonymous"

type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, now: time.Now}
}

type SyncUserInput struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// Sync creates the user on first sight and otherwise merges the non-empty
// fields of input into the stored profile.
func (s *UserService) Sync(ctx context.Context, userID string, input SyncUserInput) (*domain.User, error) {
	if userID == domain.AIUserID {
		return nil, ErrReservedUser
	}

	existing, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	now := s.now().UnixMilli()
	user := &domain.User{UserID: userID, CreatedAt: now}
	if existing != nil {
		*user = *existing
	}

	if v := strings.TrimSpace(input.Email); v != "" {
		user.Email = v
	}
	if v := strings.TrimSpace(input.DisplayName); v != "" {
		user.DisplayName = v
	}
	if v := strings.TrimSpace(input.PhotoURL); v != "" {
		user.PhotoURL = v
	}
	if user.DisplayName == "" {
		user.DisplayName = defaultDisplayName
	}
	user.LastLogin = now

	if err := s.userRepo.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	if userID == domain.AIUserID {
		ai := domain.AIUser(s.now().UnixMilli())
		return &ai, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Mentionable lists every user that can be @-mentioned, assistant first.
func (s *UserService) Mentionable(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users)+1)
	out = append(out, domain.AIUser(s.now().UnixMilli()))
	for _, u := range users {
		if u.UserID != domain.AIUserID {
			out = append(out, u)
		}
	}
	return out, nil
}
