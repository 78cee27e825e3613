package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotMessageOwner  = errors.New("only the message sender can perform this action")
	ErrEmptyMessage     = errors.New("message needs content or a file")
	ErrParentNotInChan  = errors.New("thread parent belongs to another channel")
	ErrReactionConflict = errors.New("reaction update kept conflicting, try again")
)

const (
	historyLimit       = 50
	maxReactionRetries = 5
)

// Assistant is told about every stored message not written by the assistant.
type Assistant interface {
	MaybeRespond(msg *domain.Message)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	channels    *ChannelService
	users       *UserService
	notifier    Notifier
	assistant   Assistant
}

func NewMessageService(messageRepo repository.MessageRepository, channels *ChannelService, users *UserService) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		channels:    channels,
		users:       users,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *MessageService) SetAssistant(a Assistant) {
	s.assistant = a
}

type SendMessageInput struct {
	ChannelID       string                 `json:"channelId"`
	Content         string                 `json:"content"`
	ParentMessageID string                 `json:"parentMessageId,omitempty"`
	FileAttachment  *domain.FileAttachment `json:"fileAttachment,omitempty"`
}

func (s *MessageService) Send(ctx context.Context, userID string, input SendMessageInput) (*domain.Message, error) {
	author, err := s.users.Get(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		author = &domain.User{UserID: userID, DisplayName: defaultDisplayName}
	} else if err != nil {
		return nil, err
	}

	msg, err := s.PostAs(ctx, *author, input)
	if err != nil {
		return nil, err
	}

	if s.assistant != nil && msg.UserID != domain.AIUserID {
		s.assistant.MaybeRespond(msg)
	}
	return msg, nil
}

// PostAs stores and broadcasts a message written by author. It does not
// trigger the assistant.
func (s *MessageService) PostAs(ctx context.Context, author domain.User, input SendMessageInput) (*domain.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && input.FileAttachment == nil {
		return nil, ErrEmptyMessage
	}

	if _, err := s.channels.Get(ctx, author.UserID, input.ChannelID); err != nil {
		return nil, err
	}

	parentID := input.ParentMessageID
	if parentID != "" {
		parent, err := s.getMessage(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.ChannelID != input.ChannelID {
			return nil, ErrParentNotInChan
		}
		// threads are one level deep
		if parent.IsReply() {
			parentID = parent.ParentMessageID
		}
	}

	msg := &domain.Message{
		ChannelID:       input.ChannelID,
		UserID:          author.UserID,
		Username:        author.DisplayName,
		PhotoURL:        author.PhotoURL,
		Content:         content,
		FileAttachment:  input.FileAttachment,
		ParentMessageID: parentID,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyMessage(msg)
	}
	if msg.IsReply() {
		s.refreshThread(ctx, msg.ChannelID, msg.ParentMessageID)
	}
	return msg, nil
}

// List returns the latest messages of a channel in chronological order,
// with thread reply counts filled in.
func (s *MessageService) List(ctx context.Context, userID, channelID string) ([]domain.Message, error) {
	if _, err := s.channels.Get(ctx, userID, channelID); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.ListByChannel(ctx, channelID, historyLimit)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	domain.CountReplies(msgs)
	return msgs, nil
}

// Recent returns up to limit latest messages of a channel without access
// checks; used for assistant context.
func (s *MessageService) Recent(ctx context.Context, channelID string, limit int) ([]domain.Message, error) {
	return s.messageRepo.ListByChannel(ctx, channelID, limit)
}

func (s *MessageService) Thread(ctx context.Context, userID, parentMessageID string) ([]domain.Message, error) {
	parent, err := s.getMessage(ctx, parentMessageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.channels.Get(ctx, userID, parent.ChannelID); err != nil {
		return nil, err
	}

	replies, err := s.messageRepo.ListThread(ctx, parentMessageID)
	if err != nil {
		return nil, err
	}
	if replies == nil {
		replies = []domain.Message{}
	}
	return replies, nil
}

// ToggleReaction adds or removes the user's emoji. Concurrent writers are
// resolved by re-reading and retrying on a version conflict.
func (s *MessageService) ToggleReaction(ctx context.Context, userID, messageID, emoji string) (*domain.Message, error) {
	for attempt := 0; attempt < maxReactionRetries; attempt++ {
		msg, err := s.getMessage(ctx, messageID)
		if err != nil {
			return nil, err
		}
		if attempt == 0 {
			if _, err := s.channels.Get(ctx, userID, msg.ChannelID); err != nil {
				return nil, err
			}
		}

		next := domain.ToggleReaction(msg.Reactions, emoji, userID)
		err = s.messageRepo.UpdateReactions(ctx, msg, next)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("updating reactions: %w", err)
		}

		if s.notifier != nil {
			s.notifier.NotifyReaction(msg)
		}
		return msg, nil
	}
	return nil, ErrReactionConflict
}

// Delete removes a message written by userID. Deleting a thread parent
// removes its replies too.
func (s *MessageService) Delete(ctx context.Context, userID, messageID string) error {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != userID {
		return ErrNotMessageOwner
	}

	var replies []domain.Message
	if !msg.IsReply() {
		replies, err = s.messageRepo.ListThread(ctx, messageID)
		if err != nil {
			return err
		}
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyMessageDeleted(msg.ChannelID, messageID)
	}

	for _, r := range replies {
		if err := s.messageRepo.Delete(ctx, r.MessageID); err != nil {
			zap.L().Warn("thread reply not deleted", zap.String("message_id", r.MessageID), zap.Error(err))
			continue
		}
		if s.notifier != nil {
			s.notifier.NotifyMessageDeleted(r.ChannelID, r.MessageID)
		}
	}

	if msg.IsReply() {
		s.refreshThread(ctx, msg.ChannelID, msg.ParentMessageID)
	}
	return nil
}

func (s *MessageService) getMessage(ctx context.Context, id string) (*domain.Message, error) {
	if _, _, err := domain.ParseMessageID(id); err != nil {
		return nil, err
	}
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (s *MessageService) refreshThread(ctx context.Context, channelID, parentID string) {
	if s.notifier == nil {
		return
	}
	replies, err := s.messageRepo.ListThread(ctx, parentID)
	if err != nil {
		zap.L().Warn("thread refresh failed", zap.String("parent_id", parentID), zap.Error(err))
		return
	}
	if replies == nil {
		replies = []domain.Message{}
	}
	s.notifier.NotifyThreadUpdated(channelID, parentID, replies)
}
