package service

import (
	"context"
	"errors"
	"strings"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

var ErrEmptyQuery = errors.New("search query is empty")

const searchLimit = 50

type SearchService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
}

func NewSearchService(messageRepo repository.MessageRepository, channelRepo repository.ChannelRepository) *SearchService {
	return &SearchService{messageRepo: messageRepo, channelRepo: channelRepo}
}

// Search finds messages whose content or attachment name contains query,
// ignoring case. DM messages are only returned to their participants.
func (s *SearchService) Search(ctx context.Context, userID, query string) ([]domain.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	mine, err := s.userDMs(ctx, userID)
	if err != nil {
		return nil, err
	}
	visible := func(m *domain.Message) bool {
		return !strings.HasPrefix(m.ChannelID, domain.DMChannelPrefix) || mine[m.ChannelID]
	}

	found, err := s.messageRepo.Search(ctx, query, searchLimit, visible)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []domain.Message{}
	}
	return found, nil
}

func (s *SearchService) userDMs(ctx context.Context, userID string) (map[string]bool, error) {
	dms, err := s.channelRepo.ListDMs(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(dms))
	for _, ch := range dms {
		ids[ch.ChannelID] = true
	}
	return ids, nil
}
