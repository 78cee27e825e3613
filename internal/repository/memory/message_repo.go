package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

// MessageRepo mirrors the DynamoDB repository's semantics: one slot per
// channel and millisecond, versioned reaction writes.
type MessageRepo struct {
	mu       sync.RWMutex
	messages map[string]domain.Message
	now      func() time.Time
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{messages: make(map[string]domain.Message), now: time.Now}
}

func (r *MessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.Timestamp == 0 {
		msg.Timestamp = r.now().UnixMilli()
	}
	for {
		id := domain.MessageID(msg.ChannelID, msg.Timestamp)
		if _, taken := r.messages[id]; !taken {
			msg.MessageID = id
			break
		}
		msg.Timestamp++
	}
	r.messages[msg.MessageID] = clone(*msg)
	return nil
}

func (r *MessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	if _, _, err := domain.ParseMessageID(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	m = clone(m)
	return &m, nil
}

func (r *MessageRepo) ListByChannel(_ context.Context, channelID string, limit int) ([]domain.Message, error) {
	msgs := r.filter(func(m domain.Message) bool { return m.ChannelID == channelID })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (r *MessageRepo) ListThread(_ context.Context, parentMessageID string) ([]domain.Message, error) {
	channelID, _, err := domain.ParseMessageID(parentMessageID)
	if err != nil {
		return nil, err
	}
	return r.filter(func(m domain.Message) bool {
		return m.ChannelID == channelID && m.ParentMessageID == parentMessageID
	}), nil
}

func (r *MessageRepo) UpdateReactions(_ context.Context, msg *domain.Message, reactions map[string][]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.messages[msg.MessageID]
	if !ok || stored.Version != msg.Version {
		return fmt.Errorf("update reactions %s: %w", msg.MessageID, repository.ErrConflict)
	}
	stored.Reactions = maps.Clone(reactions)
	stored.Version++
	r.messages[msg.MessageID] = stored

	msg.Reactions = reactions
	msg.Version = stored.Version
	return nil
}

func (r *MessageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *MessageRepo) DeleteByChannel(_ context.Context, channelID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, m := range r.messages {
		if m.ChannelID == channelID {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

func (r *MessageRepo) Search(_ context.Context, query string, limit int, visible func(*domain.Message) bool) ([]domain.Message, error) {
	q := strings.ToLower(query)
	msgs := r.filter(func(m domain.Message) bool {
		if visible != nil && !visible(&m) {
			return false
		}
		if strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
		return m.FileAttachment != nil && strings.Contains(strings.ToLower(m.FileAttachment.FileName), q)
	})
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp > msgs[j].Timestamp })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// filter returns matching messages in chronological order.
func (r *MessageRepo) filter(keep func(domain.Message) bool) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Message
	for _, m := range r.messages {
		if keep(m) {
			out = append(out, clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func clone(m domain.Message) domain.Message {
	if m.Reactions != nil {
		m.Reactions = maps.Clone(m.Reactions)
	}
	if m.FileAttachment != nil {
		fa := *m.FileAttachment
		m.FileAttachment = &fa
	}
	return m
}
