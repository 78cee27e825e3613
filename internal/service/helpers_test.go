package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/teamchat/internal/ai"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository/memory"
)

type recorded struct {
	kind string
	to   string
	data any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recorded
}

func (n *recordingNotifier) add(kind, to string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recorded{kind: kind, to: to, data: data})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.kind
	}
	return out
}

func (n *recordingNotifier) last(kind string) *recorded {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].kind == kind {
			e := n.events[i]
			return &e
		}
	}
	return nil
}

func (n *recordingNotifier) NotifyMessage(msg *domain.Message) {
	n.add("message", msg.ChannelID, *msg)
}

func (n *recordingNotifier) NotifyThreadUpdated(channelID, parentID string, replies []domain.Message) {
	n.add("thread_updated", channelID, replies)
}

func (n *recordingNotifier) NotifyReaction(msg *domain.Message) {
	n.add("reaction_added", msg.ChannelID, *msg)
}

func (n *recordingNotifier) NotifyMessageDeleted(channelID, messageID string) {
	n.add("message_deleted", channelID, messageID)
}

func (n *recordingNotifier) NotifyChannelCreated(ch *domain.Channel) {
	n.add("channel_created", "", *ch)
}

func (n *recordingNotifier) NotifyChannelDeleted(channelID string) {
	n.add("channel_deleted", "", channelID)
}

func (n *recordingNotifier) NotifyDMCreated(userID string, dm *domain.DMChannel) {
	n.add("dm_channel_created", userID, *dm)
}

func (n *recordingNotifier) NotifyPresence(p *domain.Presence) {
	n.add("presence", "", *p)
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, prompt string, history []ai.Turn) (string, error) {
	args := m.Called(ctx, prompt, history)
	return args.String(0), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) NewKey(fileName string) string {
	return m.Called(fileName).String(0)
}

func (m *mockStore) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	return m.Called(ctx, key, contentType, size).Error(0)
}

func (m *mockStore) PresignGet(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockStore) PublicURL(key string) string {
	return m.Called(key).String(0)
}

func (m *mockStore) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

type env struct {
	users    *UserService
	channels *ChannelService
	dms      *DMService
	messages *MessageService
	search   *SearchService
	presence *PresenceService

	userRepo    *memory.UserRepo
	channelRepo *memory.ChannelRepo
	messageRepo *memory.MessageRepo
	notifier    *recordingNotifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		userRepo:    memory.NewUserRepo(),
		channelRepo: memory.NewChannelRepo(),
		messageRepo: memory.NewMessageRepo(),
		notifier:    &recordingNotifier{},
	}
	e.users = NewUserService(e.userRepo)
	e.channels = NewChannelService(e.channelRepo, e.messageRepo)
	e.dms = NewDMService(e.channelRepo, e.users)
	e.messages = NewMessageService(e.messageRepo, e.channels, e.users)
	e.search = NewSearchService(e.messageRepo, e.channelRepo)
	e.presence = NewPresenceService(memory.NewPresenceRepo())

	e.channels.SetNotifier(e.notifier)
	e.dms.SetNotifier(e.notifier)
	e.messages.SetNotifier(e.notifier)
	e.presence.SetNotifier(e.notifier)
	return e
}

func (e *env) user(t *testing.T, id, name string) *domain.User {
	t.Helper()
	u, err := e.users.Sync(context.Background(), id, SyncUserInput{DisplayName: name, Email: id + "@example.com"})
	require.NoError(t, err)
	return u
}

func (e *env) channel(t *testing.T, owner, name string) *domain.Channel {
	t.Helper()
	ch, err := e.channels.Create(context.Background(), owner, name)
	require.NoError(t, err)
	return ch
}

func (e *env) send(t *testing.T, userID, channelID, content, parentID string) *domain.Message {
	t.Helper()
	msg, err := e.messages.Send(context.Background(), userID, SendMessageInput{
		ChannelID:       channelID,
		Content:         content,
		ParentMessageID: parentID,
	})
	require.NoError(t, err)
	return msg
}
