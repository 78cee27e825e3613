package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

func TestMessageRepo_CreateBumpsTimestamp(t *testing.T) {
	r := NewMessageRepo()
	r.now = func() time.Time { return time.UnixMilli(1000) }
	ctx := context.Background()

	a := &domain.Message{ChannelID: "general", Content: "a"}
	b := &domain.Message{ChannelID: "general", Content: "b"}
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))

	assert.Equal(t, "general#1000", a.MessageID)
	assert.Equal(t, "general#1001", b.MessageID)
}

func TestMessageRepo_UpdateReactionsVersion(t *testing.T) {
	r := NewMessageRepo()
	ctx := context.Background()
	msg := &domain.Message{ChannelID: "general", Content: "hi"}
	require.NoError(t, r.Create(ctx, msg))

	stale := *msg
	require.NoError(t, r.UpdateReactions(ctx, msg, map[string][]string{"👍": {"u1"}}))
	assert.Equal(t, int64(1), msg.Version)

	err := r.UpdateReactions(ctx, &stale, map[string][]string{"🎉": {"u2"}})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := r.GetByID(ctx, msg.MessageID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"👍": {"u1"}}, got.Reactions)
}

func TestMessageRepo_ThreadAndSearch(t *testing.T) {
	r := NewMessageRepo()
	ctx := context.Background()
	parent := &domain.Message{ChannelID: "general", Timestamp: 10, Content: "Deploy plan"}
	require.NoError(t, r.Create(ctx, parent))
	require.NoError(t, r.Create(ctx, &domain.Message{ChannelID: "general", Timestamp: 20, Content: "looks good", ParentMessageID: parent.MessageID}))
	require.NoError(t, r.Create(ctx, &domain.Message{ChannelID: "general", Timestamp: 30, Content: "unrelated"}))

	thread, err := r.ListThread(ctx, parent.MessageID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "looks good", thread[0].Content)

	found, err := r.Search(ctx, "DEPLOY", 10, nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, parent.MessageID, found[0].MessageID)

	n, err := r.DeleteByChannel(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
