package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/teamchat/internal/domain"
)

func TestMessageService_SendAndList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "u1", "Ana")
	ch := e.channel(t, "u1", "general")

	msg := e.send(t, "u1", ch.ChannelID, "  hello  ", "")
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "Ana", msg.Username)
	assert.Equal(t, domain.MessageID(ch.ChannelID, msg.Timestamp), msg.MessageID)

	list, err := e.messages.List(ctx, "u1", ch.ChannelID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, msg.MessageID, list[0].MessageID)
	assert.NotNil(t, e.notifier.last("message"))
}

func TestMessageService_SendValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ch := e.channel(t, "u1", "general")

	_, err := e.messages.Send(ctx, "u1", SendMessageInput{ChannelID: ch.ChannelID, Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = e.messages.Send(ctx, "u1", SendMessageInput{ChannelID: "missing", Content: "hi"})
	assert.ErrorIs(t, err, ErrChannelNotFound)

	withFile, err := e.messages.Send(ctx, "u1", SendMessageInput{
		ChannelID:      ch.ChannelID,
		FileAttachment: &domain.FileAttachment{FileName: "a.pdf", FileType: "application/pdf", FileSize: 3, S3Key: "uploads/a.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", withFile.FileAttachment.FileName)
	assert.Equal(t, defaultDisplayName, withFile.Username)
}

func TestMessageService_Threads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	general := e.channel(t, "u1", "general")
	other := e.channel(t, "u1", "other")

	parent := e.send(t, "u1", general.ChannelID, "release today?", "")
	reply := e.send(t, "u2", general.ChannelID, "yes", parent.MessageID)
	nested := e.send(t, "u1", general.ChannelID, "great", reply.MessageID)
	assert.Equal(t, parent.MessageID, nested.ParentMessageID)

	upd := e.notifier.last("thread_updated")
	require.NotNil(t, upd)
	assert.Len(t, upd.data, 2)

	thread, err := e.messages.Thread(ctx, "u1", parent.MessageID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "yes", thread[0].Content)
	assert.Equal(t, "great", thread[1].Content)

	list, err := e.messages.List(ctx, "u1", general.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, 2, list[0].ThreadMessageCount)

	_, err = e.messages.Send(ctx, "u1", SendMessageInput{ChannelID: other.ChannelID, Content: "x", ParentMessageID: parent.MessageID})
	assert.ErrorIs(t, err, ErrParentNotInChan)

	_, err = e.messages.Send(ctx, "u1", SendMessageInput{ChannelID: general.ChannelID, Content: "x", ParentMessageID: general.ChannelID + "#1"})
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessageService_ReactionToggleTwiceRestores(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ch := e.channel(t, "u1", "general")
	msg := e.send(t, "u1", ch.ChannelID, "ship it", "")

	_, err := e.messages.ToggleReaction(ctx, "u2", msg.MessageID, "🚀")
	require.NoError(t, err)
	on, err := e.messages.ToggleReaction(ctx, "u3", msg.MessageID, "🚀")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, on.Reactions["🚀"])

	_, err = e.messages.ToggleReaction(ctx, "u3", msg.MessageID, "🚀")
	require.NoError(t, err)
	off, err := e.messages.ToggleReaction(ctx, "u2", msg.MessageID, "🚀")
	require.NoError(t, err)
	assert.Empty(t, off.Reactions)

	_, err = e.messages.ToggleReaction(ctx, "u2", ch.ChannelID+"#42", "🚀")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = e.messages.ToggleReaction(ctx, "u2", "garbage", "🚀")
	assert.ErrorIs(t, err, domain.ErrInvalidMessageID)
}

func TestMessageService_ConcurrentReactionsAllLand(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ch := e.channel(t, "u1", "general")
	msg := e.send(t, "u1", ch.ChannelID, "vote", "")

	users := []string{"a", "b", "c"}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.messages.ToggleReaction(ctx, u, msg.MessageID, "👍")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := e.messageRepo.GetByID(ctx, msg.MessageID)
	require.NoError(t, err)
	assert.ElementsMatch(t, users, got.Reactions["👍"])
}

func TestMessageService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ch := e.channel(t, "u1", "general")
	parent := e.send(t, "u1", ch.ChannelID, "parent", "")
	r1 := e.send(t, "u2", ch.ChannelID, "r1", parent.MessageID)
	e.send(t, "u2", ch.ChannelID, "r2", parent.MessageID)

	assert.ErrorIs(t, e.messages.Delete(ctx, "u1", r1.MessageID), ErrNotMessageOwner)

	require.NoError(t, e.messages.Delete(ctx, "u2", r1.MessageID))
	upd := e.notifier.last("thread_updated")
	require.NotNil(t, upd)
	assert.Len(t, upd.data, 1)

	require.NoError(t, e.messages.Delete(ctx, "u1", parent.MessageID))
	list, err := e.messages.List(ctx, "u1", ch.ChannelID)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, e.messages.Delete(ctx, "u1", parent.MessageID), ErrMessageNotFound)
}
