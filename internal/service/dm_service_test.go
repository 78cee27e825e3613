package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/teamchat/internal/domain"
)

func TestDMChannelIDOrderIndependent(t *testing.T) {
	assert.Equal(t, domain.DMChannelID("alice", "bob"), domain.DMChannelID("bob", "alice"))
	assert.Equal(t, "dm_alice_bob", domain.DMChannelID("bob", "alice"))
}

func TestDMService_GetOrCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "alice", "Alice")
	e.user(t, "bob", "Bob")

	first, err := e.dms.GetOrCreate(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "dm_alice_bob", first.ChannelID)
	assert.True(t, first.IsDM)
	assert.Equal(t, "alice", first.OtherUser.UserID)

	again, err := e.dms.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ChannelID, again.ChannelID)
	assert.Equal(t, "bob", again.OtherUser.UserID)

	toBob := e.notifier.last("dm_channel_created")
	require.NotNil(t, toBob)
	assert.Equal(t, "bob", toBob.to)

	list, err := e.dms.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].OtherUser.UserID)
}

func TestDMService_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "alice", "Alice")

	_, err := e.dms.GetOrCreate(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrCannotDMSelf)

	_, err = e.dms.GetOrCreate(ctx, "alice", "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	dm, err := e.dms.GetOrCreate(ctx, "alice", domain.AIUserID)
	require.NoError(t, err)
	assert.Equal(t, domain.DMChannelID("alice", domain.AIUserID), dm.ChannelID)
}

func TestDMService_OutsidersCannotRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "alice", "Alice")
	e.user(t, "bob", "Bob")
	dm, err := e.dms.GetOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = e.messages.List(ctx, "mallory", dm.ChannelID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
