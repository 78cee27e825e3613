package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/teamchat/internal/domain"
)

func TestUserService_SyncMerges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.users.now = func() time.Time { return time.UnixMilli(1000) }

	first, err := e.users.Sync(ctx, "u1", SyncUserInput{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, defaultDisplayName, first.DisplayName)
	assert.Equal(t, int64(1000), first.CreatedAt)

	e.users.now = func() time.Time { return time.UnixMilli(5000) }
	second, err := e.users.Sync(ctx, "u1", SyncUserInput{DisplayName: "Ana", PhotoURL: "https://img/ana.png"})
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", second.Email)
	assert.Equal(t, "Ana", second.DisplayName)
	assert.Equal(t, int64(1000), second.CreatedAt)
	assert.Equal(t, int64(5000), second.LastLogin)
}

func TestUserService_SyncRejectsAssistantID(t *testing.T) {
	e := newEnv(t)
	_, err := e.users.Sync(context.Background(), domain.AIUserID, SyncUserInput{})
	assert.ErrorIs(t, err, ErrReservedUser)
}

func TestUserService_Mentionable(t *testing.T) {
	e := newEnv(t)
	e.user(t, "u1", "Ana")
	e.user(t, "u2", "Bo")

	users, err := e.users.Mentionable(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, domain.AIUserID, users[0].UserID)
	assert.True(t, users[0].IsSystemUser)
}

func TestUserService_GetMissing(t *testing.T) {
	e := newEnv(t)
	_, err := e.users.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	bot, err := e.users.Get(context.Background(), domain.AIUserID)
	require.NoError(t, err)
	assert.Equal(t, "AI Assistant", bot.DisplayName)
}
