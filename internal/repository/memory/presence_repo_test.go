package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/teamchat/internal/domain"
)

func TestPresenceRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewPresenceRepo()
	now := time.Now()

	require.NoError(t, repo.Set(ctx, &domain.Presence{UserID: "a", Status: domain.PresenceOnline, LastChanged: now}))
	require.NoError(t, repo.Set(ctx, &domain.Presence{UserID: "b", Status: domain.PresenceAway, LastChanged: now.Add(time.Second)}))
	require.NoError(t, repo.Set(ctx, &domain.Presence{UserID: "c", Status: domain.PresenceOffline, LastChanged: now}))

	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceAway, got.Status)

	missing, err := repo.Get(ctx, "zed")
	require.NoError(t, err)
	assert.Nil(t, missing)

	online, err := repo.ListOnline(ctx)
	require.NoError(t, err)
	require.Len(t, online, 2)
	assert.Equal(t, "b", online[0].UserID)
}
