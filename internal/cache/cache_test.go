package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	teammodels "github.com/nikhil/sharenet/internal/models/teams"
)

func exercise(t *testing.T, c TeamCache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.GetTeams(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	teams := []teammodels.Team{{ID: "t1", Name: "Alpha", Members: []teammodels.Member{{User: "u1", Role: "User"}}}}
	require.NoError(t, c.SetTeams(ctx, "u1", teams))
	require.NoError(t, c.SetTeams(ctx, "u2", teams))

	got, ok, err := c.GetTeams(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Alpha", got[0].Name)

	require.NoError(t, c.Invalidate(ctx, "u1", "u2"))
	_, ok, err = c.GetTeams(ctx, "u2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestNop(t *testing.T) {
	c := Nop{}
	require.NoError(t, c.SetTeams(context.Background(), "u1", nil))
	_, ok, err := c.GetTeams(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer client.Close()
	exercise(t, NewRedisTeamCache(client, time.Minute))
}

func TestKeyFormat(t *testing.T) {
	require.Equal(t, "user_teams:abc", teamsKey("abc"))
}
