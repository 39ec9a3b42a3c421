// Package cache keeps per-user team listings so GET /teams does not rebuild
// them on every request. Any mutation of a team invalidates the listing of
// every member it touches.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	teammodels "github.com/nikhil/sharenet/internal/models/teams"
)

// TeamCache caches the teams a user belongs to.
type TeamCache interface {
	// GetTeams reports ok=false on a miss.
	GetTeams(ctx context.Context, userID string) (teams []teammodels.Team, ok bool, err error)
	SetTeams(ctx context.Context, userID string, teams []teammodels.Team) error
	Invalidate(ctx context.Context, userIDs ...string) error
}

func teamsKey(userID string) string {
	return "user_teams:" + userID
}

// RedisTeamCache implements TeamCache on Redis with a fixed TTL.
type RedisTeamCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ TeamCache = (*RedisTeamCache)(nil)

func NewRedisTeamCache(client redis.UniversalClient, ttl time.Duration) *RedisTeamCache {
	return &RedisTeamCache{client: client, ttl: ttl}
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, addr, password string, db int) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisTeamCache) GetTeams(ctx context.Context, userID string) ([]teammodels.Team, bool, error) {
	payload, err := c.client.Get(ctx, teamsKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load teams: %w", err)
	}
	var teams []teammodels.Team
	if err := json.Unmarshal(payload, &teams); err != nil {
		return nil, false, fmt.Errorf("decode teams: %w", err)
	}
	return teams, true, nil
}

func (c *RedisTeamCache) SetTeams(ctx context.Context, userID string, teams []teammodels.Team) error {
	payload, err := json.Marshal(teams)
	if err != nil {
		return fmt.Errorf("marshal teams: %w", err)
	}
	if err := c.client.Set(ctx, teamsKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("persist teams: %w", err)
	}
	return nil
}

func (c *RedisTeamCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = teamsKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete teams: %w", err)
	}
	return nil
}

// Nop never stores anything. Used when Redis is not configured.
type Nop struct{}

func (Nop) GetTeams(context.Context, string) ([]teammodels.Team, bool, error) { return nil, false, nil }
func (Nop) SetTeams(context.Context, string, []teammodels.Team) error         { return nil }
func (Nop) Invalidate(context.Context, ...string) error                       { return nil }

// Memory is an in-process TeamCache without expiry.
type Memory struct {
	mu    sync.Mutex
	teams map[string][]teammodels.Team
}

func NewMemory() *Memory {
	return &Memory{teams: make(map[string][]teammodels.Team)}
}

func (m *Memory) GetTeams(_ context.Context, userID string) ([]teammodels.Team, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	teams, ok := m.teams[userID]
	return teams, ok, nil
}

func (m *Memory) SetTeams(_ context.Context, userID string, teams []teammodels.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[userID] = teams
	return nil
}

func (m *Memory) Invalidate(_ context.Context, userIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		delete(m.teams, id)
	}
	return nil
}
