package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/usecase"
)

var _ usecase.BalanceCache = (*BalanceCache)(nil)

// BalanceCache stores balance snapshots for advisory reads. Cache failures are
// swallowed: a miss just falls through to Postgres.
type BalanceCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewBalanceCache(client RedisClient, ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(userID string) string { return "balance:" + userID }

func (c *BalanceCache) Get(ctx context.Context, userID string) (*model.Balance, bool) {
	raw, err := c.client.Get(ctx, balanceKey(userID))
	if err != nil {
		return nil, false
	}
	b := new(model.Balance)
	if err := json.Unmarshal([]byte(raw), b); err != nil {
		return nil, false
	}
	return b, true
}

func (c *BalanceCache) Set(ctx context.Context, b *model.Balance) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, balanceKey(b.UserID), raw, c.ttl)
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID string) {
	_ = c.client.Del(ctx, balanceKey(userID))
}

// NoopBalanceCache satisfies usecase.BalanceCache when Redis is not
// configured; every read falls through.
type NoopBalanceCache struct{}

func (NoopBalanceCache) Get(context.Context, string) (*model.Balance, bool) { return nil, false }
func (NoopBalanceCache) Set(context.Context, *model.Balance)                {}
func (NoopBalanceCache) Invalidate(context.Context, string)                 {}
