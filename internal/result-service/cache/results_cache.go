package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/matka-admin-platform/internal/settlement"
	sharedcache "github.com/radieske/matka-admin-platform/internal/shared/cache"
)

// ResultsCache guarda os quadros diários lidos pelo painel
type ResultsCache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *ResultsCache { return &ResultsCache{R: r, TTL: ttl} }

func key(family settlement.Family, dateKey string) string {
	return "results:daily:" + string(family) + ":" + dateKey
}

func (c *ResultsCache) Get(ctx context.Context, family settlement.Family, dateKey string) (map[string]string, bool, error) {
	var out map[string]string
	ok, err := sharedcache.GetJSON(ctx, c.R, key(family, dateKey), &out)
	return out, ok, err
}

func (c *ResultsCache) Set(ctx context.Context, family settlement.Family, dateKey string, results map[string]string) error {
	return sharedcache.SetJSON(ctx, c.R, key(family, dateKey), results, c.TTL)
}

// Invalidate remove o quadro após uma sobrescrita
func (c *ResultsCache) Invalidate(ctx context.Context, family settlement.Family, dateKey string) error {
	return c.R.Del(ctx, key(family, dateKey)).Err()
}
