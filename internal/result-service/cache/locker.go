package cache

import (
	"context"
	"errors"
	"time"

	"github.com/radieske/matka-admin-platform/internal/settlement"
	sharedcache "github.com/radieske/matka-admin-platform/internal/shared/cache"
)

// SettlementLocker adapta o lock Redis ao contrato da liquidação
type SettlementLocker struct {
	L *sharedcache.Locker
}

func (s SettlementLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	release, err := s.L.Acquire(ctx, key, ttl)
	if errors.Is(err, sharedcache.ErrLockHeld) {
		return nil, settlement.ErrSettlementInProgress
	}
	return release, err
}
