package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld indica que outro processo detém a chave
var ErrLockHeld = errors.New("lock held by another owner")

// só remove a chave se o token ainda for o nosso
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implementa um lock exclusivo simples (SET NX PX + release por token)
type Locker struct {
	R *redis.Client
}

func NewLocker(r *redis.Client) *Locker { return &Locker{R: r} }

// Acquire tenta uma única vez; não espera o lock ser liberado
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.R, []string{key}, token).Err()
	}, nil
}
