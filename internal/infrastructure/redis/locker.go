package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/domain/waiver"
)

// releaseLua deletes the key only while it still carries the holder's token.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

const releaseTimeout = 5 * time.Second

// Locker implements waiver.Locker with SET NX PX and a token-checked release.
type Locker struct {
	rdb     *redis.Client
	release *redis.Script
	prefix  string
}

var _ waiver.Locker = (*Locker)(nil)

func NewLocker(c *Client) *Locker {
	return &Locker{
		rdb:     c.rdb,
		release: redis.NewScript(releaseLua),
		prefix:  "roster:lock:",
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	redisKey := l.prefix + key

	acquired, err := l.rdb.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: key=%s", ownership.ErrLockNotAcquired, key)
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_ = l.release.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err()
		})
	}

	return unlock, nil
}
