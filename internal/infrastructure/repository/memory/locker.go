package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
)

type heldLock struct {
	token     uint64
	expiresAt time.Time
}

// KeyLocker is an in-process waiver.Locker. Locks expire after their TTL like the Redis variant.
type KeyLocker struct {
	mu   sync.Mutex
	held map[string]heldLock
	next uint64
	now  func() time.Time
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{
		held: make(map[string]heldLock),
		now:  time.Now,
	}
}

func (l *KeyLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.held[key]; ok && now.Before(current.expiresAt) {
		return nil, ownership.ErrLockNotAcquired
	}

	l.next++
	token := l.next
	l.held[key] = heldLock{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if current, ok := l.held[key]; ok && current.token == token {
				delete(l.held, key)
			}
		})
	}, nil
}
