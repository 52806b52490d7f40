package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a scope lock could not be taken before its
// wait deadline.
var ErrLockTimeout = errors.New("scope lock wait timed out")

// ReleaseFunc releases a held scope lock.
type ReleaseFunc func(ctx context.Context) error

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// ScopeLock serialises writers of one logical activity stream. With a Redis
// client the lock spans processes (SET NX PX with a token checked on
// release); without one it falls back to in-process mutexes.
type ScopeLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration

	mu    sync.Mutex
	local map[string]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

// NewScopeLock builds a lock. r may be nil.
func NewScopeLock(r *Redis, prefix string, ttl time.Duration) *ScopeLock {
	l := &ScopeLock{prefix: prefix, ttl: ttl, retry: 25 * time.Millisecond, local: map[string]*localLock{}}
	if r != nil {
		l.client = r.Client
	}
	return l
}

func (l *ScopeLock) key(scope string) string {
	return fmt.Sprintf("%s:lock:%s", l.prefix, scope)
}

// Acquire blocks until the scope is free, ctx is done or the lock TTL has
// elapsed while waiting.
func (l *ScopeLock) Acquire(ctx context.Context, scope string) (ReleaseFunc, error) {
	if l.client == nil {
		return l.acquireLocal(ctx, scope)
	}

	key := l.key(scope)
	token := uuid.NewString()
	deadline := time.NewTimer(l.ttl)
	defer deadline.Stop()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

func (l *ScopeLock) acquireLocal(ctx context.Context, scope string) (ReleaseFunc, error) {
	l.mu.Lock()
	lock, ok := l.local[scope]
	if !ok {
		lock = &localLock{ch: make(chan struct{}, 1)}
		l.local[scope] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(scope, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-lock.ch
			l.unref(scope, lock)
		})
		return nil
	}, nil
}

func (l *ScopeLock) unref(scope string, lock *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.local, scope)
	}
}
