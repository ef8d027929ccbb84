package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when a refresh lock could not be taken in time.
var ErrLockTimeout = errors.New("refresh lock wait exceeded")

const (
	refreshLockPrefix     = "account:refresh-lock:"
	refreshLockRetryDelay = 20 * time.Millisecond
	defaultRefreshLockTTL = 5 * time.Second
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRefreshLock serializes refreshes of one user across API instances.
type RedisRefreshLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRefreshLock constructs a Redis backed lock. ttl bounds both how
// long a crashed holder blocks others and how long Acquire waits.
func NewRedisRefreshLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisRefreshLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultRefreshLockTTL
	}
	return &RedisRefreshLock{client: client, ttl: ttl, logger: logger}
}

// Acquire blocks until the lock for key is held, ctx ends, or ttl elapses.
func (l *RedisRefreshLock) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := refreshLockPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(refreshLockRetryDelay):
		}
	}

	release := func() {
		// The request context may already be cancelled; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("failed to release refresh lock", zap.String("key", redisKey), zap.Error(err))
		}
	}
	return release, nil
}

// LocalRefreshLock serializes refreshes of one user within this process.
type LocalRefreshLock struct {
	mu    sync.Mutex
	ttl   time.Duration
	locks map[string]*localLockEntry
}

type localLockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocalRefreshLock constructs an in-process keyed lock. ttl bounds how
// long Acquire waits.
func NewLocalRefreshLock(ttl time.Duration) *LocalRefreshLock {
	if ttl <= 0 {
		ttl = defaultRefreshLockTTL
	}
	return &LocalRefreshLock{ttl: ttl, locks: make(map[string]*localLockEntry)}
}

// Acquire blocks until the lock for key is held, ctx ends, or ttl elapses.
func (l *LocalRefreshLock) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localLockEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.ttl)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
	case <-timer.C:
		l.unref(key, entry)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		l.unref(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.unref(key, entry)
		})
	}, nil
}

func (l *LocalRefreshLock) unref(key string, entry *localLockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}
