package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// extendEvery is how many sweep items run between lock extensions.
const extendEvery = 25

// ErrLockLost reports that another worker took the lock mid-cycle.
var ErrLockLost = errors.New("cron lock lost")

// Lock coordinates exclusive sweep cycles across cron-worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	// Extend pushes the expiry out again; ErrLockLost when no longer owned.
	Extend(ctx context.Context) error
	Release(ctx context.Context) error
}

type ownerStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ExpireIfEqual(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key, value string) (bool, error)
}

// RedisLock holds a random owner token under key. Extend and Release only act
// while the token is still ours.
type RedisLock struct {
	store ownerStore
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLock(store ownerStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

func (l *RedisLock) Extend(ctx context.Context) error {
	if l.token == "" {
		return ErrLockLost
	}
	ok, err := l.store.ExpireIfEqual(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return fmt.Errorf("extend %s: %w", l.key, err)
	}
	if !ok {
		l.token = ""
		return ErrLockLost
	}
	return nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	if _, err := l.store.DelIfEqual(ctx, l.key, token); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

type leaseKey struct{}

// withLease hands the cycle lock to the jobs run under ctx.
func withLease(ctx context.Context, lock Lock) context.Context {
	return context.WithValue(ctx, leaseKey{}, lock)
}

// extendLease refreshes the lock carried by ctx. Outside a cycle it is a no-op.
func extendLease(ctx context.Context) error {
	lock, ok := ctx.Value(leaseKey{}).(Lock)
	if !ok || lock == nil {
		return nil
	}
	return lock.Extend(ctx)
}
