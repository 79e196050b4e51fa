package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotAcquired = errors.New("lock already held by another owner")
	ErrNotOwned    = errors.New("lock not owned by this token (expired or taken over)")
)

type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out short-lived, non-blocking leases keyed by name.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// LocalLocker is the single-replica fallback. Leases expire after ttl like the
// Redis ones so a crashed holder cannot wedge the key.
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]localLease
	now    func() time.Time
	seq    uint64
}

type localLease struct {
	token     uint64
	expiresAt time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]localLease), now: time.Now}
}

func (l *LocalLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return nil, ErrNotAcquired
	}

	l.seq++
	l.leases[key] = localLease{token: l.seq, expiresAt: now.Add(ttl)}
	return &localLock{owner: l, key: key, token: l.seq}, nil
}

type localLock struct {
	owner *LocalLocker
	key   string
	token uint64
}

func (l *localLock) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	held, ok := l.owner.leases[l.key]
	if !ok || held.token != l.token {
		return ErrNotOwned
	}
	delete(l.owner.leases, l.key)
	return nil
}
