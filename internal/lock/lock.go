// Package lock serializes work on a shared key, either inside one process or
// across replicas through Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotObtained is returned when a key could not be locked in time
var ErrNotObtained = errors.New("lock not obtained")

// Locker acquires exclusive access to a key.
// The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is an in-process keyed mutex
type LocalLocker struct {
	mu      sync.Mutex
	keys    map[string]*keyLock
	timeout time.Duration
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker. A zero timeout waits until ctx is done.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		keys:    make(map[string]*keyLock),
		timeout: timeout,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	l.mu.Lock()
	k, ok := l.keys[key]
	if !ok {
		k = &keyLock{sem: make(chan struct{}, 1)}
		l.keys[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-k.sem
				l.unref(key, k)
			})
		}, nil
	case <-ctx.Done():
		l.unref(key, k)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotObtained, key, ctx.Err())
	}
}

func (l *LocalLocker) unref(key string, k *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.keys, key)
	}
}
