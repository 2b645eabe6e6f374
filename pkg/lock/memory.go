package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type memoryEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker keeps one semaphore per key in process memory. Idle entries
// expire from the cache; entries with waiters or a holder never expire.
type MemoryLocker struct {
	mu      sync.Mutex
	entries *cache.Cache
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker(idleTTL time.Duration) *MemoryLocker {
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &MemoryLocker{
		entries: cache.New(idleTTL, 10*time.Minute),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	entry := l.acquireEntry(key)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(key, entry)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.releaseEntry(key, entry)
		})
	}, nil
}

func (l *MemoryLocker) acquireEntry(key string) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entry *memoryEntry
	if x, found := l.entries.Get(key); found {
		entry = x.(*memoryEntry)
	} else {
		entry = &memoryEntry{sem: make(chan struct{}, 1)}
	}
	entry.refs++
	l.entries.Set(key, entry, cache.NoExpiration)
	return entry
}

func (l *MemoryLocker) releaseEntry(key string, entry *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		l.entries.Set(key, entry, cache.DefaultExpiration)
	}
}

