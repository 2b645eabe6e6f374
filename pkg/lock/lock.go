package lock

import (
	"context"
	"errors"
)

// Unlock releases a lock obtained from a Locker. Calling it more than once is a no-op.
type Unlock func()

// Locker serialises work on a key. Lock blocks until the key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

var ErrNotAcquired = errors.New("lock not acquired")
