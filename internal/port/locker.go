package port

import (
	"context"
	"errors"
)

var ErrLockTimeout = errors.New("lock wait timed out")

type Locker interface {
	// Acquire blocks until key is held or ctx is done. The returned func releases the lock.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
