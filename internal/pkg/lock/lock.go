package lock

import (
	"context"
	"errors"
	"time"
)

var ErrTimeout = errors.New("lock: acquire timeout")

// Locker grants short-lived exclusive leases on string keys. The token
// returned by TryLock must be passed back to Unlock.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

const (
	minBackoff = 5 * time.Millisecond
	maxBackoff = 100 * time.Millisecond
)

// Acquire polls TryLock until the lease is granted or ctx is done. The
// returned release func uses a detached context so it still runs after ctx
// expiry.
func Acquire(ctx context.Context, l Locker, key string, ttl time.Duration) (func(), error) {
	backoff := minBackoff
	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrTimeout
			}
			return nil, err
		}
		if ok {
			return func() {
				unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = l.Unlock(unlockCtx, key, token)
			}, nil
		}

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ErrTimeout
		case <-t.C:
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// AcquireAll takes the keys in the given order and releases them in reverse.
// Callers must use a consistent key order to avoid lock cycles.
func AcquireAll(ctx context.Context, l Locker, ttl time.Duration, keys ...string) (func(), error) {
	releases := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, key := range keys {
		release, err := Acquire(ctx, l, key, ttl)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
