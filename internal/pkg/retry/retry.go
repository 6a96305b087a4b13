package retry

import (
	"context"
	"errors"
	"time"

	"tutorbook/internal/domain"
)

const DefaultBackoff = 50 * time.Millisecond

// Once runs fn and, if it failed with domain.ErrTransient, runs it one more
// time after backoff. Any other error is returned as is.
func Once[T any](ctx context.Context, backoff time.Duration, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !errors.Is(err, domain.ErrTransient) {
		return v, err
	}

	t := time.NewTimer(backoff)
	select {
	case <-ctx.Done():
		t.Stop()
		return v, err
	case <-t.C:
	}
	return fn(ctx)
}
