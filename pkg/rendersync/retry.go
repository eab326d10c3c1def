package rendersync

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// retry runs fn up to attempts times, doubling delay after each failure.
// Errors for which transient reports false end the loop immediately.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if lastErr = fn(ctx); lastErr == nil || !transient(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}

// transient reports whether err may succeed on retry. Replies from the Redis
// server (wrong type, auth, etc.) are final; connection failures are not.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var reply redis.Error
	return !errors.As(err, &reply)
}
