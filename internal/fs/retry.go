package fs

import (
	"context"
	"fmt"
	"time"
)

// backoff controls retry; tests shrink it.
var backoff = struct {
	attempts int
	base     time.Duration
}{attempts: 5, base: 100 * time.Millisecond}

// retry runs fn until it succeeds, fails with a non-transient error, the
// attempts run out or ctx is done. The delay doubles after each attempt.
func retry(ctx context.Context, opName string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= backoff.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return fmt.Errorf("%s: %w", opName, err)
		}
		if attempt == backoff.attempts {
			break
		}

		t := time.NewTimer(backoff.base * (1 << (attempt - 1)))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", opName, backoff.attempts, lastErr)
}
