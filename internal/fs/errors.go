package fs

import (
	"context"
	"errors"
	"syscall"
)

// isTransient reports whether a backend error is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EINTR) {
		return true
	}
	// per-call timeouts imposed by a remote backend
	return errors.Is(err, context.DeadlineExceeded)
}
