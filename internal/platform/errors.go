package platform

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuthentication indicates the platform rejected our credentials.
	ErrAuthentication = errors.New("platform rejected credentials")

	// ErrPostNotFound indicates the parent post was deleted or is
	// otherwise unavailable on the platform.
	ErrPostNotFound = errors.New("parent post not found on platform")

	// ErrContentViolation indicates the platform rejected the content of
	// the post itself.
	ErrContentViolation = errors.New("platform rejected content")
)

// RateLimitError indicates platform throttling. It is always retryable and
// carries the platform's retry-after hint when one was provided.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("platform rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "platform rate limit exceeded"
}

func (e *RateLimitError) Retryable() bool { return true }

// PostingError is a generic platform or network failure during an adapter
// call. Transient failures are flagged retryable.
type PostingError struct {
	Op    string
	Err   error
	Retry bool
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("platform %s failed: %v", e.Op, e.Err)
}

func (e *PostingError) Unwrap() error   { return e.Err }
func (e *PostingError) Retryable() bool { return e.Retry }

// Retryable reports whether err is worth retrying as-is.
func Retryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
