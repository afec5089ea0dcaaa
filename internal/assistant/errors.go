package assistant

import (
	"fmt"
	"time"
)

// ValidationError covers malformed or empty request bodies. Mapped to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PayloadTooLargeError reports the configured cap so clients can adapt. Mapped to 413.
type PayloadTooLargeError struct {
	Limit int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("total user input exceeds %d characters", e.Limit)
}

// OriginRejectedError is returned before the request counts as an interaction. Mapped to 403.
type OriginRejectedError struct {
	Host string
}

func (e *OriginRejectedError) Error() string {
	if e.Host == "" {
		return "origin not allowed"
	}
	return "origin not allowed: " + e.Host
}

// RateLimitedError carries the remaining window time. Mapped to 429.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}

// UpstreamError wraps a generation/retrieval connectivity failure. Mapped to 503.
// The cause is kept for operational logging only and never echoed to clients.
type UpstreamError struct {
	Cause error
}

func (e *UpstreamError) Error() string { return "upstream service unavailable" }
func (e *UpstreamError) Unwrap() error { return e.Cause }
