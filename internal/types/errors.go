package types

import (
	"fmt"
	"time"
)

// AuthError reports invalid or missing credentials for an upstream
// provider. It aborts the run that raised it.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: authentication failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: authentication failed", e.Provider)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError reports a transport failure or an unexpected upstream
// status while talking to the holdings provider.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InsightError reports a failed insight generation for a single symbol.
// The run continues with a placeholder for that symbol.
type InsightError struct {
	Symbol string
	Err    error
}

func (e *InsightError) Error() string {
	return fmt.Sprintf("insight for %s: %v", e.Symbol, e.Err)
}

func (e *InsightError) Unwrap() error { return e.Err }

// RateLimitError reports an upstream 429. RetryAfter is zero when the
// provider did not hint at a wait.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// DeliveryError reports a failed digest delivery on a channel.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
