package api

import (
	"errors"
	"math"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// RetryPolicy defines how read requests are retried. Mutations never
// go through it.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	RetryableStatuses []int
}

// DefaultRetryPolicy returns the policy used by the client.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// CalculateBackoff returns the delay before the given retry attempt.
func (rp *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	backoff := float64(rp.InitialBackoff) * math.Pow(rp.BackoffMultiplier, float64(attempt-1))
	if backoff > float64(rp.MaxBackoff) {
		backoff = float64(rp.MaxBackoff)
	}
	return time.Duration(backoff)
}

// IsRetryableError reports whether err is transient. Authorization
// failures are final; validation errors only change when the user
// edits the input.
func (rp *RetryPolicy) IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return rp.isRetryableStatus(apiErr.StatusCode)
	}

	var oauthErr *oauth2.RetrieveError
	if errors.As(err, &oauthErr) {
		return rp.isRetryableStatus(oauthErr.Response.StatusCode)
	}

	return false
}

func (rp *RetryPolicy) isRetryableStatus(status int) bool {
	for _, code := range rp.RetryableStatuses {
		if status == code {
			return true
		}
	}
	return false
}
