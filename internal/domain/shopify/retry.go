package shopify

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy decides whether a failed Admin API call is attempted again and
// how long to back off first. Throttled responses that say when the cost
// budget refills are waited out for that long instead of the exponential
// schedule.
type RetryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitterFactor float64
}

// DefaultRetryPolicy allows three attempts starting at one second.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		maxAttempts:  3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitterFactor: 0.1,
	}
}

// NoRetryPolicy returns a policy that never retries.
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{maxAttempts: 1}
}

// WithMaxAttempts sets the total number of attempts, at least one.
func (p *RetryPolicy) WithMaxAttempts(n int) *RetryPolicy {
	p.maxAttempts = max(n, 1)
	return p
}

// WithInitialDelay sets the delay before the first retry.
func (p *RetryPolicy) WithInitialDelay(d time.Duration) *RetryPolicy {
	p.initialDelay = d
	return p
}

// WithMaxDelay caps every delay, including server-requested ones.
func (p *RetryPolicy) WithMaxDelay(d time.Duration) *RetryPolicy {
	p.maxDelay = d
	return p
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func (p *RetryPolicy) WithJitter(j float64) *RetryPolicy {
	p.jitterFactor = j
	return p
}

// MaxAttempts returns the total number of attempts.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry reports whether err is transient and attempts remain.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return false
}

// DelayForAttempt is the exponential backoff after the given attempt.
func (p *RetryPolicy) DelayForAttempt(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt-1))
	if p.jitterFactor > 0 {
		delay += delay * p.jitterFactor * (rand.Float64()*2 - 1)
	}
	return min(time.Duration(delay), p.maxDelay)
}

// Backoff returns how long to wait after err ended the given attempt. A
// RetryAfter hint on the error wins over the exponential schedule.
func (p *RetryPolicy) Backoff(err error, attempt int) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, p.maxDelay)
	}
	return p.DelayForAttempt(attempt)
}

// sleep returns false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RetryResult reports how an Execute call went.
type RetryResult struct {
	Attempts  int
	LastError error
	Duration  time.Duration
}

// Executor runs an operation under a RetryPolicy.
type Executor struct {
	policy *RetryPolicy
}

// NewExecutor creates an executor; a nil policy never retries.
func NewExecutor(policy *RetryPolicy) *Executor {
	if policy == nil {
		policy = NoRetryPolicy()
	}
	return &Executor{policy: policy}
}

// Execute runs operation until it succeeds, fails permanently, runs out of
// attempts or ctx ends. LastError is nil when the final attempt succeeded.
func (e *Executor) Execute(ctx context.Context, operation func() error) *RetryResult {
	start := time.Now()
	result := &RetryResult{}

	for attempt := 1; attempt <= e.policy.maxAttempts; attempt++ {
		result.Attempts = attempt

		err := operation()
		result.LastError = err
		if err == nil || !e.policy.ShouldRetry(err, attempt) {
			break
		}
		if !sleep(ctx, e.policy.Backoff(err, attempt)) {
			result.LastError = ctx.Err()
			break
		}
	}

	result.Duration = time.Since(start)
	return result
}
