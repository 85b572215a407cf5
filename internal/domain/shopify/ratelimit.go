package shopify

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a per-shop leaky bucket modelled on the Admin
// GraphQL query cost budget. Every shop has its own bucket of cost points
// that restores at a fixed rate per second.
type RateLimiter struct {
	buckets map[string]*costBucket
	mu      sync.RWMutex
	config  RateLimitConfig
}

// RateLimitConfig holds rate limit configuration.
type RateLimitConfig struct {
	// MaxAvailable is the bucket size in cost points.
	MaxAvailable float64
	// RestoreRate is the number of cost points restored per second.
	RestoreRate float64
	// DefaultCost is charged for a request whose cost is not known up front.
	DefaultCost float64
}

// DefaultRateLimitConfig returns the standard-plan GraphQL cost budget.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAvailable: 1000,
		RestoreRate:  50,
		DefaultCost:  50,
	}
}

// costBucket tracks the remaining cost points of one shop.
type costBucket struct {
	available   float64
	maxTokens   float64
	restoreRate float64
	lastRefill  time.Time
	mu          sync.Mutex
}

func newCostBucket(maxAvailable, restoreRate float64) *costBucket {
	return &costBucket{
		available:   maxAvailable,
		maxTokens:   maxAvailable,
		restoreRate: restoreRate,
		lastRefill:  time.Now(),
	}
}

// refill must be called with mu held.
func (b *costBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.available += elapsed * b.restoreRate
	if b.available > b.maxTokens {
		b.available = b.maxTokens
	}
	b.lastRefill = now
}

// take reserves cost points from the bucket.
// Returns the time to wait if not enough points are available.
func (b *costBucket) take(cost float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())

	if cost > b.maxTokens {
		cost = b.maxTokens
	}
	if b.available >= cost {
		b.available -= cost
		return 0
	}

	deficit := cost - b.available
	b.available -= cost
	return time.Duration(deficit / b.restoreRate * float64(time.Second))
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.MaxAvailable <= 0 {
		config.MaxAvailable = defaults.MaxAvailable
	}
	if config.RestoreRate <= 0 {
		config.RestoreRate = defaults.RestoreRate
	}
	if config.DefaultCost <= 0 {
		config.DefaultCost = defaults.DefaultCost
	}
	return &RateLimiter{
		buckets: make(map[string]*costBucket),
		config:  config,
	}
}

// Wait blocks until a request of the default cost can be made for the shop.
// Returns an error if the context is cancelled while waiting.
func (rl *RateLimiter) Wait(ctx context.Context, shop string) error {
	return rl.WaitCost(ctx, shop, rl.config.DefaultCost)
}

// WaitCost blocks until cost points are available for the shop.
func (rl *RateLimiter) WaitCost(ctx context.Context, shop string, cost float64) error {
	waitTime := rl.getBucket(shop).take(cost)
	if waitTime == 0 {
		return nil
	}

	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TryAcquire attempts to reserve the default cost without waiting.
// Returns true if successful, false if rate limited.
func (rl *RateLimiter) TryAcquire(shop string) bool {
	bucket := rl.getBucket(shop)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.refill(time.Now())
	if bucket.available < rl.config.DefaultCost {
		return false
	}
	bucket.available -= rl.config.DefaultCost
	return true
}

// Observe resynchronizes the shop's bucket with the throttle status the API
// reported on its last response.
func (rl *RateLimiter) Observe(shop string, available, restoreRate float64) {
	bucket := rl.getBucket(shop)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.available = available
	if bucket.available > bucket.maxTokens {
		bucket.maxTokens = bucket.available
	}
	if restoreRate > 0 {
		bucket.restoreRate = restoreRate
	}
	bucket.lastRefill = time.Now()
}

func (rl *RateLimiter) getBucket(shop string) *costBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[shop]
	rl.mu.RUnlock()

	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if bucket, exists = rl.buckets[shop]; exists {
		return bucket
	}

	bucket = newCostBucket(rl.config.MaxAvailable, rl.config.RestoreRate)
	rl.buckets[shop] = bucket
	return bucket
}

// GetStatus returns the current status of every shop bucket.
func (rl *RateLimiter) GetStatus() map[string]BucketStatus {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	status := make(map[string]BucketStatus, len(rl.buckets))
	for shop, bucket := range rl.buckets {
		bucket.mu.Lock()
		status[shop] = BucketStatus{
			Available:    bucket.available,
			MaxAvailable: bucket.maxTokens,
			RestoreRate:  bucket.restoreRate,
		}
		bucket.mu.Unlock()
	}
	return status
}

// BucketStatus represents the current state of a shop's cost bucket.
type BucketStatus struct {
	Available    float64
	MaxAvailable float64
	RestoreRate  float64
}
