package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/commerce-tracker/internal/tracker"
	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// DefaultClaimTTL bounds how long a reported sale blocks a duplicate report.
const DefaultClaimTTL = 30 * time.Minute

// SaleClaims hands out one claim per payment id. A claim is a lock that is
// left to expire rather than released, so it doubles as a "reported" marker
// for the TTL window. It implements tracker.SaleClaimer.
type SaleClaims struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSaleClaims creates a claimer backed by Redis.
func NewSaleClaims(client *redis.Client, ttl time.Duration) *SaleClaims {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &SaleClaims{client: client, ttl: ttl}
}

// Claim acquires the sale lock for paymentID. The returned release func is
// only needed when reporting failed and the claim should be given back.
func (c *SaleClaims) Claim(ctx context.Context, paymentID int64) (tracker.ReleaseFunc, bool, error) {
	var lock DistLock = NewRedisLock(c.client, fmt.Sprintf("sale:%d", paymentID), c.ttl)
	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return lock.Release, true, nil
}
