// Package runlock serializes workflow runs per complaint with a Redis lease.
//
// The orchestrator itself provides no cross-run mutual exclusion; workers
// take this lock before constructing one. The lease is advisory and
// TTL-bounded: a crashed worker's lock expires rather than wedging the
// complaint forever.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultLeaseTTL = 5 * time.Minute

// ErrRunInProgress indicates another run already holds the complaint's lease.
var ErrRunInProgress = errors.New("a workflow run is already in progress for this complaint")

// Locker acquires and releases per-complaint run leases.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a locker on the given Redis client. A zero ttl uses the
// default lease duration.
func New(client redis.UniversalClient, ttl time.Duration) *Locker {
	if ttl == 0 {
		ttl = defaultLeaseTTL
	}

	return &Locker{client: client, ttl: ttl}
}

// Key returns the Redis key guarding a complaint's runs.
func Key(complaintID string) string {
	return "complaintflow:runlock:" + complaintID
}

// Acquire takes the lease for a complaint, recording the execution id as
// holder. Returns ErrRunInProgress when the lease is already held.
func (l *Locker) Acquire(ctx context.Context, complaintID, executionID string) error {
	ok, err := l.client.SetNX(ctx, Key(complaintID), executionID, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock for complaint %s: %w", complaintID, err)
	}

	if !ok {
		return fmt.Errorf("%w: complaint %s", ErrRunInProgress, complaintID)
	}

	return nil
}

// Release frees the lease if this execution still holds it. A lease taken
// over by another execution after TTL expiry is left alone.
func (l *Locker) Release(ctx context.Context, complaintID, executionID string) error {
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`

	err := l.client.Eval(ctx, script, []string{Key(complaintID)}, executionID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release run lock for complaint %s: %w", complaintID, err)
	}

	return nil
}
