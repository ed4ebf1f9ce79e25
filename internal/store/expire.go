package store

import (
	"context"
	"time"
)

// Probabilistic active expiration in the Redis style: sample a bounded
// number of keys per tick, and if expired keys make up more than a
// quarter of the sample, assume there's more work and go again
// immediately instead of waiting for the next tick.
const (
	sweepSampleSize     = 20
	sweepRepeatFraction = 0.25
)

// RunSweeper runs the active expiration sweeper until ctx is cancelled. It
// is meant to be started as a single background goroutine per Store.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, onTick func(sampled, expired int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bucket := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bucket = s.sweepOnce(bucket, onTick)
		}
	}
}

// sweepOnce performs one or more sampling passes until the expired fraction
// drops at or below the repeat threshold, returning the bucket to resume
// scanning from on the next tick.
func (s *Store) sweepOnce(startBucket int, onTick func(sampled, expired int)) int {
	bucket := startBucket
	for {
		sampled, expired, next := s.CollectExpired(bucket, sweepSampleSize)
		bucket = next
		if onTick != nil {
			onTick(sampled, expired)
		}
		if sampled == 0 || float64(expired)/float64(sampled) <= sweepRepeatFraction {
			return bucket
		}
	}
}
