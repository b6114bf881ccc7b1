package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/vetnova/clinic-platform/config"
	"github.com/vetnova/clinic-platform/services"
	"go.uber.org/zap"
)

// CounterStore is the narrow interface to the shared sliding-window counter.
// Hit records one event for key and reports the number of events inside the
// trailing window (including this one) plus the earliest event time in the
// window. The store is expected to provide its own concurrency safety.
type CounterStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, earliest time.Time, err error)
}

// Service applies path-classified sliding-window rate limits against a shared
// counter store. A nil store means rate limiting is disabled for this
// deployment and every check is a no-op that succeeds.
type Service struct {
	store        CounterStore
	buckets      config.BucketConfig
	checkTimeout time.Duration
	logger       *zap.Logger
}

// NewService creates a new rate limit Service. Pass a nil store to disable
// rate limiting (fail-open for missing infrastructure; authentication is
// unaffected either way).
func NewService(store CounterStore, cfg config.RateLimitConfig, logger *zap.Logger) *Service {
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{
		store:        store,
		buckets:      cfg.Buckets,
		checkTimeout: timeout,
		logger:       logger,
	}
}

// Enabled reports whether a counter store is configured
func (s *Service) Enabled() bool {
	return s.store != nil
}

// Check applies the bucket's sliding-window limit to the given client
// identifier key. It returns services.ErrRateLimitExceeded (with the Result
// still populated for response headers) when the window is exhausted. Store
// failures are returned as-is: a broken store must surface, not silently
// fail open per request.
func (s *Service) Check(ctx context.Context, bucket Bucket, identifier string) (*Result, error) {
	if !s.Enabled() {
		return &Result{
			Limit:     bucket.Limit.Requests,
			Remaining: bucket.Limit.Requests,
			Reset:     time.Now().Add(bucket.Limit.Window),
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	key := fmt.Sprintf("%s:%s", bucket.Prefix, identifier)
	count, earliest, err := s.store.Hit(ctx, key, bucket.Limit.Window)
	if err != nil {
		return nil, fmt.Errorf("rate limit check for bucket %s: %w", bucket.Name, err)
	}

	reset := earliest.Add(bucket.Limit.Window)
	if earliest.IsZero() {
		reset = time.Now().Add(bucket.Limit.Window)
	}

	result := &Result{
		Limit:     bucket.Limit.Requests,
		Remaining: bucket.Limit.Requests - count,
		Reset:     reset,
	}
	if result.Remaining < 0 {
		result.Remaining = 0
		s.logger.Warn("rate limit exceeded",
			zap.String("bucket", bucket.Name),
			zap.String("identifier", identifier),
			zap.Int("limit", result.Limit),
			zap.Time("reset", result.Reset))
		return result, services.NewDomainError(services.ErrorTypeRateLimit, "rate limit exceeded", nil).
			WithDetail("bucket", bucket.Name).
			WithDetail("limit", result.Limit)
	}

	return result, nil
}
