package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
	"go.uber.org/zap"

	"github.com/learnloop/backend/internal/models"
)

// ResilientGenerator wraps a ContentGenerator with a circuit breaker, retry
// with backoff, a concurrency bulkhead and a rate limiter.
type ResilientGenerator struct {
	inner          ContentGenerator
	circuitBreaker circuitbreaker.CircuitBreaker[[]models.Exercise]
	retrier        retry.Retry[[]models.Exercise]
	bulkhead       bulkhead.Bulkhead[[]models.Exercise]
	rateLimit      ratelimit.RateLimiter
	log            *zap.Logger
	name           string
}

type ResilientConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	TripAfter     int
	OpenTimeout   time.Duration
	MaxConcurrent int
	RatePerSecond int
}

func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      4 * time.Second,
		TripAfter:     3,
		OpenTimeout:   60 * time.Second,
		MaxConcurrent: 5,
		RatePerSecond: 2,
	}
}

func NewResilientGenerator(inner ContentGenerator, name string, cfg ResilientConfig, log *zap.Logger) *ResilientGenerator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = 3
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}

	rg := &ResilientGenerator{
		inner: inner,
		log:   log.Named("generator.resilience"),
		name:  name,
	}

	tripAfter := cfg.TripAfter
	rg.circuitBreaker = circuitbreaker.New[[]models.Exercise](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= tripAfter
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			rg.log.Warn("circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	rg.retrier = retry.New[[]models.Exercise](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})

	rg.bulkhead = bulkhead.New[[]models.Exercise](bulkhead.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		MaxQueue:      cfg.MaxConcurrent * 2,
		QueueTimeout:  10 * time.Second,
	})

	rg.rateLimit = ratelimit.New(&ratelimit.Config{
		Rate:     cfg.RatePerSecond,
		Burst:    cfg.RatePerSecond * 3,
		Interval: time.Second,
	})

	return rg
}

func (g *ResilientGenerator) Generate(ctx context.Context, req GenerateRequest) ([]models.Exercise, error) {
	if !g.rateLimit.Allow(ctx, g.name) {
		return nil, fmt.Errorf("%w: rate limit exceeded for %s", ErrGenerationFailure, g.name)
	}

	attempt := func(ctx context.Context) ([]models.Exercise, error) {
		return g.bulkhead.Execute(ctx, func(ctx context.Context) ([]models.Exercise, error) {
			return g.inner.Generate(ctx, req)
		})
	}

	return g.circuitBreaker.Execute(ctx, func(ctx context.Context) ([]models.Exercise, error) {
		return g.retrier.Do(ctx, attempt)
	})
}

func (g *ResilientGenerator) Close() error {
	return g.rateLimit.Close()
}

// isRetryable reports whether another attempt could succeed: throttling,
// upstream 5xx, and malformed model output. Cancellation and other client
// errors are final.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}

	switch statusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// statusCode extracts the HTTP status from a provider SDK error, or 0.
func statusCode(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return openAIStatus(err)
}
