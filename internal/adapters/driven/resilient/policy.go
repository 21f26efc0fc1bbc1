// Package resilient wraps AI provider adapters with a per-call timeout, a
// token bucket rate limiter and retry with exponential backoff on transient
// failures. Core algorithms never retry; only these wrappers do.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/logger"
)

// RateLimitConfig holds rate limiting configuration for a provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit (0 = unlimited).
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// Policy configures one wrapped service.
type Policy struct {
	// Timeout bounds each attempt (0 = no per-attempt timeout).
	Timeout time.Duration

	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// RateLimitBackoff pauses all calls after a rate limit response.
	RateLimitBackoff time.Duration

	Rate RateLimitConfig
}

// DefaultPolicies provides conservative defaults per provider.
var DefaultPolicies = map[domain.AIProvider]Policy{
	domain.AIProviderOllama: {
		Timeout: 120 * time.Second, MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second,
	},
	domain.AIProviderOpenAI: {
		Timeout: 60 * time.Second, MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 20 * time.Second,
		RateLimitBackoff: 10 * time.Second,
		Rate:             RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10},
	},
	domain.AIProviderAnthropic: {
		Timeout: 120 * time.Second, MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 20 * time.Second,
		RateLimitBackoff: 10 * time.Second,
		Rate:             RateLimitConfig{RequestsPerSecond: 2, BurstSize: 4},
	},
	domain.AIProviderGemini: {
		Timeout: 60 * time.Second, MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 20 * time.Second,
		RateLimitBackoff: 10 * time.Second,
		Rate:             RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10},
	},
}

// PolicyFor returns the default policy for a provider. In-process
// providers get a single attempt with no limits.
func PolicyFor(provider domain.AIProvider) Policy {
	if p, ok := DefaultPolicies[provider]; ok {
		return p
	}
	return Policy{MaxAttempts: 1}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// executor runs calls under a policy. It is safe for concurrent use.
type executor struct {
	name    string
	policy  Policy
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func newExecutor(name string, p Policy) *executor {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	e := &executor{name: name, policy: p, sleep: sleepCtx}
	if p.Rate.RequestsPerSecond > 0 {
		burst := max(p.Rate.BurstSize, 1)
		e.limiter = rate.NewLimiter(rate.Limit(p.Rate.RequestsPerSecond), burst)
	}
	return e
}

// do runs op until it succeeds, fails permanently, or attempts run out.
func (e *executor) do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if werr := e.wait(ctx); werr != nil {
			return werr
		}
		err = e.attempt(ctx, op)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsTransient(err) || attempt == e.policy.MaxAttempts {
			break
		}
		if errors.Is(err, domain.ErrRateLimited) {
			e.backoff()
		}
		delay := e.delay(attempt)
		logger.L().Debug("retrying provider call",
			zap.String("service", e.name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if serr := e.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return err
}

func (e *executor) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if e.policy.Timeout <= 0 {
		return op(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.policy.Timeout)
	defer cancel()
	err := op(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%s: attempt timed out after %s: %w", e.name, e.policy.Timeout, context.DeadlineExceeded)
	}
	return err
}

// wait honours any rate limit backoff, then the token bucket.
func (e *executor) wait(ctx context.Context) error {
	e.mu.Lock()
	retryAt := e.retryAt
	e.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		if err := e.sleep(ctx, d); err != nil {
			return err
		}
	}
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

func (e *executor) backoff() {
	if e.policy.RateLimitBackoff <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if at := time.Now().Add(e.policy.RateLimitBackoff); at.After(e.retryAt) {
		e.retryAt = at
	}
}

func (e *executor) delay(attempt int) time.Duration {
	d := e.policy.BaseDelay << (attempt - 1)
	if e.policy.MaxDelay > 0 && (d > e.policy.MaxDelay || d <= 0) {
		d = e.policy.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
