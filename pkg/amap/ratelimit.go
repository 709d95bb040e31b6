package amap

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limit is a token bucket setting.
type Limit struct {
	QPS   float64
	Burst int
}

// RateLimitConfig configures the client side token buckets. Operations
// overrides apply on top of the global bucket.
type RateLimitConfig struct {
	Enabled    bool
	QPS        float64
	Burst      int
	Operations map[Operation]Limit
}

// DefaultRateLimitConfig matches the provider's default account quota.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: true,
		QPS:     100,
		Burst:   200,
	}
}

// RateLimiter rejects calls that exceed the configured rates instead of
// queueing them.
type RateLimiter struct {
	enabled bool
	global  *rate.Limiter
	perOp   map[Operation]*rate.Limiter
	now     func() time.Time
}

// NewRateLimiter builds the limiter set. A disabled config yields a limiter
// that always allows.
func NewRateLimiter(cfg RateLimitConfig) (*RateLimiter, error) {
	rl := &RateLimiter{
		enabled: cfg.Enabled,
		perOp:   make(map[Operation]*rate.Limiter),
		now:     time.Now,
	}
	if !cfg.Enabled {
		return rl, nil
	}

	if err := validateLimit(cfg.QPS, cfg.Burst); err != nil {
		return nil, &Error{Kind: KindConfig, Message: "rate limit: " + err.Error()}
	}
	rl.global = rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst)

	for op, l := range cfg.Operations {
		if err := validateLimit(l.QPS, l.Burst); err != nil {
			return nil, &Error{Kind: KindConfig, Op: op, Message: "rate limit: " + err.Error()}
		}
		rl.perOp[op] = rate.NewLimiter(rate.Limit(l.QPS), l.Burst)
	}

	return rl, nil
}

func validateLimit(qps float64, burst int) error {
	if qps <= 0 {
		return fmt.Errorf("qps must be positive, got %v", qps)
	}
	if burst < 1 {
		return fmt.Errorf("burst must be at least 1, got %d", burst)
	}
	return nil
}

// Allow takes a token for op from the operation bucket and the global
// bucket. When either would make the caller wait, no token is consumed and
// a KindRateLimited error carrying the required wait is returned.
func (rl *RateLimiter) Allow(op Operation) error {
	if rl == nil || !rl.enabled {
		return nil
	}
	now := rl.now()

	var held *rate.Reservation
	if l, ok := rl.perOp[op]; ok {
		r := l.ReserveN(now, 1)
		if wait, ok := tooSoon(r, now); ok {
			return rateLimited(op, wait, "operation")
		}
		held = r
	}

	r := rl.global.ReserveN(now, 1)
	if wait, ok := tooSoon(r, now); ok {
		if held != nil {
			held.CancelAt(now)
		}
		return rateLimited(op, wait, "global")
	}

	return nil
}

// tooSoon cancels r and reports the wait when r is not usable right away.
func tooSoon(r *rate.Reservation, now time.Time) (time.Duration, bool) {
	if !r.OK() {
		return 0, true
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d, true
	}
	return 0, false
}

func rateLimited(op Operation, wait time.Duration, scope string) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Op:         op,
		Message:    fmt.Sprintf("%s rate limit exceeded, retry after %s", scope, wait.Round(time.Millisecond)),
		RetryAfter: wait,
	}
}
