package amap

import (
	"context"
	"errors"
	"math"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Outcome is the retry classification of a single attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Classify decides whether err is worth another attempt. Only transport
// failures, timeouts included, and 5xx responses are transient. A bare
// context error is the caller giving up and never is.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if IsRetryable(err) {
		return OutcomeRetryable
	}
	return OutcomeFatal
}

// RetryPolicy is an exponential backoff without jitter.
type RetryPolicy struct {
	// MaxAttempts counts every attempt including the first. Zero means one.
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration

	// Sleep waits between attempts; nil uses a timer bound to ctx.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy returns three attempts starting at one second and
// doubling up to thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// newBackOff builds the delay schedule: InitialDelay growing by Multiplier
// and capped at MaxDelay, with no randomization and no elapsed time limit.
func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = max(p.InitialDelay, 0)
	b.Multiplier = max(p.Multiplier, 1)
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Delay returns the wait after failed attempt n (1-based):
// min(InitialDelay * Multiplier^(n-1), MaxDelay).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	b := p.newBackOff()
	var d time.Duration
	for i := 0; i < n; i++ {
		d = b.NextBackOff()
	}
	return d
}

// Do runs op until it succeeds, fails fatally or the attempts run out. The
// returned error carries the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := backoff.WithContext(
		backoff.WithMaxRetries(p.newBackOff(), uint64(p.attempts()-1)),
		ctx,
	)

	var timer backoff.Timer
	var sleepErr error
	if p.Sleep != nil {
		timer = &sleepTimer{
			ctx:   ctx,
			sleep: p.Sleep,
			c:     make(chan time.Time, 1),
			onErr: func(err error) {
				sleepErr = err
				cancel()
			},
		}
	}

	var (
		attempt int
		last    error
		fatal   bool
	)
	err := backoff.RetryNotifyWithTimer(func() error {
		attempt++
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		last = err
		if Classify(err) != OutcomeRetryable {
			fatal = true
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
	}, timer)

	switch {
	case err == nil:
		return nil
	case !fatal && ctx.Err() != nil:
		cause := sleepErr
		if cause == nil {
			cause = ctx.Err()
		}
		return &Error{
			Kind:     KindCanceled,
			Op:       opOf(last),
			Message:  "canceled while waiting to retry",
			Attempts: attempt,
			Err:      cause,
		}
	default:
		return withAttempts(last, attempt)
	}
}

// sleepTimer runs the backoff wait through RetryPolicy.Sleep. A failed sleep
// is reported to onErr, which cancels the retry context so the loop stops.
type sleepTimer struct {
	ctx   context.Context
	sleep func(ctx context.Context, d time.Duration) error
	c     chan time.Time
	onErr func(error)
}

func (t *sleepTimer) Start(d time.Duration) {
	if err := t.sleep(t.ctx, d); err != nil {
		t.onErr(err)
		return
	}
	t.c <- time.Now()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time {
	return t.c
}

// withAttempts wraps err into an *Error of the same kind with Attempts set.
func withAttempts(err error, attempts int) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return &Error{
		Kind:       e.Kind,
		Op:         e.Op,
		StatusCode: e.StatusCode,
		InfoCode:   e.InfoCode,
		Message:    e.Message,
		RetryAfter: e.RetryAfter,
		Attempts:   attempts,
		Err:        err,
	}
}

func opOf(err error) Operation {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
