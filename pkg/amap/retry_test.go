package amap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps returns a Sleep hook that records delays without waiting.
func recordSleeps(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestRetryDelay(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{60, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, p.Delay(tt.attempt))
		})
	}
}

func TestRetryDelayFlatMultiplier(t *testing.T) {
	p := RetryPolicy{InitialDelay: 500 * time.Millisecond, Multiplier: 0}
	assert.Equal(t, 500*time.Millisecond, p.Delay(4))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"transport", &Error{Kind: KindTransport}, OutcomeRetryable},
		{"server", &Error{Kind: KindServer, StatusCode: 503}, OutcomeRetryable},
		{"wrapped server", fmt.Errorf("outer: %w", &Error{Kind: KindServer}), OutcomeRetryable},
		{"client", &Error{Kind: KindClient, StatusCode: 400}, OutcomeFatal},
		{"application", &Error{Kind: KindApplication, InfoCode: "10003"}, OutcomeFatal},
		{"rate limited", &Error{Kind: KindRateLimited}, OutcomeFatal},
		{"decode", &Error{Kind: KindDecode}, OutcomeFatal},
		{"canceled", context.Canceled, OutcomeFatal},
		{"bare deadline", context.DeadlineExceeded, OutcomeFatal},
		{"canceled kind", &Error{Kind: KindCanceled, Err: context.Canceled}, OutcomeFatal},
		{"transport timeout", &Error{Kind: KindTransport, Err: context.DeadlineExceeded}, OutcomeRetryable},
		{"plain error", errors.New("boom"), OutcomeFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryBackoffOnServerErrors(t *testing.T) {
	var delays []time.Duration
	p := DefaultRetryPolicy()
	p.Sleep = recordSleeps(&delays)

	var retried []int
	p.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		return &Error{Kind: KindServer, Op: OpGeocoding, StatusCode: 500, Message: "internal"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
	assert.Equal(t, []int{1, 2}, retried)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, KindServer, aerr.Kind)
	assert.Equal(t, 3, aerr.Attempts)
	assert.Equal(t, 500, aerr.StatusCode)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryStopsOnFatal(t *testing.T) {
	for _, kind := range []Kind{KindClient, KindApplication, KindDecode} {
		t.Run(string(kind), func(t *testing.T) {
			var delays []time.Duration
			p := DefaultRetryPolicy()
			p.Sleep = recordSleeps(&delays)

			calls := 0
			err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
				calls++
				return &Error{Kind: kind, StatusCode: 400}
			})

			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, delays)
			assert.Equal(t, kind, KindOf(err))
		})
	}
}

func TestRetryRecovers(t *testing.T) {
	var delays []time.Duration
	p := DefaultRetryPolicy()
	p.Sleep = recordSleeps(&delays)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt == 1 {
			return &Error{Kind: KindTransport, Message: "connection reset"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{time.Second}, delays)
}

func TestRetryZeroAttemptsMeansOne(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 0, InitialDelay: time.Second, Multiplier: 2}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return &Error{Kind: KindServer}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := DefaultRetryPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		return &Error{Kind: KindServer, Op: OpDistance}
	})

	require.Error(t, err)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryDefaultSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := RetryPolicy{MaxAttempts: 2, InitialDelay: time.Hour, Multiplier: 1}
	start := time.Now()
	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		return &Error{Kind: KindTransport}
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, KindCanceled, KindOf(err))
}

func TestRetryDelayMatchesSchedule(t *testing.T) {
	p := RetryPolicy{InitialDelay: 3 * time.Second, Multiplier: 2, MaxDelay: 10 * time.Second}

	var got []time.Duration
	for n := 1; n <= 4; n++ {
		got = append(got, p.Delay(n))
	}
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second, 10 * time.Second, 10 * time.Second}, got)
}

func TestRetrySleepFailureStopsRetrying(t *testing.T) {
	sleepErr := errors.New("clock stopped")
	p := DefaultRetryPolicy()
	p.Sleep = func(context.Context, time.Duration) error { return sleepErr }

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return &Error{Kind: KindTransport, Op: OpCurrentWeather}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.ErrorIs(t, err, sleepErr)
}
