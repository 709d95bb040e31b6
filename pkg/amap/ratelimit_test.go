package amap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(rl *RateLimiter, at time.Time) *time.Time {
	now := at
	rl.now = func() time.Time { return now }
	return &now
}

func TestRateLimiterRejectsWithoutWaiting(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{Enabled: true, QPS: 1, Burst: 1})
	require.NoError(t, err)
	fixedClock(rl, time.Unix(1700000000, 0))

	require.NoError(t, rl.Allow(OpGeocoding))

	err = rl.Allow(OpGeocoding)
	require.Error(t, err)

	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, KindRateLimited, aerr.Kind)
	assert.Equal(t, OpGeocoding, aerr.Op)
	assert.Equal(t, time.Second, aerr.RetryAfter)
}

func TestRateLimiterRefills(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{Enabled: true, QPS: 2, Burst: 1})
	require.NoError(t, err)
	now := fixedClock(rl, time.Unix(1700000000, 0))

	require.NoError(t, rl.Allow(OpDistance))
	require.Error(t, rl.Allow(OpDistance))

	*now = now.Add(500 * time.Millisecond)
	assert.NoError(t, rl.Allow(OpDistance))
}

func TestRateLimiterPerOperation(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{
		Enabled: true,
		QPS:     100,
		Burst:   100,
		Operations: map[Operation]Limit{
			OpDrivingRoute: {QPS: 1, Burst: 1},
		},
	})
	require.NoError(t, err)
	fixedClock(rl, time.Unix(1700000000, 0))

	require.NoError(t, rl.Allow(OpDrivingRoute))
	assert.Equal(t, KindRateLimited, KindOf(rl.Allow(OpDrivingRoute)))

	// other operations only see the global bucket
	assert.NoError(t, rl.Allow(OpWalkingRoute))
}

func TestRateLimiterGlobalRejectionReturnsOperationToken(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{
		Enabled: true,
		QPS:     1,
		Burst:   1,
		Operations: map[Operation]Limit{
			OpGeocoding: {QPS: 1, Burst: 1},
		},
	})
	require.NoError(t, err)
	fixedClock(rl, time.Unix(1700000000, 0))

	// drain the global bucket through another operation
	require.NoError(t, rl.Allow(OpIPLocation))

	err = rl.Allow(OpGeocoding)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global")

	// the geocoding bucket still holds its token
	assert.InDelta(t, 1.0, rl.perOp[OpGeocoding].TokensAt(rl.now()), 0.001)
}

func TestRateLimiterDisabled(t *testing.T) {
	rl, err := NewRateLimiter(RateLimitConfig{Enabled: false})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		require.NoError(t, rl.Allow(OpGeocoding))
	}

	var nilLimiter *RateLimiter
	assert.NoError(t, nilLimiter.Allow(OpGeocoding))
}

func TestRateLimiterConfigErrors(t *testing.T) {
	_, err := NewRateLimiter(RateLimitConfig{Enabled: true, QPS: 0, Burst: 10})
	assert.Equal(t, KindConfig, KindOf(err))

	_, err = NewRateLimiter(RateLimitConfig{Enabled: true, QPS: 10, Burst: 0})
	assert.Equal(t, KindConfig, KindOf(err))

	_, err = NewRateLimiter(RateLimitConfig{
		Enabled:    true,
		QPS:        10,
		Burst:      10,
		Operations: map[Operation]Limit{OpWalkingRoute: {QPS: -1, Burst: 1}},
	})
	assert.Equal(t, KindConfig, KindOf(err))
}
