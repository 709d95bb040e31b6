package amap_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/NERVsystems/amapmcp/pkg/testutil"
	"github.com/NERVsystems/amapmcp/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key-0123456789"

const geocodeBody = `{
  "status": "1",
  "info": "OK",
  "infocode": "10000",
  "count": "1",
  "geocodes": [{
    "formatted_address": "上海市黄浦区人民广场",
    "country": "中国",
    "province": "上海市",
    "city": "上海市",
    "citycode": "021",
    "district": "黄浦区",
    "street": [],
    "number": [],
    "adcode": "310101",
    "location": "121.48,31.22",
    "level": "兴趣点"
  }]
}`

// newTestClient points a client at p with instant retries.
func newTestClient(t *testing.T, p *testutil.Provider, mutate func(*amap.ClientConfig)) (*amap.Client, *[]time.Duration) {
	t.Helper()

	var delays []time.Duration
	cfg := amap.DefaultClientConfig()
	cfg.BaseURL = p.URL
	cfg.Key = testKey
	cfg.Retry.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := amap.NewClient(cfg, amap.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	return c, &delays
}

func geocodeParams() map[string]string {
	return amap.BuildParams(testKey, &amap.GeocodingRequest{Address: "人民广场", City: "上海"}, testutil.DiscardLogger())
}

func TestInvokeSuccess(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.OK(geocodeBody))
	c, _ := newTestClient(t, p, nil)

	raw, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.NoError(t, err)
	assert.True(t, raw.OK())
	assert.Equal(t, "10000", raw.InfoCode)
	assert.Equal(t, "1", raw.Count)

	var out amap.GeocodingResponse
	require.NoError(t, raw.Decode(&out))
	require.Len(t, out.Geocodes, 1)
	assert.Equal(t, "121.48,31.22", out.Geocodes[0].Location.String())
	assert.Empty(t, out.Geocodes[0].Street.String())

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	q := reqs[0].Query
	assert.Equal(t, testKey, q.Get("key"))
	assert.Equal(t, "人民广场", q.Get("address"))
	assert.Equal(t, "上海", q.Get("city"))
	assert.Equal(t, "false", q.Get("batch"))
	assert.Equal(t, "json", q.Get("output"))
	assert.Len(t, q, 5)
	assert.Equal(t, "AmapMCP/"+version.BuildVersion, reqs[0].Header.Get("User-Agent"))
}

func TestInvokeRetriesServerErrors(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.Response{Status: http.StatusInternalServerError, Body: "oops"})
	c, delays := newTestClient(t, p, nil)

	_, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.Error(t, err)

	var aerr *amap.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, amap.KindServer, aerr.Kind)
	assert.Equal(t, http.StatusInternalServerError, aerr.StatusCode)
	assert.Equal(t, 3, aerr.Attempts)
	assert.Equal(t, 3, p.Count("/v3/geocode/geo"))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestInvokeRecoversAfterTransientFailure(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo",
		testutil.Response{Status: http.StatusBadGateway},
		testutil.OK(geocodeBody),
	)
	c, delays := newTestClient(t, p, nil)

	raw, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.NoError(t, err)
	assert.True(t, raw.OK())
	assert.Equal(t, 2, p.Count("/v3/geocode/geo"))
	assert.Len(t, *delays, 1)
}

func TestInvokeRetriesTimeouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*amap.ClientConfig)
	}{
		{"response header timeout", func(cfg *amap.ClientConfig) { cfg.ReadTimeout = 100 * time.Millisecond }},
		{"client timeout", func(cfg *amap.ClientConfig) { cfg.Timeout = 100 * time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewProvider(t)
			p.Reply("/v3/geocode/geo",
				testutil.Response{Status: http.StatusOK, Body: geocodeBody, Delay: 2 * time.Second},
				testutil.OK(geocodeBody),
			)
			c, delays := newTestClient(t, p, tt.mutate)

			raw, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
			require.NoError(t, err, "a timed out attempt is retried")
			assert.True(t, raw.OK())
			assert.Equal(t, 2, p.Count("/v3/geocode/geo"))
			assert.Equal(t, []time.Duration{time.Second}, *delays)
		})
	}
}

func TestInvokeTimeoutsExhaustAttempts(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.Response{Status: http.StatusOK, Body: geocodeBody, Delay: 2 * time.Second})
	c, _ := newTestClient(t, p, func(cfg *amap.ClientConfig) {
		cfg.ReadTimeout = 50 * time.Millisecond
	})

	_, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.Error(t, err)

	var aerr *amap.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, amap.KindTransport, aerr.Kind)
	assert.Equal(t, 3, aerr.Attempts)
	assert.Equal(t, 3, p.Count("/v3/geocode/geo"))
}

func TestInvokeClientErrorIsNotRetried(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.Response{Status: http.StatusBadRequest, Body: "bad"})
	c, delays := newTestClient(t, p, nil)

	_, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.Error(t, err)
	assert.Equal(t, amap.KindClient, amap.KindOf(err))
	assert.Equal(t, 1, p.Count("/v3/geocode/geo"))
	assert.Empty(t, *delays)
}

func TestInvokeApplicationFailure(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.OK(`{"status":"0","info":"INVALID_USER_KEY","infocode":"10001"}`))
	c, _ := newTestClient(t, p, nil)

	_, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.Error(t, err)

	var aerr *amap.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, amap.KindApplication, aerr.Kind)
	assert.Equal(t, "10001", aerr.InfoCode)
	assert.Equal(t, "INVALID_USER_KEY", aerr.Message)
	assert.Equal(t, 1, p.Count("/v3/geocode/geo"))
}

func TestInvokeMalformedBody(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/ip", testutil.OK(`<html>maintenance</html>`))
	c, _ := newTestClient(t, p, nil)

	_, err := c.Invoke(context.Background(), amap.OpIPLocation, map[string]string{"key": testKey})
	require.Error(t, err)
	assert.Equal(t, amap.KindDecode, amap.KindOf(err))
	assert.Equal(t, 1, p.Count("/v3/ip"))
}

func TestInvokeTransportFailureHidesKey(t *testing.T) {
	p := testutil.NewProvider(t)
	c, delays := newTestClient(t, p, func(cfg *amap.ClientConfig) {
		cfg.Retry.MaxAttempts = 2
	})
	p.Close()

	_, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.Error(t, err)

	var aerr *amap.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, amap.KindTransport, aerr.Kind)
	assert.Equal(t, 2, aerr.Attempts)
	assert.Len(t, *delays, 1)
	assert.NotContains(t, err.Error(), testKey)
}

func TestInvokeRateLimited(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.OK(geocodeBody))
	c, _ := newTestClient(t, p, func(cfg *amap.ClientConfig) {
		cfg.RateLimit = amap.RateLimitConfig{Enabled: true, QPS: 0.001, Burst: 1}
	})

	_, err := c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Invoke(context.Background(), amap.OpGeocoding, geocodeParams())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "rejection must not wait")

	var aerr *amap.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, amap.KindRateLimited, aerr.Kind)
	assert.Greater(t, aerr.RetryAfter, time.Duration(0))
	assert.Equal(t, 1, p.Count("/v3/geocode/geo"))
}

func TestInvokeCanceledContext(t *testing.T) {
	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.OK(geocodeBody))
	c, delays := newTestClient(t, p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Invoke(ctx, amap.OpGeocoding, geocodeParams())
	require.Error(t, err)
	assert.Equal(t, amap.KindCanceled, amap.KindOf(err))
	assert.Empty(t, *delays)
}

func TestNewClientConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*amap.ClientConfig)
	}{
		{"missing key", func(c *amap.ClientConfig) { c.Key = "" }},
		{"relative base url", func(c *amap.ClientConfig) { c.BaseURL = "restapi.amap.com" }},
		{"ftp base url", func(c *amap.ClientConfig) { c.BaseURL = "ftp://restapi.amap.com" }},
		{"bad rate limit", func(c *amap.ClientConfig) { c.RateLimit = amap.RateLimitConfig{Enabled: true} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := amap.DefaultClientConfig()
			cfg.Key = testKey
			tt.mutate(&cfg)

			_, err := amap.NewClient(cfg)
			require.Error(t, err)
			assert.Equal(t, amap.KindConfig, amap.KindOf(err))
		})
	}
}

func TestInvokeUnknownOperation(t *testing.T) {
	p := testutil.NewProvider(t)
	c, _ := newTestClient(t, p, nil)

	_, err := c.Invoke(context.Background(), amap.Operation("teleport"), nil)
	require.Error(t, err)
	assert.Equal(t, amap.KindConfig, amap.KindOf(err))
}
