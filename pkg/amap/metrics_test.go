package amap_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/NERVsystems/amapmcp/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// counterValue sums the data points of the int64 counter name whose
// attributes include every one of attrs.
func counterValue(rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if hasAttributes(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttributes(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}

func histogramCount(rm metricdata.ResourceMetrics, name string) uint64 {
	var total uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				for _, dp := range h.DataPoints {
					total += dp.Count
				}
			}
		}
	}
	return total
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := amap.NewMetrics(provider.Meter("amap-test"))
	require.NoError(t, err)

	p := testutil.NewProvider(t)
	p.Reply("/v3/geocode/geo", testutil.Response{Status: http.StatusBadGateway}, testutil.OK(geocodeBody))
	p.Reply("/v3/ip", testutil.OK(`{"status":"1","province":"北京市","city":"北京市","adcode":"110000"}`))
	p.Reply("/v3/weather/weatherInfo", testutil.OK(`{"status":"0","info":"DAILY_QUERY_OVER_LIMIT","infocode":"10044"}`))

	cfg := amap.DefaultClientConfig()
	cfg.BaseURL = p.URL
	cfg.Key = testKey
	cfg.Retry.Sleep = func(context.Context, time.Duration) error { return nil }
	cfg.RateLimit = amap.RateLimitConfig{
		Enabled:    true,
		QPS:        1000,
		Burst:      1000,
		Operations: map[amap.Operation]amap.Limit{amap.OpIPLocation: {QPS: 0.001, Burst: 1}},
	}
	client, err := amap.NewClient(cfg, amap.WithLogger(testutil.DiscardLogger()), amap.WithMetrics(metrics))
	require.NoError(t, err)

	svc, err := amap.NewService(client, amap.ServiceOptions{
		TTL:     time.Minute,
		Logger:  testutil.DiscardLogger(),
		Metrics: metrics,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	ctx := context.Background()

	// one retry, then a cache hit for the same address
	for i := 0; i < 2; i++ {
		_, err := svc.Geocode(ctx, &amap.GeocodingRequest{Address: "人民广场", City: "上海"})
		require.NoError(t, err)
	}

	// the second address is rejected by the operation bucket
	_, err = svc.IPLocation(ctx, &amap.IPLocationRequest{IP: "114.247.50.2"})
	require.NoError(t, err)
	_, err = svc.IPLocation(ctx, &amap.IPLocationRequest{IP: "202.96.128.86"})
	require.Error(t, err)
	assert.Equal(t, amap.KindRateLimited, amap.KindOf(err))

	_, err = svc.Weather(ctx, &amap.WeatherRequest{City: "110000"})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	geocoding := attribute.String("operation", string(amap.OpGeocoding))
	ipLocation := attribute.String("operation", string(amap.OpIPLocation))
	weather := attribute.String("operation", string(amap.OpCurrentWeather))

	assert.Equal(t, int64(1), counterValue(rm, "amap.retries", geocoding))
	assert.Equal(t, int64(1), counterValue(rm, "amap.requests", geocoding))
	assert.Equal(t, int64(1), counterValue(rm, "amap.cache.lookups", geocoding, attribute.String("result", "miss")))
	assert.Equal(t, int64(1), counterValue(rm, "amap.cache.lookups", geocoding, attribute.String("result", "hit")))

	assert.Equal(t, int64(1), counterValue(rm, "amap.ratelimit.rejections", ipLocation))
	assert.Equal(t, int64(1), counterValue(rm, "amap.requests", ipLocation), "rejected calls are not requests")

	assert.Equal(t, int64(1), counterValue(rm, "amap.failures", weather, attribute.String("kind", string(amap.KindApplication))))
	assert.Zero(t, counterValue(rm, "amap.failures", geocoding))

	assert.Equal(t, uint64(3), histogramCount(rm, "amap.request.duration_ms"))
}
