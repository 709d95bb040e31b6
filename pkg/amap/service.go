package amap

import (
	"context"
	"log/slog"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/cache"
)

// Invoker performs a single provider operation.
type Invoker interface {
	Invoke(ctx context.Context, op Operation, params map[string]string) (*RawResponse, error)
	Key() string
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// TTL applies to every operation without an override. Zero disables
	// storing, though concurrent identical calls are still coalesced.
	TTL          time.Duration
	TTLOverrides map[Operation]time.Duration
	Cache        cache.Options
	Logger       *slog.Logger
	Metrics      *Metrics
}

// Service is the per-operation entry point: it validates a request, builds
// its parameters, coalesces identical calls through the cache and decodes
// the typed payload.
type Service struct {
	client       Invoker
	cache        *cache.Coordinator[*RawResponse]
	ttl          time.Duration
	ttlOverrides map[Operation]time.Duration
	logger       *slog.Logger
	metrics      *Metrics
}

// NewService creates a Service over client.
func NewService(client Invoker, opts ServiceOptions) (*Service, error) {
	store, err := cache.New[*RawResponse](opts.Cache)
	if err != nil {
		return nil, &Error{Kind: KindConfig, Message: "cache", Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		client:       client,
		cache:        store,
		ttl:          opts.TTL,
		ttlOverrides: opts.TTLOverrides,
		logger:       logger,
		metrics:      opts.Metrics,
	}, nil
}

// Close stops background cache maintenance.
func (s *Service) Close() {
	s.cache.Stop()
}

// CacheStats exposes the cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *Service) ttlFor(op Operation) time.Duration {
	if ttl, ok := s.ttlOverrides[op]; ok {
		return ttl
	}
	return s.ttl
}

// Fetch runs req through validation, the cache and the Invoker and returns
// the raw envelope.
func (s *Service) Fetch(ctx context.Context, req Request) (*RawResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	op := req.Operation()
	params := BuildParams(s.client.Key(), req, s.logger.With("operation", op))
	key := req.CacheKey()

	raw, result, err := s.cache.Fetch(ctx, key, s.ttlFor(op), func(ctx context.Context) (*RawResponse, error) {
		return s.client.Invoke(ctx, op, params)
	})
	s.metrics.recordCacheLookup(ctx, op, string(result))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("operation served", "operation", op, "cache", result)
	return raw, nil
}

func fetchAs[T any](ctx context.Context, s *Service, req Request) (*T, error) {
	raw, err := s.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	var out T
	if err := raw.Decode(&out); err != nil {
		return nil, &Error{Kind: KindDecode, Op: req.Operation(), Message: "unexpected payload shape", Err: err}
	}
	return &out, nil
}

// Geocode converts an address into coordinates.
func (s *Service) Geocode(ctx context.Context, req *GeocodingRequest) (*GeocodingResponse, error) {
	return fetchAs[GeocodingResponse](ctx, s, req)
}

// ReverseGeocode converts coordinates into an address.
func (s *Service) ReverseGeocode(ctx context.Context, req *ReverseGeocodingRequest) (*ReverseGeocodingResponse, error) {
	return fetchAs[ReverseGeocodingResponse](ctx, s, req)
}

// SearchText searches POIs by keyword.
func (s *Service) SearchText(ctx context.Context, req *PoiTextSearchRequest) (*PoiResponse, error) {
	return fetchAs[PoiResponse](ctx, s, req)
}

// SearchAround searches POIs near a location.
func (s *Service) SearchAround(ctx context.Context, req *PoiAroundSearchRequest) (*PoiResponse, error) {
	return fetchAs[PoiResponse](ctx, s, req)
}

// SearchPolygon searches POIs inside a polygon.
func (s *Service) SearchPolygon(ctx context.Context, req *PoiPolygonSearchRequest) (*PoiResponse, error) {
	return fetchAs[PoiResponse](ctx, s, req)
}

// PoiDetail looks up a POI by id.
func (s *Service) PoiDetail(ctx context.Context, req *PoiDetailRequest) (*PoiResponse, error) {
	return fetchAs[PoiResponse](ctx, s, req)
}

func (s *Service) DrivingRoute(ctx context.Context, req *DrivingRouteRequest) (*RouteResponse, error) {
	return fetchAs[RouteResponse](ctx, s, req)
}

func (s *Service) WalkingRoute(ctx context.Context, req *WalkingRouteRequest) (*RouteResponse, error) {
	return fetchAs[RouteResponse](ctx, s, req)
}

func (s *Service) BicyclingRoute(ctx context.Context, req *BicyclingRouteRequest) (*RouteResponse, error) {
	return fetchAs[RouteResponse](ctx, s, req)
}

func (s *Service) TransitRoute(ctx context.Context, req *TransitRouteRequest) (*TransitRouteResponse, error) {
	return fetchAs[TransitRouteResponse](ctx, s, req)
}

// Distance measures distances from one or more origins.
func (s *Service) Distance(ctx context.Context, req *DistanceRequest) (*DistanceResponse, error) {
	return fetchAs[DistanceResponse](ctx, s, req)
}

// Weather returns live weather, or the forecast when req.Forecast is set.
func (s *Service) Weather(ctx context.Context, req *WeatherRequest) (*WeatherResponse, error) {
	return fetchAs[WeatherResponse](ctx, s, req)
}

// IPLocation locates an IP address.
func (s *Service) IPLocation(ctx context.Context, req *IPLocationRequest) (*IPLocationResponse, error) {
	return fetchAs[IPLocationResponse](ctx, s, req)
}
