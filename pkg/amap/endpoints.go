// Package amap provides a resilient client for the Amap (高德) Web Service API.
package amap

import (
	"fmt"
	"strings"

	"github.com/NERVsystems/amapmcp/pkg/version"
)

// DefaultBaseURL is the public Amap REST endpoint.
const DefaultBaseURL = "https://restapi.amap.com"

// DefaultUserAgent is sent on every outbound request.
var DefaultUserAgent = version.UserAgent()

// Operation identifies one provider call.
type Operation string

const (
	OpGeocoding        Operation = "geocoding"
	OpReverseGeocoding Operation = "reverse_geocoding"
	OpPoiTextSearch    Operation = "poi_text_search"
	OpPoiAroundSearch  Operation = "poi_around_search"
	OpPoiPolygonSearch Operation = "poi_polygon_search"
	OpPoiDetail        Operation = "poi_detail"
	OpDrivingRoute     Operation = "driving_route"
	OpWalkingRoute     Operation = "walking_route"
	OpBicyclingRoute   Operation = "bicycling_route"
	OpTransitRoute     Operation = "transit_route"
	OpDistance         Operation = "distance"
	OpCurrentWeather   Operation = "current_weather"
	OpForecastWeather  Operation = "forecast_weather"
	OpIPLocation       Operation = "ip_location"
)

// Operations lists every operation the client knows about.
var Operations = []Operation{
	OpGeocoding,
	OpReverseGeocoding,
	OpPoiTextSearch,
	OpPoiAroundSearch,
	OpPoiPolygonSearch,
	OpPoiDetail,
	OpDrivingRoute,
	OpWalkingRoute,
	OpBicyclingRoute,
	OpTransitRoute,
	OpDistance,
	OpCurrentWeather,
	OpForecastWeather,
	OpIPLocation,
}

// Endpoints maps operations to provider paths. Geocoding, distance, weather
// and IP location live on the v3 family; POI and direction calls use v5,
// which has a different payload envelope.
type Endpoints map[Operation]string

// DefaultEndpoints returns the standard Amap path table.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		OpGeocoding:        "/v3/geocode/geo",
		OpReverseGeocoding: "/v3/geocode/regeo",
		OpPoiTextSearch:    "/v5/place/text",
		OpPoiAroundSearch:  "/v5/place/around",
		OpPoiPolygonSearch: "/v5/place/polygon",
		OpPoiDetail:        "/v5/place/detail",
		OpDrivingRoute:     "/v5/direction/driving",
		OpWalkingRoute:     "/v5/direction/walking",
		OpBicyclingRoute:   "/v5/direction/bicycling",
		OpTransitRoute:     "/v5/direction/transit/integrated",
		OpDistance:         "/v3/distance",
		OpCurrentWeather:   "/v3/weather/weatherInfo",
		OpForecastWeather:  "/v3/weather/weatherInfo",
		OpIPLocation:       "/v3/ip",
	}
}

// WithOverrides returns a copy of e with the given paths replaced. Keys are
// operation names; unknown keys are an error.
func (e Endpoints) WithOverrides(overrides map[string]string) (Endpoints, error) {
	out := make(Endpoints, len(e))
	for op, path := range e {
		out[op] = path
	}

	for name, path := range overrides {
		op := Operation(strings.ToLower(name))
		if _, ok := out[op]; !ok {
			return nil, fmt.Errorf("unknown operation in endpoint table: %q", name)
		}
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("endpoint path for %s must start with '/': %q", op, path)
		}
		out[op] = path
	}

	return out, nil
}

// Path returns the endpoint path for op.
func (e Endpoints) Path(op Operation) (string, bool) {
	p, ok := e[op]
	return p, ok
}
