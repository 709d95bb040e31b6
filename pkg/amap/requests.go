package amap

import (
	"net"
	"strconv"
	"strings"
)

// Request is a provider call description. AppendParams is the explicit
// field-to-parameter table for the type; embedded base requests append
// their own fields first.
type Request interface {
	Operation() Operation
	AppendParams(b *ParamBuilder)
	// CacheKey is derived from the discriminating fields only.
	CacheKey() string
	// Validate checks required fields and normalises coordinates in place.
	Validate() error
}

const outputJSON = "json"

func cacheKey(op Operation, parts ...string) string {
	var sb strings.Builder
	sb.WriteString(string(op))
	for _, p := range parts {
		sb.WriteByte(':')
		sb.WriteString(strings.TrimSpace(p))
	}
	return sb.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func intOrDefault(v, def int) string {
	if v <= 0 {
		return strconv.Itoa(def)
	}
	return strconv.Itoa(v)
}

func optionalInt(b *ParamBuilder, name string, v int) {
	if v > 0 {
		b.Value(name, v)
	}
}

// GeocodingRequest converts a structured address into coordinates.
type GeocodingRequest struct {
	Address string
	City    string
	Batch   bool
}

func (r *GeocodingRequest) Operation() Operation { return OpGeocoding }

func (r *GeocodingRequest) AppendParams(b *ParamBuilder) {
	b.String("address", r.Address).
		String("city", r.City).
		Value("batch", r.Batch).
		String("output", outputJSON)
}

func (r *GeocodingRequest) CacheKey() string {
	return cacheKey(OpGeocoding, r.Address, r.City)
}

func (r *GeocodingRequest) Validate() error {
	if isBlank(r.Address) {
		return invalidRequest(OpGeocoding, "address must not be empty")
	}
	return nil
}

// ReverseGeocodingRequest converts a "<lon>,<lat>" pair into an address.
type ReverseGeocodingRequest struct {
	Location   string
	PoiType    string
	Radius     int // meters, defaults to 1000
	Extensions string
	RoadLevel  string
	Batch      bool
}

const defaultRegeoRadius = 1000

func (r *ReverseGeocodingRequest) Operation() Operation { return OpReverseGeocoding }

func (r *ReverseGeocodingRequest) AppendParams(b *ParamBuilder) {
	b.String("location", r.Location).
		String("poitype", r.PoiType).
		String("radius", intOrDefault(r.Radius, defaultRegeoRadius)).
		String("extensions", orDefault(r.Extensions, "base")).
		Value("batch", r.Batch).
		String("roadlevel", orDefault(r.RoadLevel, "0")).
		String("output", outputJSON)
}

func (r *ReverseGeocodingRequest) CacheKey() string {
	return cacheKey(OpReverseGeocoding, r.Location, intOrDefault(r.Radius, defaultRegeoRadius))
}

func (r *ReverseGeocodingRequest) Validate() error {
	loc, err := NormalizeLocation(r.Location)
	if err != nil {
		return invalidRequest(OpReverseGeocoding, "location: %v", err)
	}
	r.Location = loc
	if r.Radius < 0 || r.Radius > 3000 {
		return invalidRequest(OpReverseGeocoding, "radius must be between 0 and 3000 meters")
	}
	return nil
}

// PoiPaging is shared by the v5 POI searches.
type PoiPaging struct {
	PageSize   int
	PageNum    int
	ShowFields string
}

func (p *PoiPaging) appendParams(b *ParamBuilder) {
	optionalInt(b, "page_size", p.PageSize)
	optionalInt(b, "page_num", p.PageNum)
	b.String("show_fields", p.ShowFields)
}

func (p *PoiPaging) validate(op Operation) error {
	if p.PageSize < 0 || p.PageSize > 25 {
		return invalidRequest(op, "page_size must be between 1 and 25")
	}
	if p.PageNum < 0 || p.PageNum > 100 {
		return invalidRequest(op, "page_num must be between 1 and 100")
	}
	return nil
}

func (p *PoiPaging) pageKey() string {
	return intOrDefault(p.PageNum, 1)
}

// PoiTextSearchRequest is a keyword POI search.
type PoiTextSearchRequest struct {
	PoiPaging
	Keywords  string
	Types     string
	Region    string
	CityLimit *bool
}

func (r *PoiTextSearchRequest) Operation() Operation { return OpPoiTextSearch }

func (r *PoiTextSearchRequest) AppendParams(b *ParamBuilder) {
	r.PoiPaging.appendParams(b)
	b.String("keywords", r.Keywords).
		String("types", r.Types).
		String("region", r.Region).
		Bool("city_limit", r.CityLimit).
		String("output", outputJSON)
}

func (r *PoiTextSearchRequest) CacheKey() string {
	limit := "false"
	if r.CityLimit != nil && *r.CityLimit {
		limit = "true"
	}
	return cacheKey(OpPoiTextSearch, r.Keywords, r.Region, limit, r.pageKey())
}

func (r *PoiTextSearchRequest) Validate() error {
	if isBlank(r.Keywords) {
		return invalidRequest(OpPoiTextSearch, "keywords must not be empty")
	}
	return r.PoiPaging.validate(OpPoiTextSearch)
}

// PoiAroundSearchRequest searches POIs within a radius of a point.
type PoiAroundSearchRequest struct {
	PoiPaging
	Location string
	Keywords string
	Types    string
	Radius   int // meters, provider default 5000
	SortRule string
}

func (r *PoiAroundSearchRequest) Operation() Operation { return OpPoiAroundSearch }

func (r *PoiAroundSearchRequest) AppendParams(b *ParamBuilder) {
	r.PoiPaging.appendParams(b)
	b.String("location", r.Location).
		String("keywords", r.Keywords).
		String("types", r.Types)
	optionalInt(b, "radius", r.Radius)
	b.String("sortrule", r.SortRule).
		String("output", outputJSON)
}

func (r *PoiAroundSearchRequest) CacheKey() string {
	return cacheKey(OpPoiAroundSearch, r.Location, r.Keywords, strconv.Itoa(r.Radius), r.pageKey())
}

func (r *PoiAroundSearchRequest) Validate() error {
	loc, err := NormalizeLocation(r.Location)
	if err != nil {
		return invalidRequest(OpPoiAroundSearch, "location: %v", err)
	}
	r.Location = loc
	if r.Radius < 0 || r.Radius > 50000 {
		return invalidRequest(OpPoiAroundSearch, "radius must be between 0 and 50000 meters")
	}
	return r.PoiPaging.validate(OpPoiAroundSearch)
}

// PoiPolygonSearchRequest searches POIs inside a polygon given as
// '|' separated "<lon>,<lat>" vertices.
type PoiPolygonSearchRequest struct {
	PoiPaging
	Polygon  string
	Keywords string
	Types    string
}

func (r *PoiPolygonSearchRequest) Operation() Operation { return OpPoiPolygonSearch }

func (r *PoiPolygonSearchRequest) AppendParams(b *ParamBuilder) {
	r.PoiPaging.appendParams(b)
	b.String("polygon", r.Polygon).
		String("keywords", r.Keywords).
		String("types", r.Types).
		String("output", outputJSON)
}

func (r *PoiPolygonSearchRequest) CacheKey() string {
	return cacheKey(OpPoiPolygonSearch, r.Polygon, r.Keywords, r.pageKey())
}

func (r *PoiPolygonSearchRequest) Validate() error {
	if isBlank(r.Polygon) {
		return invalidRequest(OpPoiPolygonSearch, "polygon must not be empty")
	}
	poly, err := normalizeLocationList(r.Polygon)
	if err != nil {
		return invalidRequest(OpPoiPolygonSearch, "polygon: %v", err)
	}
	r.Polygon = poly
	return r.PoiPaging.validate(OpPoiPolygonSearch)
}

// PoiDetailRequest looks up a POI by id.
type PoiDetailRequest struct {
	ID         string
	ShowFields string
}

func (r *PoiDetailRequest) Operation() Operation { return OpPoiDetail }

func (r *PoiDetailRequest) AppendParams(b *ParamBuilder) {
	b.String("id", r.ID).
		String("show_fields", r.ShowFields).
		String("output", outputJSON)
}

func (r *PoiDetailRequest) CacheKey() string {
	return cacheKey(OpPoiDetail, r.ID)
}

func (r *PoiDetailRequest) Validate() error {
	if isBlank(r.ID) {
		return invalidRequest(OpPoiDetail, "id must not be empty")
	}
	return nil
}

// BaseRouteRequest carries the fields shared by every direction request.
type BaseRouteRequest struct {
	Origin      string
	Destination string
	Extensions  string
	ShowFields  string
}

func (r *BaseRouteRequest) appendParams(b *ParamBuilder) {
	b.String("origin", r.Origin).
		String("destination", r.Destination).
		String("extensions", orDefault(r.Extensions, "base")).
		String("show_fields", r.ShowFields).
		String("output", outputJSON)
}

func (r *BaseRouteRequest) validate(op Operation) error {
	origin, err := NormalizeLocation(r.Origin)
	if err != nil {
		return invalidRequest(op, "origin: %v", err)
	}
	dest, err := NormalizeLocation(r.Destination)
	if err != nil {
		return invalidRequest(op, "destination: %v", err)
	}
	r.Origin, r.Destination = origin, dest
	return nil
}

// DrivingRouteRequest plans a car route.
type DrivingRouteRequest struct {
	BaseRouteRequest
	Waypoints     string
	AvoidPolygons string
	AvoidRoad     string
	Plate         string
	Strategy      string // 0 fastest, 1 cheapest, 2 shortest, 3 no highways
	Ferry         string
	CarType       string
}

func (r *DrivingRouteRequest) Operation() Operation { return OpDrivingRoute }

func (r *DrivingRouteRequest) AppendParams(b *ParamBuilder) {
	r.BaseRouteRequest.appendParams(b)
	b.String("waypoints", r.Waypoints).
		String("avoidpolygons", r.AvoidPolygons).
		String("avoidroad", r.AvoidRoad).
		String("plate", r.Plate).
		String("strategy", orDefault(r.Strategy, "0")).
		String("ferry", r.Ferry).
		String("cartype", r.CarType)
}

func (r *DrivingRouteRequest) CacheKey() string {
	return cacheKey(OpDrivingRoute, r.Origin, r.Destination, orDefault(r.Strategy, "0"))
}

func (r *DrivingRouteRequest) Validate() error {
	return r.BaseRouteRequest.validate(OpDrivingRoute)
}

// WalkingRouteRequest plans a walking route of up to 100km.
type WalkingRouteRequest struct {
	BaseRouteRequest
	IsIndoor string
}

func (r *WalkingRouteRequest) Operation() Operation { return OpWalkingRoute }

func (r *WalkingRouteRequest) AppendParams(b *ParamBuilder) {
	r.BaseRouteRequest.appendParams(b)
	b.String("isindoor", r.IsIndoor)
}

func (r *WalkingRouteRequest) CacheKey() string {
	return cacheKey(OpWalkingRoute, r.Origin, r.Destination)
}

func (r *WalkingRouteRequest) Validate() error {
	return r.BaseRouteRequest.validate(OpWalkingRoute)
}

// BicyclingRouteRequest plans a bicycle route of up to 500km.
type BicyclingRouteRequest struct {
	BaseRouteRequest
	AlternativeRoute string
	RidingType       string // 0 bicycle, 1 e-bike
}

func (r *BicyclingRouteRequest) Operation() Operation { return OpBicyclingRoute }

func (r *BicyclingRouteRequest) AppendParams(b *ParamBuilder) {
	r.BaseRouteRequest.appendParams(b)
	b.String("alternative_route", r.AlternativeRoute).
		String("riding_type", orDefault(r.RidingType, "0"))
}

func (r *BicyclingRouteRequest) CacheKey() string {
	return cacheKey(OpBicyclingRoute, r.Origin, r.Destination, orDefault(r.RidingType, "0"))
}

func (r *BicyclingRouteRequest) Validate() error {
	return r.BaseRouteRequest.validate(OpBicyclingRoute)
}

// TransitRouteRequest plans an integrated public transport route.
type TransitRouteRequest struct {
	BaseRouteRequest
	City      string
	CityD     string // destination city for cross-city trips
	Strategy  string
	NightFlag string
	Date      string // yyyy-MM-dd
	Time      string // HH:mm
}

func (r *TransitRouteRequest) Operation() Operation { return OpTransitRoute }

func (r *TransitRouteRequest) AppendParams(b *ParamBuilder) {
	r.BaseRouteRequest.appendParams(b)
	b.String("city", r.City).
		String("cityd", r.CityD).
		String("strategy", orDefault(r.Strategy, "0")).
		String("nightflag", r.NightFlag).
		String("date", r.Date).
		String("time", r.Time)
}

func (r *TransitRouteRequest) CacheKey() string {
	return cacheKey(OpTransitRoute, r.Origin, r.Destination, r.City, r.CityD, orDefault(r.Strategy, "0"))
}

func (r *TransitRouteRequest) Validate() error {
	if err := r.BaseRouteRequest.validate(OpTransitRoute); err != nil {
		return err
	}
	if isBlank(r.City) {
		return invalidRequest(OpTransitRoute, "city must not be empty")
	}
	return nil
}

// DistanceRequest measures distance from one or more origins to a
// destination. Type 0 is straight-line, 1 driving, 3 walking.
type DistanceRequest struct {
	Origins     string
	Destination string
	Type        string
}

func (r *DistanceRequest) Operation() Operation { return OpDistance }

func (r *DistanceRequest) AppendParams(b *ParamBuilder) {
	b.String("origins", r.Origins).
		String("destination", r.Destination).
		String("type", orDefault(r.Type, "0")).
		String("output", outputJSON)
}

func (r *DistanceRequest) CacheKey() string {
	return cacheKey(OpDistance, r.Origins, r.Destination, orDefault(r.Type, "0"))
}

func (r *DistanceRequest) Validate() error {
	origins, err := normalizeLocationList(r.Origins)
	if err != nil {
		return invalidRequest(OpDistance, "origins: %v", err)
	}
	dest, err := NormalizeLocation(r.Destination)
	if err != nil {
		return invalidRequest(OpDistance, "destination: %v", err)
	}
	r.Origins, r.Destination = origins, dest

	switch orDefault(r.Type, "0") {
	case "0", "1", "3":
		return nil
	default:
		return invalidRequest(OpDistance, "type must be 0 (straight line), 1 (driving) or 3 (walking)")
	}
}

// WeatherRequest queries live weather or the forecast for a city name or
// adcode. The operation decides the extensions value.
type WeatherRequest struct {
	City     string
	Forecast bool
}

func (r *WeatherRequest) Operation() Operation {
	if r.Forecast {
		return OpForecastWeather
	}
	return OpCurrentWeather
}

func (r *WeatherRequest) AppendParams(b *ParamBuilder) {
	extensions := "base"
	if r.Forecast {
		extensions = "all"
	}
	b.String("city", r.City).
		String("extensions", extensions).
		String("output", outputJSON)
}

func (r *WeatherRequest) CacheKey() string {
	return cacheKey(r.Operation(), r.City)
}

func (r *WeatherRequest) Validate() error {
	if isBlank(r.City) {
		return invalidRequest(r.Operation(), "city must not be empty")
	}
	return nil
}

// IPLocationRequest locates an IPv4 address. An empty IP asks the provider
// to use the caller's address.
type IPLocationRequest struct {
	IP string
}

func (r *IPLocationRequest) Operation() Operation { return OpIPLocation }

func (r *IPLocationRequest) AppendParams(b *ParamBuilder) {
	b.String("ip", r.IP).
		String("output", outputJSON)
}

func (r *IPLocationRequest) CacheKey() string {
	return cacheKey(OpIPLocation, orDefault(r.IP, "auto"))
}

func (r *IPLocationRequest) Validate() error {
	ip := strings.TrimSpace(r.IP)
	if ip != "" && net.ParseIP(ip) == nil {
		return invalidRequest(OpIPLocation, "invalid IP address %q", r.IP)
	}
	r.IP = ip
	return nil
}
