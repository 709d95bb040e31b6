// Package tools exposes the Amap operations as MCP tools.
package tools

// GeocodingResult is returned by maps_geo. Only the best match is kept.
type GeocodingResult struct {
	Results []GeocodingItem `json:"results"`
}

// GeocodingItem is a structured address with its coordinates.
type GeocodingItem struct {
	Country  string `json:"country"`
	Province string `json:"province"`
	City     string `json:"city"`
	Citycode string `json:"citycode"`
	District string `json:"district"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	Adcode   string `json:"adcode"`
	Location string `json:"location"`
	Level    string `json:"level"`
}

// ReverseGeocodingResult is returned by maps_regeocode. City is a list
// because the provider leaves it empty for municipalities.
type ReverseGeocodingResult struct {
	Country  string   `json:"country"`
	Province string   `json:"province"`
	City     []string `json:"city"`
	District string   `json:"district"`
}

// PoiSearchResult is returned by maps_text_search and maps_polygon_search.
type PoiSearchResult struct {
	Suggestion PoiSuggestion `json:"suggestion"`
	Pois       []PoiItem     `json:"pois"`
}

type PoiSuggestion struct {
	Keywords string         `json:"keywords"`
	Cities   CitySuggestion `json:"cities"`
}

type CitySuggestion struct {
	Suggestion []string `json:"suggestion"`
}

// PoiAroundResult is returned by maps_around_search.
type PoiAroundResult struct {
	Pois []PoiItem `json:"pois"`
}

// PoiItem is the summary of a POI in search results.
type PoiItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Typecode string `json:"typecode"`
	Photo    string `json:"photo"`
}

// PoiDetailResult is returned by maps_search_detail.
type PoiDetailResult struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	Address      string `json:"address"`
	BusinessArea string `json:"business_area"`
	City         string `json:"city"`
	Type         string `json:"type"`
	Alias        string `json:"alias"`
	Photo        string `json:"photo"`
	Cost         string `json:"cost"`
	OpenTime2    string `json:"opentime2"`
	Rating       string `json:"rating"`
	OpenTime     string `json:"open_time"`
}

// RouteResult is returned by the driving and bicycling tools.
type RouteResult struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	Paths       []RoutePath `json:"paths"`
}

type RoutePath struct {
	Path     string      `json:"path"`
	Distance string      `json:"distance"`
	Duration string      `json:"duration"`
	Steps    []RouteStep `json:"steps"`
}

type RouteStep struct {
	Instruction string `json:"instruction"`
	Road        string `json:"road"`
	Distance    string `json:"distance"`
	Orientation string `json:"orientation"`
	Duration    string `json:"duration"`
}

// WalkingRouteResult is returned by maps_direction_walking. Distances are
// meters and durations seconds.
type WalkingRouteResult struct {
	Route WalkingRoute `json:"route"`
}

type WalkingRoute struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Paths       []WalkingPath `json:"paths"`
}

type WalkingPath struct {
	Distance int           `json:"distance"`
	Duration int           `json:"duration"`
	Steps    []WalkingStep `json:"steps"`
}

type WalkingStep struct {
	Instruction string `json:"instruction"`
	Road        string `json:"road"`
	Distance    int    `json:"distance"`
	Orientation string `json:"orientation"`
	Duration    int    `json:"duration"`
}

// TransitRouteResult is returned by maps_direction_transit_integrated.
type TransitRouteResult struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Distance    string         `json:"distance"`
	Transits    []TransitRoute `json:"transits"`
}

type TransitRoute struct {
	Duration        string           `json:"duration"`
	WalkingDistance string           `json:"walking_distance"`
	Segments        []TransitSegment `json:"segments"`
}

// TransitSegment holds the walk and the bus part of one leg; either may be
// absent.
type TransitSegment struct {
	Walking *TransitWalking `json:"walking,omitempty"`
	Bus     *TransitBus     `json:"bus,omitempty"`
}

type TransitWalking struct {
	Origin      string               `json:"origin"`
	Destination string               `json:"destination"`
	Distance    string               `json:"distance"`
	Duration    string               `json:"duration"`
	Steps       []TransitWalkingStep `json:"steps"`
}

type TransitWalkingStep struct {
	Instruction     string `json:"instruction"`
	Road            string `json:"road"`
	Distance        string `json:"distance"`
	Action          string `json:"action"`
	AssistantAction string `json:"assistant_action"`
}

type TransitBus struct {
	Buslines []BusLine `json:"buslines"`
}

type BusLine struct {
	Name          string    `json:"name"`
	Distance      string    `json:"distance"`
	Duration      string    `json:"duration"`
	DepartureStop *BusStop  `json:"departure_stop,omitempty"`
	ArrivalStop   *BusStop  `json:"arrival_stop,omitempty"`
	ViaStops      []BusStop `json:"via_stops"`
}

type BusStop struct {
	Name string `json:"name"`
}

// DistanceResult is returned by maps_distance.
type DistanceResult struct {
	Results []DistanceItem `json:"results"`
}

// DistanceItem keeps the provider strings and adds parsed numbers; values
// that do not parse are 0.
type DistanceItem struct {
	OriginID string `json:"origin_id"`
	DestID   string `json:"dest_id"`
	Distance string `json:"distance"`
	Duration string `json:"duration"`
	Meters   int    `json:"meters"`
	Seconds  int    `json:"seconds"`
}

// WeatherResult is returned by maps_weather.
type WeatherResult struct {
	City      string            `json:"city"`
	Forecasts []WeatherForecast `json:"forecasts"`
}

type WeatherForecast struct {
	Date           string `json:"date"`
	Week           string `json:"week"`
	DayWeather     string `json:"dayweather"`
	NightWeather   string `json:"nightweather"`
	DayTemp        string `json:"daytemp"`
	NightTemp      string `json:"nighttemp"`
	DayWind        string `json:"daywind"`
	NightWind      string `json:"nightwind"`
	DayPower       string `json:"daypower"`
	NightPower     string `json:"nightpower"`
	DayTempFloat   string `json:"daytemp_float"`
	NightTempFloat string `json:"nighttemp_float"`
}

// WeatherLiveResult is returned by maps_weather_live.
type WeatherLiveResult struct {
	Lives []WeatherLive `json:"lives"`
}

type WeatherLive struct {
	Province      string  `json:"province"`
	City          string  `json:"city"`
	Adcode        string  `json:"adcode"`
	Weather       string  `json:"weather"`
	Temperature   float64 `json:"temperature"`
	WindDirection string  `json:"winddirection"`
	WindPower     string  `json:"windpower"`
	Humidity      float64 `json:"humidity"`
	ReportTime    string  `json:"reporttime"`
}

// IPLocationResult is returned by maps_ip_location.
type IPLocationResult struct {
	Province  string `json:"province"`
	City      string `json:"city"`
	Adcode    string `json:"adcode"`
	Rectangle string `json:"rectangle"`
}

// SchemaResult carries an amapuri:// link that opens the Amap app.
type SchemaResult struct {
	URI string `json:"uri"`
}
