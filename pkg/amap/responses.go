package amap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StatusOK is the envelope status of a successful provider call.
const StatusOK = "1"

// FlexString decodes provider scalars that arrive as a string, a number,
// null, or (for empty values on the v3 family) an empty array.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '[':
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("flex string array: %w", err)
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it != "" {
				parts = append(parts, string(it))
			}
		}
		*f = FlexString(strings.Join(parts, ","))
	case '{':
		return fmt.Errorf("flex string: unexpected object %s", data)
	default:
		// numbers and booleans keep their literal text
		*f = FlexString(data)
	}
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string {
	return string(f)
}

// RawResponse is the provider envelope plus the full response document.
// It is what the cache stores, so typed decoding happens per caller.
type RawResponse struct {
	Status   string
	Info     string
	InfoCode string
	Count    string
	Body     []byte
}

// OK reports whether the envelope status signals success.
func (r *RawResponse) OK() bool {
	return r.Status == StatusOK
}

// Decode unmarshals the full document into v.
func (r *RawResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding %T: %w", v, err)
	}
	return nil
}

type envelope struct {
	Status   FlexString `json:"status"`
	Info     FlexString `json:"info"`
	InfoCode FlexString `json:"infocode"`
	Count    FlexString `json:"count"`
}

func parseRawResponse(body []byte) (*RawResponse, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &RawResponse{
		Status:   env.Status.String(),
		Info:     env.Info.String(),
		InfoCode: env.InfoCode.String(),
		Count:    env.Count.String(),
		Body:     body,
	}, nil
}

// GeocodingResponse is the v3 geocode payload.
type GeocodingResponse struct {
	Geocodes []Geocode `json:"geocodes"`
}

// Geocode is one geocoding match.
type Geocode struct {
	FormattedAddress FlexString `json:"formatted_address"`
	Country          FlexString `json:"country"`
	Province         FlexString `json:"province"`
	City             FlexString `json:"city"`
	Citycode         FlexString `json:"citycode"`
	District         FlexString `json:"district"`
	Street           FlexString `json:"street"`
	Number           FlexString `json:"number"`
	Adcode           FlexString `json:"adcode"`
	Location         FlexString `json:"location"`
	Level            FlexString `json:"level"`
}

// ReverseGeocodingResponse is the v3 regeo payload.
type ReverseGeocodingResponse struct {
	Regeocode *Regeocode `json:"regeocode"`
}

// Regeocode holds the resolved address.
type Regeocode struct {
	FormattedAddress FlexString        `json:"formatted_address"`
	AddressComponent *AddressComponent `json:"addressComponent"`
}

// AddressComponent is the administrative breakdown of a regeo result.
type AddressComponent struct {
	Country  FlexString `json:"country"`
	Province FlexString `json:"province"`
	City     FlexString `json:"city"`
	Citycode FlexString `json:"citycode"`
	District FlexString `json:"district"`
	Township FlexString `json:"township"`
	Adcode   FlexString `json:"adcode"`
}

// PoiResponse is the v5 place search payload shared by text, around,
// polygon and detail searches.
type PoiResponse struct {
	Pois []PoiInfo `json:"pois"`
}

// PoiInfo is one POI.
type PoiInfo struct {
	ID       FlexString `json:"id"`
	Parent   FlexString `json:"parent"`
	Name     FlexString `json:"name"`
	Type     FlexString `json:"type"`
	Typecode FlexString `json:"typecode"`
	Address  FlexString `json:"address"`
	Location FlexString `json:"location"`
	Distance FlexString `json:"distance"`
	Pcode    FlexString `json:"pcode"`
	Pname    FlexString `json:"pname"`
	Citycode FlexString `json:"citycode"`
	Cityname FlexString `json:"cityname"`
	Adcode   FlexString `json:"adcode"`
	Adname   FlexString `json:"adname"`
	Business *Business  `json:"business"`
	Photos   []Photo    `json:"photos"`
}

// Business is the optional "business" show_fields block of a POI.
type Business struct {
	BusinessArea  FlexString `json:"business_area"`
	OpentimeToday FlexString `json:"opentime_today"`
	OpentimeWeek  FlexString `json:"opentime_week"`
	Tel           FlexString `json:"tel"`
	Tag           FlexString `json:"tag"`
	Rating        FlexString `json:"rating"`
	Cost          FlexString `json:"cost"`
	ParkingType   FlexString `json:"parking_type"`
	Alias         FlexString `json:"alias"`
	Keytag        FlexString `json:"keytag"`
	Rectag        FlexString `json:"rectag"`
}

// Photo is a POI photo reference.
type Photo struct {
	Title FlexString `json:"title"`
	URL   FlexString `json:"url"`
}

// RouteResponse is the v5 driving, walking and bicycling payload.
type RouteResponse struct {
	Route *RouteData `json:"route"`
}

// RouteData holds the candidate paths of a route.
type RouteData struct {
	Origin      FlexString `json:"origin"`
	Destination FlexString `json:"destination"`
	TaxiCost    FlexString `json:"taxi_cost"`
	Paths       []Path     `json:"paths"`
}

// Path is one candidate route.
type Path struct {
	Distance    FlexString `json:"distance"`
	Restriction FlexString `json:"restriction"`
	Cost        *Cost      `json:"cost"`
	Steps       []Step     `json:"steps"`
}

// Cost carries duration and toll information.
type Cost struct {
	Duration      FlexString `json:"duration"`
	Tolls         FlexString `json:"tolls"`
	TollDistance  FlexString `json:"toll_distance"`
	TrafficLights FlexString `json:"traffic_lights"`
}

// Step is one manoeuvre of a path, in execution order.
type Step struct {
	Instruction     FlexString `json:"instruction"`
	Orientation     FlexString `json:"orientation"`
	RoadName        FlexString `json:"road_name"`
	StepDistance    FlexString `json:"step_distance"`
	Cost            *Cost      `json:"cost"`
	Polyline        FlexString `json:"polyline"`
	Action          FlexString `json:"action"`
	AssistantAction FlexString `json:"assistant_action"`
}

// TransitRouteResponse is the v5 integrated transit payload.
type TransitRouteResponse struct {
	Route *TransitRouteData `json:"route"`
}

// TransitRouteData holds the transit plans.
type TransitRouteData struct {
	Origin      FlexString   `json:"origin"`
	Destination FlexString   `json:"destination"`
	Distance    FlexString   `json:"distance"`
	Cost        *TransitCost `json:"cost"`
	Transits    []Transit    `json:"transits"`
}

// TransitCost is the cost block of a transit plan.
type TransitCost struct {
	Duration   FlexString `json:"duration"`
	TransitFee FlexString `json:"transit_fee"`
	TaxiCost   FlexString `json:"taxi_cost"`
}

// Transit is one complete transit plan.
type Transit struct {
	Distance        FlexString   `json:"distance"`
	WalkingDistance FlexString   `json:"walking_distance"`
	Nightflag       FlexString   `json:"nightflag"`
	Cost            *TransitCost `json:"cost"`
	Segments        []Segment    `json:"segments"`
}

// Segment is one leg of a transit plan. Any combination of parts may be set.
type Segment struct {
	Walking *WalkingSegment `json:"walking"`
	Bus     *BusSegment     `json:"bus"`
	Taxi    *TaxiSegment    `json:"taxi"`
	Railway *Railway        `json:"railway"`
}

// WalkingSegment is the walk inside a transit plan.
type WalkingSegment struct {
	Origin      FlexString    `json:"origin"`
	Destination FlexString    `json:"destination"`
	Distance    FlexString    `json:"distance"`
	Cost        *Cost         `json:"cost"`
	Steps       []WalkingStep `json:"steps"`
}

// WalkingStep is one instruction of a transit walk.
type WalkingStep struct {
	Instruction     FlexString `json:"instruction"`
	Road            FlexString `json:"road"`
	Distance        FlexString `json:"distance"`
	Polyline        FlexString `json:"polyline"`
	Action          FlexString `json:"action"`
	AssistantAction FlexString `json:"assistant_action"`
}

// BusSegment lists the alternative lines for one bus leg.
type BusSegment struct {
	Buslines []BusLine `json:"buslines"`
}

// BusLine is one bus or subway line.
type BusLine struct {
	Name          FlexString `json:"name"`
	Type          FlexString `json:"type"`
	Distance      FlexString `json:"distance"`
	Duration      FlexString `json:"duration"`
	Cost          *Cost      `json:"cost"`
	DepartureStop *BusStop   `json:"departure_stop"`
	ArrivalStop   *BusStop   `json:"arrival_stop"`
	ViaStops      []BusStop  `json:"via_stops"`
}

// BusStop is a stop on a bus line.
type BusStop struct {
	Name     FlexString `json:"name"`
	Location FlexString `json:"location"`
}

// TaxiSegment is a taxi leg of a transit plan.
type TaxiSegment struct {
	Distance  FlexString `json:"distance"`
	Price     FlexString `json:"price"`
	Drivetime FlexString `json:"drivetime"`
	Startname FlexString `json:"startname"`
	Endname   FlexString `json:"endname"`
}

// Railway is an intercity rail leg.
type Railway struct {
	Name FlexString `json:"name"`
	Trip FlexString `json:"trip"`
}

// DistanceResponse is the v3 distance payload.
type DistanceResponse struct {
	Results []DistanceInfo `json:"results"`
}

// DistanceInfo is the measurement for one origin.
type DistanceInfo struct {
	OriginID FlexString `json:"origin_id"`
	DestID   FlexString `json:"dest_id"`
	Distance FlexString `json:"distance"`
	Duration FlexString `json:"duration"`
	Info     FlexString `json:"info"`
	Code     FlexString `json:"code"`
}

// WeatherResponse is the v3 weather payload; lives for extensions=base,
// forecasts for extensions=all.
type WeatherResponse struct {
	Lives     []WeatherLive     `json:"lives"`
	Forecasts []WeatherForecast `json:"forecasts"`
}

// WeatherLive is a current observation.
type WeatherLive struct {
	Province         FlexString `json:"province"`
	City             FlexString `json:"city"`
	Adcode           FlexString `json:"adcode"`
	Weather          FlexString `json:"weather"`
	Temperature      FlexString `json:"temperature"`
	WindDirection    FlexString `json:"winddirection"`
	WindPower        FlexString `json:"windpower"`
	Humidity         FlexString `json:"humidity"`
	ReportTime       FlexString `json:"reporttime"`
	TemperatureFloat FlexString `json:"temperature_float"`
	HumidityFloat    FlexString `json:"humidity_float"`
}

// WeatherForecast is the multi-day forecast for a city.
type WeatherForecast struct {
	City       FlexString    `json:"city"`
	Adcode     FlexString    `json:"adcode"`
	Province   FlexString    `json:"province"`
	ReportTime FlexString    `json:"reporttime"`
	Casts      []WeatherCast `json:"casts"`
}

// WeatherCast is one forecast day.
type WeatherCast struct {
	Date           FlexString `json:"date"`
	Week           FlexString `json:"week"`
	DayWeather     FlexString `json:"dayweather"`
	NightWeather   FlexString `json:"nightweather"`
	DayTemp        FlexString `json:"daytemp"`
	NightTemp      FlexString `json:"nighttemp"`
	DayWind        FlexString `json:"daywind"`
	NightWind      FlexString `json:"nightwind"`
	DayPower       FlexString `json:"daypower"`
	NightPower     FlexString `json:"nightpower"`
	DayTempFloat   FlexString `json:"daytemp_float"`
	NightTempFloat FlexString `json:"nighttemp_float"`
}

// IPLocationResponse is the v3 IP payload; fields sit beside the envelope.
type IPLocationResponse struct {
	Province  FlexString `json:"province"`
	City      FlexString `json:"city"`
	Adcode    FlexString `json:"adcode"`
	Rectangle FlexString `json:"rectangle"`
}
