package tools

import (
	"math"
	"strings"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/spf13/cast"
)

// safeInt parses a provider number, returning 0 when it is absent or not
// numeric. Fractions are truncated.
func safeInt(s amap.FlexString) int {
	f := safeFloat(s)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func safeFloat(s amap.FlexString) float64 {
	f, err := cast.ToFloat64E(strings.TrimSpace(s.String()))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func orZero(s amap.FlexString) string {
	if s == "" {
		return "0"
	}
	return s.String()
}

func costDuration(c *amap.Cost) amap.FlexString {
	if c == nil {
		return ""
	}
	return c.Duration
}

func firstPhoto(photos []amap.Photo) string {
	if len(photos) == 0 {
		return ""
	}
	return photos[0].URL.String()
}

// AdaptGeocoding keeps the first match only.
func AdaptGeocoding(resp *amap.GeocodingResponse) GeocodingResult {
	out := GeocodingResult{Results: []GeocodingItem{}}
	if resp == nil || len(resp.Geocodes) == 0 {
		return out
	}

	g := resp.Geocodes[0]
	out.Results = append(out.Results, GeocodingItem{
		Country:  g.Country.String(),
		Province: g.Province.String(),
		City:     g.City.String(),
		Citycode: g.Citycode.String(),
		District: g.District.String(),
		Street:   g.Street.String(),
		Number:   g.Number.String(),
		Adcode:   g.Adcode.String(),
		Location: g.Location.String(),
		Level:    g.Level.String(),
	})
	return out
}

func AdaptReverseGeocoding(resp *amap.ReverseGeocodingResponse) ReverseGeocodingResult {
	out := ReverseGeocodingResult{City: []string{}}
	if resp == nil || resp.Regeocode == nil || resp.Regeocode.AddressComponent == nil {
		return out
	}

	addr := resp.Regeocode.AddressComponent
	out.Country = addr.Country.String()
	out.Province = addr.Province.String()
	out.District = addr.District.String()
	if addr.City != "" {
		out.City = append(out.City, addr.City.String())
	}
	return out
}

func adaptPoiList(pois []amap.PoiInfo) []PoiItem {
	items := make([]PoiItem, 0, len(pois))
	for _, p := range pois {
		items = append(items, PoiItem{
			ID:       p.ID.String(),
			Name:     p.Name.String(),
			Address:  p.Address.String(),
			Typecode: p.Typecode.String(),
			Photo:    firstPhoto(p.Photos),
		})
	}
	return items
}

func emptySuggestion() PoiSuggestion {
	return PoiSuggestion{Cities: CitySuggestion{Suggestion: []string{}}}
}

func AdaptPoiTextSearch(resp *amap.PoiResponse) PoiSearchResult {
	out := PoiSearchResult{Suggestion: emptySuggestion(), Pois: []PoiItem{}}
	if resp != nil {
		out.Pois = adaptPoiList(resp.Pois)
	}
	return out
}

func AdaptPoiAround(resp *amap.PoiResponse) PoiAroundResult {
	out := PoiAroundResult{Pois: []PoiItem{}}
	if resp != nil {
		out.Pois = adaptPoiList(resp.Pois)
	}
	return out
}

// AdaptPoiPolygon shares the text search shape.
func AdaptPoiPolygon(resp *amap.PoiResponse) PoiSearchResult {
	return AdaptPoiTextSearch(resp)
}

// AdaptPoiDetail keeps the first POI; business fields are empty when the
// provider sends no business block.
func AdaptPoiDetail(resp *amap.PoiResponse) PoiDetailResult {
	var out PoiDetailResult
	if resp == nil || len(resp.Pois) == 0 {
		return out
	}

	p := resp.Pois[0]
	out = PoiDetailResult{
		ID:       p.ID.String(),
		Name:     p.Name.String(),
		Location: p.Location.String(),
		Address:  p.Address.String(),
		City:     p.Cityname.String(),
		Type:     p.Type.String(),
		Photo:    firstPhoto(p.Photos),
	}
	if b := p.Business; b != nil {
		out.BusinessArea = b.BusinessArea.String()
		out.Alias = b.Alias.String()
		out.Cost = b.Cost.String()
		out.Rating = b.Rating.String()
		out.OpenTime = b.OpentimeToday.String()
		out.OpenTime2 = b.OpentimeWeek.String()
	}
	return out
}

// AdaptRoute maps driving and bicycling routes. Missing durations read "0".
func AdaptRoute(resp *amap.RouteResponse) RouteResult {
	out := RouteResult{Paths: []RoutePath{}}
	if resp == nil || resp.Route == nil {
		return out
	}

	r := resp.Route
	out.Origin = r.Origin.String()
	out.Destination = r.Destination.String()
	for _, p := range r.Paths {
		path := RoutePath{
			Distance: p.Distance.String(),
			Duration: orZero(costDuration(p.Cost)),
			Steps:    make([]RouteStep, 0, len(p.Steps)),
		}
		for _, s := range p.Steps {
			path.Steps = append(path.Steps, RouteStep{
				Instruction: s.Instruction.String(),
				Road:        s.RoadName.String(),
				Distance:    s.StepDistance.String(),
				Orientation: s.Orientation.String(),
				Duration:    orZero(costDuration(s.Cost)),
			})
		}
		out.Paths = append(out.Paths, path)
	}
	return out
}

// AdaptWalkingRoute is AdaptRoute with numeric distances and durations.
func AdaptWalkingRoute(resp *amap.RouteResponse) WalkingRouteResult {
	out := WalkingRouteResult{Route: WalkingRoute{Paths: []WalkingPath{}}}
	if resp == nil || resp.Route == nil {
		return out
	}

	r := resp.Route
	out.Route.Origin = r.Origin.String()
	out.Route.Destination = r.Destination.String()
	for _, p := range r.Paths {
		path := WalkingPath{
			Distance: safeInt(p.Distance),
			Duration: safeInt(costDuration(p.Cost)),
			Steps:    make([]WalkingStep, 0, len(p.Steps)),
		}
		for _, s := range p.Steps {
			path.Steps = append(path.Steps, WalkingStep{
				Instruction: s.Instruction.String(),
				Road:        s.RoadName.String(),
				Distance:    safeInt(s.StepDistance),
				Orientation: s.Orientation.String(),
				Duration:    safeInt(costDuration(s.Cost)),
			})
		}
		out.Route.Paths = append(out.Route.Paths, path)
	}
	return out
}

func AdaptTransitRoute(resp *amap.TransitRouteResponse) TransitRouteResult {
	out := TransitRouteResult{Transits: []TransitRoute{}}
	if resp == nil || resp.Route == nil {
		return out
	}

	r := resp.Route
	out.Origin = r.Origin.String()
	out.Destination = r.Destination.String()
	out.Distance = r.Distance.String()
	for _, t := range r.Transits {
		var duration amap.FlexString
		if t.Cost != nil {
			duration = t.Cost.Duration
		}
		route := TransitRoute{
			Duration:        orZero(duration),
			WalkingDistance: t.WalkingDistance.String(),
			Segments:        make([]TransitSegment, 0, len(t.Segments)),
		}
		for _, seg := range t.Segments {
			route.Segments = append(route.Segments, TransitSegment{
				Walking: adaptTransitWalking(seg.Walking),
				Bus:     adaptTransitBus(seg.Bus),
			})
		}
		out.Transits = append(out.Transits, route)
	}
	return out
}

func adaptTransitWalking(w *amap.WalkingSegment) *TransitWalking {
	if w == nil {
		return nil
	}

	out := &TransitWalking{
		Origin:      w.Origin.String(),
		Destination: w.Destination.String(),
		Distance:    w.Distance.String(),
		Duration:    orZero(costDuration(w.Cost)),
		Steps:       make([]TransitWalkingStep, 0, len(w.Steps)),
	}
	for _, s := range w.Steps {
		out.Steps = append(out.Steps, TransitWalkingStep{
			Instruction:     s.Instruction.String(),
			Road:            s.Road.String(),
			Distance:        s.Distance.String(),
			Action:          s.Action.String(),
			AssistantAction: s.AssistantAction.String(),
		})
	}
	return out
}

func adaptTransitBus(b *amap.BusSegment) *TransitBus {
	if b == nil {
		return nil
	}

	out := &TransitBus{Buslines: make([]BusLine, 0, len(b.Buslines))}
	for _, l := range b.Buslines {
		// v5 moves the duration into the cost block
		duration := l.Duration
		if duration == "" {
			duration = costDuration(l.Cost)
		}

		line := BusLine{
			Name:     l.Name.String(),
			Distance: l.Distance.String(),
			Duration: duration.String(),
			ViaStops: make([]BusStop, 0, len(l.ViaStops)),
		}
		if l.DepartureStop != nil {
			line.DepartureStop = &BusStop{Name: l.DepartureStop.Name.String()}
		}
		if l.ArrivalStop != nil {
			line.ArrivalStop = &BusStop{Name: l.ArrivalStop.Name.String()}
		}
		for _, s := range l.ViaStops {
			line.ViaStops = append(line.ViaStops, BusStop{Name: s.Name.String()})
		}
		out.Buslines = append(out.Buslines, line)
	}
	return out
}

func AdaptDistance(resp *amap.DistanceResponse) DistanceResult {
	out := DistanceResult{Results: []DistanceItem{}}
	if resp == nil {
		return out
	}

	for _, d := range resp.Results {
		out.Results = append(out.Results, DistanceItem{
			OriginID: d.OriginID.String(),
			DestID:   d.DestID.String(),
			Distance: d.Distance.String(),
			Duration: d.Duration.String(),
			Meters:   safeInt(d.Distance),
			Seconds:  safeInt(d.Duration),
		})
	}
	return out
}

// AdaptWeatherForecast maps the casts of the first forecast.
func AdaptWeatherForecast(resp *amap.WeatherResponse) WeatherResult {
	out := WeatherResult{Forecasts: []WeatherForecast{}}
	if resp == nil || len(resp.Forecasts) == 0 {
		return out
	}

	f := resp.Forecasts[0]
	out.City = f.City.String()
	for _, c := range f.Casts {
		out.Forecasts = append(out.Forecasts, WeatherForecast{
			Date:           c.Date.String(),
			Week:           c.Week.String(),
			DayWeather:     c.DayWeather.String(),
			NightWeather:   c.NightWeather.String(),
			DayTemp:        c.DayTemp.String(),
			NightTemp:      c.NightTemp.String(),
			DayWind:        c.DayWind.String(),
			NightWind:      c.NightWind.String(),
			DayPower:       c.DayPower.String(),
			NightPower:     c.NightPower.String(),
			DayTempFloat:   c.DayTempFloat.String(),
			NightTempFloat: c.NightTempFloat.String(),
		})
	}
	return out
}

// AdaptWeatherLive prefers the float readings when the provider sends them.
func AdaptWeatherLive(resp *amap.WeatherResponse) WeatherLiveResult {
	out := WeatherLiveResult{Lives: []WeatherLive{}}
	if resp == nil {
		return out
	}

	for _, l := range resp.Lives {
		temp := l.TemperatureFloat
		if temp == "" {
			temp = l.Temperature
		}
		humidity := l.HumidityFloat
		if humidity == "" {
			humidity = l.Humidity
		}
		out.Lives = append(out.Lives, WeatherLive{
			Province:      l.Province.String(),
			City:          l.City.String(),
			Adcode:        l.Adcode.String(),
			Weather:       l.Weather.String(),
			Temperature:   safeFloat(temp),
			WindDirection: l.WindDirection.String(),
			WindPower:     l.WindPower.String(),
			Humidity:      safeFloat(humidity),
			ReportTime:    l.ReportTime.String(),
		})
	}
	return out
}

func AdaptIPLocation(resp *amap.IPLocationResponse) IPLocationResult {
	if resp == nil {
		return IPLocationResult{}
	}
	return IPLocationResult{
		Province:  resp.Province.String(),
		City:      resp.City.String(),
		Adcode:    resp.Adcode.String(),
		Rectangle: resp.Rectangle.String(),
	}
}
