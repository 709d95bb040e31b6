package tools

import (
	"context"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
)

// WeatherTool returns a tool definition for the weather forecast
func WeatherTool() mcp.Tool {
	return mcp.NewTool("maps_weather",
		mcp.WithDescription("Get the weather forecast for a city name or adcode"),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City name or adcode"),
		),
	)
}

// HandleWeather implements maps_weather
func (h *Handlers) HandleWeather(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city, err := requireString(req, "city")
	if err != nil {
		return run(ctx, h, "maps_weather", failed[WeatherResult](err))
	}

	r := &amap.WeatherRequest{City: city, Forecast: true}
	return run(ctx, h, "maps_weather", func(ctx context.Context) (WeatherResult, error) {
		resp, err := h.svc.Weather(ctx, r)
		if err != nil {
			return WeatherResult{}, err
		}
		return AdaptWeatherForecast(resp), nil
	})
}

// WeatherLiveTool returns a tool definition for live weather
func WeatherLiveTool() mcp.Tool {
	return mcp.NewTool("maps_weather_live",
		mcp.WithDescription("Get the current weather for a city name or adcode"),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City name or adcode"),
		),
	)
}

// HandleWeatherLive implements maps_weather_live
func (h *Handlers) HandleWeatherLive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	city, err := requireString(req, "city")
	if err != nil {
		return run(ctx, h, "maps_weather_live", failed[WeatherLiveResult](err))
	}

	r := &amap.WeatherRequest{City: city}
	return run(ctx, h, "maps_weather_live", func(ctx context.Context) (WeatherLiveResult, error) {
		resp, err := h.svc.Weather(ctx, r)
		if err != nil {
			return WeatherLiveResult{}, err
		}
		return AdaptWeatherLive(resp), nil
	})
}
