package tools

import (
	"context"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
)

// GeocodeTool returns a tool definition for geocoding addresses
func GeocodeTool() mcp.Tool {
	return mcp.NewTool("maps_geo",
		mcp.WithDescription("Convert a structured address into longitude and latitude coordinates; also parses landmarks and scenic spot names"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("The structured address to parse"),
		),
		mcp.WithString("city",
			mcp.Description("The city to search in"),
		),
	)
}

// HandleGeocode implements maps_geo
func (h *Handlers) HandleGeocode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := requireString(req, "address")
	if err != nil {
		return run(ctx, h, "maps_geo", failed[GeocodingResult](err))
	}

	r := &amap.GeocodingRequest{
		Address: address,
		City:    optionalString(req, "city"),
	}
	return run(ctx, h, "maps_geo", func(ctx context.Context) (GeocodingResult, error) {
		resp, err := h.svc.Geocode(ctx, r)
		if err != nil {
			return GeocodingResult{}, err
		}
		return AdaptGeocoding(resp), nil
	})
}

// ReverseGeocodeTool returns a tool definition for reverse geocoding
func ReverseGeocodeTool() mcp.Tool {
	return mcp.NewTool("maps_regeocode",
		mcp.WithDescription("Convert longitude and latitude coordinates into an administrative address"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Coordinates as \"<longitude>,<latitude>\""),
		),
	)
}

// HandleReverseGeocode implements maps_regeocode
func (h *Handlers) HandleReverseGeocode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := requireLocation(req, "location")
	if err != nil {
		return run(ctx, h, "maps_regeocode", failed[ReverseGeocodingResult](err))
	}

	r := &amap.ReverseGeocodingRequest{Location: location}
	return run(ctx, h, "maps_regeocode", func(ctx context.Context) (ReverseGeocodingResult, error) {
		resp, err := h.svc.ReverseGeocode(ctx, r)
		if err != nil {
			return ReverseGeocodingResult{}, err
		}
		return AdaptReverseGeocoding(resp), nil
	})
}

// IPLocationTool returns a tool definition for IP positioning
func IPLocationTool() mcp.Tool {
	return mcp.NewTool("maps_ip_location",
		mcp.WithDescription("Locate the city of an IPv4 address"),
		mcp.WithString("ip",
			mcp.Required(),
			mcp.Description("The IP address"),
		),
	)
}

// HandleIPLocation implements maps_ip_location
func (h *Handlers) HandleIPLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ip, err := requireString(req, "ip")
	if err != nil {
		return run(ctx, h, "maps_ip_location", failed[IPLocationResult](err))
	}

	r := &amap.IPLocationRequest{IP: ip}
	return run(ctx, h, "maps_ip_location", func(ctx context.Context) (IPLocationResult, error) {
		resp, err := h.svc.IPLocation(ctx, r)
		if err != nil {
			return IPLocationResult{}, err
		}
		return AdaptIPLocation(resp), nil
	})
}
