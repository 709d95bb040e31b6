package tools

import (
	"context"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
)

func routeTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Start point as \"<longitude>,<latitude>\""),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("End point as \"<longitude>,<latitude>\""),
		),
	)
}

// routeEnds reads and validates origin and destination.
func routeEnds(req mcp.CallToolRequest) (amap.BaseRouteRequest, error) {
	origin, err := requireLocation(req, "origin")
	if err != nil {
		return amap.BaseRouteRequest{}, err
	}
	dest, err := requireLocation(req, "destination")
	if err != nil {
		return amap.BaseRouteRequest{}, err
	}
	return amap.BaseRouteRequest{Origin: origin, Destination: dest, Extensions: "all"}, nil
}

// DrivingRouteTool returns a tool definition for car routes
func DrivingRouteTool() mcp.Tool {
	return routeTool("maps_direction_driving",
		"Plan a driving route between two coordinates")
}

// HandleDrivingRoute implements maps_direction_driving
func (h *Handlers) HandleDrivingRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := routeEnds(req)
	if err != nil {
		return run(ctx, h, "maps_direction_driving", failed[RouteResult](err))
	}

	r := &amap.DrivingRouteRequest{BaseRouteRequest: base}
	return run(ctx, h, "maps_direction_driving", func(ctx context.Context) (RouteResult, error) {
		resp, err := h.svc.DrivingRoute(ctx, r)
		if err != nil {
			return RouteResult{}, err
		}
		return AdaptRoute(resp), nil
	})
}

// WalkingRouteTool returns a tool definition for walking routes
func WalkingRouteTool() mcp.Tool {
	return routeTool("maps_direction_walking",
		"Plan a walking route of up to 100km between two coordinates")
}

// HandleWalkingRoute implements maps_direction_walking
func (h *Handlers) HandleWalkingRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := routeEnds(req)
	if err != nil {
		return run(ctx, h, "maps_direction_walking", failed[WalkingRouteResult](err))
	}

	r := &amap.WalkingRouteRequest{BaseRouteRequest: base}
	return run(ctx, h, "maps_direction_walking", func(ctx context.Context) (WalkingRouteResult, error) {
		resp, err := h.svc.WalkingRoute(ctx, r)
		if err != nil {
			return WalkingRouteResult{}, err
		}
		return AdaptWalkingRoute(resp), nil
	})
}

// BicyclingRouteTool returns a tool definition for bicycle routes
func BicyclingRouteTool() mcp.Tool {
	return routeTool("maps_direction_bicycling",
		"Plan a bicycle route of up to 500km between two coordinates")
}

// HandleBicyclingRoute implements maps_direction_bicycling
func (h *Handlers) HandleBicyclingRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := routeEnds(req)
	if err != nil {
		return run(ctx, h, "maps_direction_bicycling", failed[RouteResult](err))
	}

	r := &amap.BicyclingRouteRequest{BaseRouteRequest: base}
	return run(ctx, h, "maps_direction_bicycling", func(ctx context.Context) (RouteResult, error) {
		resp, err := h.svc.BicyclingRoute(ctx, r)
		if err != nil {
			return RouteResult{}, err
		}
		return AdaptRoute(resp), nil
	})
}

// TransitRouteTool returns a tool definition for public transport routes
func TransitRouteTool() mcp.Tool {
	return mcp.NewTool("maps_direction_transit_integrated",
		mcp.WithDescription("Plan a public transport route combining trains, buses and subways"),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Start point as \"<longitude>,<latitude>\""),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("End point as \"<longitude>,<latitude>\""),
		),
		mcp.WithString("city",
			mcp.Required(),
			mcp.Description("City of the start point"),
		),
		mcp.WithString("cityd",
			mcp.Description("City of the end point for cross-city trips"),
		),
	)
}

// HandleTransitRoute implements maps_direction_transit_integrated
func (h *Handlers) HandleTransitRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	base, err := routeEnds(req)
	if err == nil {
		_, err = requireString(req, "city")
	}
	if err != nil {
		return run(ctx, h, "maps_direction_transit_integrated", failed[TransitRouteResult](err))
	}

	r := &amap.TransitRouteRequest{
		BaseRouteRequest: base,
		City:             optionalString(req, "city"),
		CityD:            optionalString(req, "cityd"),
	}
	return run(ctx, h, "maps_direction_transit_integrated", func(ctx context.Context) (TransitRouteResult, error) {
		resp, err := h.svc.TransitRoute(ctx, r)
		if err != nil {
			return TransitRouteResult{}, err
		}
		return AdaptTransitRoute(resp), nil
	})
}

// DistanceTool returns a tool definition for distance measurement
func DistanceTool() mcp.Tool {
	return mcp.NewTool("maps_distance",
		mcp.WithDescription("Measure driving, walking or straight-line distance from one or more origins to a destination"),
		mcp.WithString("origins",
			mcp.Required(),
			mcp.Description("Origins as \"<lon>,<lat>\", several separated by |"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Destination as \"<longitude>,<latitude>\""),
		),
		mcp.WithString("type",
			mcp.Description("0 straight line, 1 driving, 3 walking"),
			mcp.DefaultString("1"),
		),
	)
}

// HandleDistance implements maps_distance
func (h *Handlers) HandleDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	origins, err := requireString(req, "origins")
	if err == nil {
		_, err = requireLocation(req, "destination")
	}
	if err != nil {
		return run(ctx, h, "maps_distance", failed[DistanceResult](err))
	}

	r := &amap.DistanceRequest{
		Origins:     origins,
		Destination: optionalString(req, "destination"),
		Type:        mcp.ParseString(req, "type", "1"),
	}
	return run(ctx, h, "maps_distance", func(ctx context.Context) (DistanceResult, error) {
		resp, err := h.svc.Distance(ctx, r)
		if err != nil {
			return DistanceResult{}, err
		}
		return AdaptDistance(resp), nil
	})
}
