package tools

import (
	"context"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
)

// poiShowFields asks the v5 search for the blocks the adapters read.
const poiShowFields = "business,photos"

// TextSearchTool returns a tool definition for keyword POI search
func TextSearchTool() mcp.Tool {
	return mcp.NewTool("maps_text_search",
		mcp.WithDescription("Search points of interest by keyword"),
		mcp.WithString("keywords",
			mcp.Required(),
			mcp.Description("Search keywords"),
		),
		mcp.WithString("region",
			mcp.Description("City name or adcode to search in"),
		),
		mcp.WithBoolean("citylimit",
			mcp.Description("Restrict results to the region"),
		),
	)
}

// HandleTextSearch implements maps_text_search
func (h *Handlers) HandleTextSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keywords, err := requireString(req, "keywords")
	if err != nil {
		return run(ctx, h, "maps_text_search", failed[PoiSearchResult](err))
	}

	r := &amap.PoiTextSearchRequest{
		PoiPaging: amap.PoiPaging{ShowFields: poiShowFields},
		Keywords:  keywords,
		Region:    optionalString(req, "region"),
		CityLimit: optionalBool(req, "citylimit"),
	}
	return run(ctx, h, "maps_text_search", func(ctx context.Context) (PoiSearchResult, error) {
		resp, err := h.svc.SearchText(ctx, r)
		if err != nil {
			return PoiSearchResult{}, err
		}
		return AdaptPoiTextSearch(resp), nil
	})
}

// AroundSearchTool returns a tool definition for radius POI search
func AroundSearchTool() mcp.Tool {
	return mcp.NewTool("maps_around_search",
		mcp.WithDescription("Search points of interest around a coordinate"),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Center as \"<longitude>,<latitude>\""),
		),
		mcp.WithString("keywords",
			mcp.Description("Search keywords"),
		),
		mcp.WithString("radius",
			mcp.Description("Search radius in meters, up to 50000"),
		),
	)
}

// HandleAroundSearch implements maps_around_search
func (h *Handlers) HandleAroundSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := requireLocation(req, "location")
	if err != nil {
		return run(ctx, h, "maps_around_search", failed[PoiAroundResult](err))
	}
	radius, err := optionalInt(req, "radius")
	if err != nil {
		return run(ctx, h, "maps_around_search", failed[PoiAroundResult](err))
	}

	r := &amap.PoiAroundSearchRequest{
		PoiPaging: amap.PoiPaging{ShowFields: poiShowFields},
		Location:  location,
		Keywords:  optionalString(req, "keywords"),
		Radius:    radius,
	}
	return run(ctx, h, "maps_around_search", func(ctx context.Context) (PoiAroundResult, error) {
		resp, err := h.svc.SearchAround(ctx, r)
		if err != nil {
			return PoiAroundResult{}, err
		}
		return AdaptPoiAround(resp), nil
	})
}

// PolygonSearchTool returns a tool definition for polygon POI search
func PolygonSearchTool() mcp.Tool {
	return mcp.NewTool("maps_polygon_search",
		mcp.WithDescription("Search points of interest inside a polygon"),
		mcp.WithString("polygon",
			mcp.Required(),
			mcp.Description("Polygon vertices as \"<lon>,<lat>|<lon>,<lat>|...\""),
		),
		mcp.WithString("keywords",
			mcp.Description("Search keywords"),
		),
	)
}

// HandlePolygonSearch implements maps_polygon_search
func (h *Handlers) HandlePolygonSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	polygon, err := requireString(req, "polygon")
	if err != nil {
		return run(ctx, h, "maps_polygon_search", failed[PoiSearchResult](err))
	}

	r := &amap.PoiPolygonSearchRequest{
		PoiPaging: amap.PoiPaging{ShowFields: poiShowFields},
		Polygon:   polygon,
		Keywords:  optionalString(req, "keywords"),
	}
	return run(ctx, h, "maps_polygon_search", func(ctx context.Context) (PoiSearchResult, error) {
		resp, err := h.svc.SearchPolygon(ctx, r)
		if err != nil {
			return PoiSearchResult{}, err
		}
		return AdaptPoiPolygon(resp), nil
	})
}

// SearchDetailTool returns a tool definition for POI detail lookup
func SearchDetailTool() mcp.Tool {
	return mcp.NewTool("maps_search_detail",
		mcp.WithDescription("Look up the details of a POI by the id returned from a search"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The POI id"),
		),
	)
}

// HandleSearchDetail implements maps_search_detail
func (h *Handlers) HandleSearchDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req, "id")
	if err != nil {
		return run(ctx, h, "maps_search_detail", failed[PoiDetailResult](err))
	}

	r := &amap.PoiDetailRequest{ID: id, ShowFields: poiShowFields}
	return run(ctx, h, "maps_search_detail", func(ctx context.Context) (PoiDetailResult, error) {
		resp, err := h.svc.PoiDetail(ctx, r)
		if err != nil {
			return PoiDetailResult{}, err
		}
		return AdaptPoiDetail(resp), nil
	})
}
