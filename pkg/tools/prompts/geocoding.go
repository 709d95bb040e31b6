// Package prompts provides prompt templates for use with the MCP server.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterGeocodingPrompts registers all geocoding-related prompts with the MCP server
func RegisterGeocodingPrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("amap_coordinates",
		mcp.WithPromptDescription("Instructions for passing coordinates to the Amap tools"),
	), CoordinatesPromptHandler)

	s.AddPrompt(mcp.NewPrompt("maps_geo_examples",
		mcp.WithPromptDescription("Examples of well formed maps_geo queries"),
	), GeocodeExamplesHandler)

	s.AddPrompt(mcp.NewPrompt("maps_regeocode_examples",
		mcp.WithPromptDescription("Examples of well formed maps_regeocode queries"),
	), ReverseGeocodeExamplesHandler)
}

// CoordinatesPromptHandler returns the main prompt for coordinate handling
func CoordinatesPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemPrompt := `You have access to Amap tools for geocoding, place search, routing and weather in China.
When using these tools:

1. Coordinates are always a single string "<longitude>,<latitude>", longitude FIRST
2. Coordinates are GCJ-02 as returned by maps_geo; do not pass raw GPS (WGS-84) values when precision matters
3. Use maps_geo to turn an address into a location before calling routing or around search
4. Pass the city to maps_geo and region to maps_text_search when the place name is ambiguous
5. For transit routes, city is required and cityd is needed for trips between cities

IMPORTANT COORDINATE FORMATTING EXAMPLES:
✅ GOOD: "116.397428,39.90923"
❌ BAD: "39.90923,116.397428"

✅ GOOD: "121.473701,31.230416"
❌ BAD: "121.473701, 31.230416, 0"

ERROR HANDLING GUIDELINES:
Failed calls return JSON with kind, message, info_code, retry_after_ms and guidance:
1. invalid_request means a parameter is wrong; fix it before retrying
2. rate_limited carries retry_after_ms; wait that long before retrying
3. application failures carry the Amap info_code; follow the guidance text
4. server and transport failures were already retried; try again later`

	return mcp.NewGetPromptResult(
		"Amap Coordinate Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(systemPrompt),
			),
		},
	), nil
}

// GeocodeExamplesHandler returns examples for maps_geo
func GeocodeExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE MAPS_GEO USAGE:

User: "Where is the Oriental Pearl Tower?"
AI: *uses maps_geo with address "东方明珠广播电视塔", city "上海"*

User: "Find the coordinates of Beijing West Railway Station"
AI: *uses maps_geo with address "北京西站", city "北京"*

User: "Plan a drive from the Bund to Hongqiao Airport"
AI: *uses maps_geo for both places, then maps_direction_driving with the two locations*

ERROR CORRECTION PATTERN:
1. If maps_geo returns an empty results list, add the city or use the full structured address
2. Prefer Chinese place names; romanized names often fail to match
3. For landmarks, maps_text_search with region may find what maps_geo does not`

	return mcp.NewGetPromptResult(
		"maps_geo Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}

// ReverseGeocodeExamplesHandler returns examples for maps_regeocode
func ReverseGeocodeExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE MAPS_REGEOCODE USAGE:

User: "What's at 39.9042 N, 116.4074 E?"
AI: *uses maps_regeocode with location "116.4074,39.9042"*

User: "Which district is 31.2304, 121.4737 in?"
AI: *swaps to longitude first, then uses maps_regeocode with location "121.4737,31.2304"*

ERROR CORRECTION PATTERN:
1. If coordinates are in DMS format (degrees, minutes, seconds), convert to decimal
2. Ensure latitude is between -90 and 90 and longitude between -180 and 180
3. An empty city list means a municipality; read the province instead`

	return mcp.NewGetPromptResult(
		"maps_regeocode Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}
