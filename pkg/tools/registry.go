package tools

import (
	"log/slog"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registry holds all MCP tool registrations for the Amap service.
type Registry struct {
	logger   *slog.Logger
	handlers *Handlers
}

// NewRegistry creates a new MCP tool registry serving svc.
func NewRegistry(svc *amap.Service, logger *slog.Logger, toolTimeout time.Duration) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		handlers: NewHandlers(svc, logger, toolTimeout),
	}
}

// ToolDefinition represents an Amap MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     ToolHandler
}

// GetToolDefinitions returns all Amap MCP tool definitions.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	h := r.handlers
	defs := []ToolDefinition{
		// Geocoding Tools
		{Tool: GeocodeTool(), Handler: h.HandleGeocode},
		{Tool: ReverseGeocodeTool(), Handler: h.HandleReverseGeocode},
		{Tool: IPLocationTool(), Handler: h.HandleIPLocation},

		// Place Search Tools
		{Tool: TextSearchTool(), Handler: h.HandleTextSearch},
		{Tool: AroundSearchTool(), Handler: h.HandleAroundSearch},
		{Tool: PolygonSearchTool(), Handler: h.HandlePolygonSearch},
		{Tool: SearchDetailTool(), Handler: h.HandleSearchDetail},

		// Routing Tools
		{Tool: DrivingRouteTool(), Handler: h.HandleDrivingRoute},
		{Tool: WalkingRouteTool(), Handler: h.HandleWalkingRoute},
		{Tool: BicyclingRouteTool(), Handler: h.HandleBicyclingRoute},
		{Tool: TransitRouteTool(), Handler: h.HandleTransitRoute},
		{Tool: DistanceTool(), Handler: h.HandleDistance},

		// Weather Tools
		{Tool: WeatherTool(), Handler: h.HandleWeather},
		{Tool: WeatherLiveTool(), Handler: h.HandleWeatherLive},

		// App Link Tools
		{Tool: NaviSchemaTool(), Handler: h.HandleNaviSchema},
		{Tool: TakeTaxiSchemaTool(), Handler: h.HandleTakeTaxiSchema},
		{Tool: PersonalMapSchemaTool(), Handler: h.HandlePersonalMapSchema},
	}

	for i := range defs {
		defs[i].Name = defs[i].Tool.Name
		defs[i].Description = defs[i].Tool.Description
	}
	return defs
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, server.ToolHandlerFunc(def.Handler))
	}
}
