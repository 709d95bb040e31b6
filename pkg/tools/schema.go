package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

// The schema tools build amapuri:// links locally; they never call the
// provider.
const (
	naviURIFormat = "amapuri://navi?sourceApplication=amap_mcp&lon=%s&lat=%s&dev=1&style=2"
	taxiURIFormat = "amapuri://drive/takeTaxi?sourceApplication=amapplatform&slat=%s&slon=%s&sname=%s&dlon=%s&dlat=%s&dname=%s"

	// personalMapURI opens the map creation flow; the trip is handed over
	// out of band.
	personalMapURI = "amapuri://workInAmap/createWithToken?polymericId=mcp_9a046e0c902543cda96396a85b43d337&from=MCP"
)

// PersonalMapLine is one day or theme of a personal map.
type PersonalMapLine struct {
	Title         string             `json:"title"`
	PointInfoList []PersonalMapPoint `json:"pointInfoList"`
}

// PersonalMapPoint is a stop on a PersonalMapLine.
type PersonalMapPoint struct {
	Name  string `json:"name"`
	Lon   any    `json:"lon"`
	Lat   any    `json:"lat"`
	PoiID string `json:"poiId"`
}

// coord parses a longitude or latitude given as a string or a number.
func coord(name string, v any) (string, float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil || v == nil {
		return "", 0, invalidArg("%s must be a number", name)
	}
	return cast.ToString(v), f, nil
}

func invalidArg(format string, args ...any) error {
	return &amap.Error{Kind: amap.KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// lonLat reads a coordinate pair from separate lon and lat arguments.
func lonLat(req mcp.CallToolRequest, lonName, latName string) (string, string, error) {
	lon, lonF, err := coord(lonName, req.Params.Arguments[lonName])
	if err != nil {
		return "", "", err
	}
	lat, latF, err := coord(latName, req.Params.Arguments[latName])
	if err != nil {
		return "", "", err
	}
	if err := amap.ValidateCoords(latF, lonF); err != nil {
		return "", "", invalidArg("%v", err)
	}
	return lon, lat, nil
}

// NaviSchemaTool returns a tool definition for navigation links
func NaviSchemaTool() mcp.Tool {
	return mcp.NewTool("maps_schema_navi",
		mcp.WithDescription("Build an Amap link that starts navigation to a destination when opened"),
		mcp.WithString("lon",
			mcp.Required(),
			mcp.Description("Destination longitude"),
		),
		mcp.WithString("lat",
			mcp.Required(),
			mcp.Description("Destination latitude"),
		),
	)
}

// HandleNaviSchema implements maps_schema_navi
func (h *Handlers) HandleNaviSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(ctx, h, "maps_schema_navi", func(context.Context) (SchemaResult, error) {
		lon, lat, err := lonLat(req, "lon", "lat")
		if err != nil {
			return SchemaResult{}, err
		}
		return SchemaResult{URI: fmt.Sprintf(naviURIFormat, lon, lat)}, nil
	})
}

// TakeTaxiSchemaTool returns a tool definition for taxi links
func TakeTaxiSchemaTool() mcp.Tool {
	return mcp.NewTool("maps_schema_take_taxi",
		mcp.WithDescription("Build an Amap link that opens ride hailing for a trip when opened"),
		mcp.WithString("slon",
			mcp.Description("Start longitude; the current position when omitted"),
		),
		mcp.WithString("slat",
			mcp.Description("Start latitude; the current position when omitted"),
		),
		mcp.WithString("sname",
			mcp.Description("Start name"),
		),
		mcp.WithString("dlon",
			mcp.Required(),
			mcp.Description("Destination longitude"),
		),
		mcp.WithString("dlat",
			mcp.Required(),
			mcp.Description("Destination latitude"),
		),
		mcp.WithString("dname",
			mcp.Required(),
			mcp.Description("Destination name"),
		),
	)
}

// HandleTakeTaxiSchema implements maps_schema_take_taxi
func (h *Handlers) HandleTakeTaxiSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(ctx, h, "maps_schema_take_taxi", func(context.Context) (SchemaResult, error) {
		dlon, dlat, err := lonLat(req, "dlon", "dlat")
		if err != nil {
			return SchemaResult{}, err
		}
		dname, err := requireString(req, "dname")
		if err != nil {
			return SchemaResult{}, err
		}

		var slon, slat string
		_, hasLon := req.Params.Arguments["slon"]
		_, hasLat := req.Params.Arguments["slat"]
		if hasLon || hasLat {
			if slon, slat, err = lonLat(req, "slon", "slat"); err != nil {
				return SchemaResult{}, err
			}
		}

		uri := fmt.Sprintf(taxiURIFormat,
			slat, slon, url.QueryEscape(optionalString(req, "sname")),
			dlon, dlat, url.QueryEscape(dname))
		return SchemaResult{URI: uri}, nil
	})
}

// PersonalMapSchemaTool returns a tool definition for personal map links
func PersonalMapSchemaTool() mcp.Tool {
	return mcp.NewTool("maps_schema_personal_map",
		mcp.WithDescription("Build an Amap link that imports a trip plan into a personal map when opened"),
		mcp.WithString("orgName",
			mcp.Required(),
			mcp.Description("Name of the personal map"),
		),
		mcp.WithArray("lineList",
			mcp.Required(),
			mcp.Description("Trip lines, each {title, pointInfoList: [{name, lon, lat, poiId}]}"),
		),
	)
}

// HandlePersonalMapSchema implements maps_schema_personal_map
func (h *Handlers) HandlePersonalMapSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return run(ctx, h, "maps_schema_personal_map", func(context.Context) (SchemaResult, error) {
		if _, err := requireString(req, "orgName"); err != nil {
			return SchemaResult{}, err
		}
		lines, err := parseLineList(req)
		if err != nil {
			return SchemaResult{}, err
		}

		for i, line := range lines {
			for j, p := range line.PointInfoList {
				if strings.TrimSpace(p.Name) == "" {
					return SchemaResult{}, invalidArg("lineList[%d].pointInfoList[%d].name must not be empty", i, j)
				}
				_, lon, err := coord("lon", p.Lon)
				if err != nil {
					return SchemaResult{}, invalidArg("lineList[%d].pointInfoList[%d]: %v", i, j, err)
				}
				_, lat, err := coord("lat", p.Lat)
				if err != nil {
					return SchemaResult{}, invalidArg("lineList[%d].pointInfoList[%d]: %v", i, j, err)
				}
				if err := amap.ValidateCoords(lat, lon); err != nil {
					return SchemaResult{}, invalidArg("lineList[%d].pointInfoList[%d]: %v", i, j, err)
				}
			}
		}
		return SchemaResult{URI: personalMapURI}, nil
	})
}

func parseLineList(req mcp.CallToolRequest) ([]PersonalMapLine, error) {
	raw, ok := req.Params.Arguments["lineList"]
	if !ok || raw == nil {
		return nil, invalidArg("lineList must not be empty")
	}

	// Marshal and unmarshal to convert to our struct
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, invalidArg("lineList: %v", err)
	}
	var lines []PersonalMapLine
	if err := json.Unmarshal(b, &lines); err != nil {
		return nil, invalidArg("lineList must be an array of {title, pointInfoList}")
	}
	if len(lines) == 0 {
		return nil, invalidArg("lineList must not be empty")
	}
	return lines, nil
}
