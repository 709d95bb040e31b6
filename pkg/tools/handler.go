package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

// DefaultToolTimeout bounds a single tool call when none is configured.
const DefaultToolTimeout = 60 * time.Second

// ToolHandler is the mcp-go handler signature.
type ToolHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Handlers serves the Amap tools from a Service.
type Handlers struct {
	svc     *amap.Service
	logger  *slog.Logger
	timeout time.Duration
}

// NewHandlers creates Handlers. A non-positive timeout uses
// DefaultToolTimeout.
func NewHandlers(svc *amap.Service, logger *slog.Logger, timeout time.Duration) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &Handlers{svc: svc, logger: logger, timeout: timeout}
}

// run executes call under the tool timeout and renders its result. Failures
// become structured tool errors; the returned Go error is always nil so the
// client sees the Failure body.
func run[T any](ctx context.Context, h *Handlers, tool string, call func(ctx context.Context) (T, error)) (*mcp.CallToolResult, error) {
	logger := h.logger.With("tool", tool, "invocation", uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	out, err := call(ctx)
	if err != nil {
		f := NewFailure(err)
		if f.Kind == amap.KindInvalidRequest || f.Kind == amap.KindApplication || f.Kind == amap.KindRateLimited {
			logger.Warn("tool call failed", "kind", f.Kind, "error", err)
		} else {
			logger.Error("tool call failed", "kind", f.Kind, "error", err)
		}
		return failureResult(f), nil
	}

	resultBytes, err := json.Marshal(out)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse(KindInternal, "failed to generate result"), nil
	}

	logger.Debug("tool call completed", "duration", time.Since(start))
	return mcp.NewToolResultText(string(resultBytes)), nil
}

// requireString returns the trimmed argument or an invalid request error
// when it is blank.
func requireString(req mcp.CallToolRequest, name string) (string, error) {
	v := strings.TrimSpace(mcp.ParseString(req, name, ""))
	if v == "" {
		return "", &amap.Error{Kind: amap.KindInvalidRequest, Message: fmt.Sprintf("%s must not be empty", name)}
	}
	return v, nil
}

// requireLocation returns a normalized "<lon>,<lat>" argument.
func requireLocation(req mcp.CallToolRequest, name string) (string, error) {
	v, err := requireString(req, name)
	if err != nil {
		return "", err
	}
	loc, err := amap.NormalizeLocation(v)
	if err != nil {
		return "", &amap.Error{Kind: amap.KindInvalidRequest, Message: fmt.Sprintf("%s: %v", name, err)}
	}
	return loc, nil
}

func optionalString(req mcp.CallToolRequest, name string) string {
	return strings.TrimSpace(mcp.ParseString(req, name, ""))
}

// optionalInt reads a whole number given as a JSON number or a decimal
// string. Absent or blank arguments are zero. Strings are parsed in base
// 10, so "08" is eight.
func optionalInt(req mcp.CallToolRequest, name string) (int, error) {
	raw, ok := req.Params.Arguments[name]
	if !ok || raw == nil {
		return 0, nil
	}
	bad := &amap.Error{Kind: amap.KindInvalidRequest, Message: fmt.Sprintf("%s must be a whole number, got %v", name, raw)}

	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, bad
		}
		return n, nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, bad
		}
		return int(v), nil
	case bool:
		return 0, bad
	}

	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, bad
	}
	return n, nil
}

// optionalBool returns nil when the argument is absent so the provider
// default applies.
func optionalBool(req mcp.CallToolRequest, name string) *bool {
	if _, ok := req.Params.Arguments[name]; !ok {
		return nil
	}
	v := mcp.ParseBoolean(req, name, false)
	return &v
}

// failed adapts a pre-dispatch validation error to the run signature.
func failed[T any](err error) func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}
