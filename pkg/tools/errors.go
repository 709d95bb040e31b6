package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/mark3labs/mcp-go/mcp"
)

// KindInternal marks failures raised inside the tool layer itself.
const KindInternal amap.Kind = "internal"

// Failure is the JSON body of a failed tool call.
type Failure struct {
	Kind         amap.Kind `json:"kind"`
	Message      string    `json:"message"`
	InfoCode     string    `json:"info_code,omitempty"`
	RetryAfterMS int64     `json:"retry_after_ms,omitempty"`
	Guidance     string    `json:"guidance"`
}

func (f *Failure) Error() string {
	if f.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", f.Kind, f.Message, f.Guidance)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Common error guidance messages
const (
	GuidanceInvalidRequest = "Check the parameters; coordinates are \"<longitude>,<latitude>\" in decimal degrees."
	GuidanceRateLimit      = "Too many requests were sent. Wait for the retry_after_ms interval and try again."
	GuidanceTimeout        = "The request timed out or was canceled. Try again, or narrow the query."
	GuidanceNetworkError   = "The Amap service could not be reached. Check connectivity and try again."
	GuidanceServerError    = "The Amap service reported an internal error. This is likely temporary, please try again later."
	GuidanceClientError    = "The Amap service rejected the request. Check the parameters and the configured endpoints."
	GuidanceDataError      = "The data received was incomplete or malformed. Try different parameters."
	GuidanceConfigError    = "The server is misconfigured. Check the API key and base URL."
	GuidanceGeneral        = "Please try again later or modify your request parameters."

	// Amap infocodes, see the Amap error code reference
	GuidanceInvalidKey   = "The API key is invalid or lacks permission for this service."
	GuidanceQuotaReached = "The daily quota for this API key has been reached. Try again tomorrow or raise the quota."
	GuidanceBadParams    = "Amap rejected a parameter value. Check required fields and their formats."
)

var infoCodeGuidance = map[string]string{
	"10001": GuidanceInvalidKey,
	"10002": GuidanceInvalidKey,
	"10003": GuidanceQuotaReached,
	"10004": GuidanceRateLimit,
	"10009": GuidanceInvalidKey,
	"10044": GuidanceQuotaReached,
	"20000": GuidanceBadParams,
	"20001": GuidanceBadParams,
	"20003": GuidanceGeneral,
}

// NewFailure maps err to a Failure with guidance chosen by kind and, for
// application failures, by infocode.
func NewFailure(err error) *Failure {
	var ae *amap.Error
	if !errors.As(err, &ae) {
		kind := amap.KindOf(err)
		if kind == "" {
			kind = KindInternal
		}
		return &Failure{Kind: kind, Message: err.Error(), Guidance: guidanceFor(kind, "")}
	}

	msg := ae.Message
	if msg == "" && ae.Err != nil {
		msg = ae.Err.Error()
	}
	return &Failure{
		Kind:         ae.Kind,
		Message:      msg,
		InfoCode:     ae.InfoCode,
		RetryAfterMS: ae.RetryAfter.Milliseconds(),
		Guidance:     guidanceFor(ae.Kind, ae.InfoCode),
	}
}

func guidanceFor(kind amap.Kind, infoCode string) string {
	switch kind {
	case amap.KindInvalidRequest:
		return GuidanceInvalidRequest
	case amap.KindRateLimited:
		return GuidanceRateLimit
	case amap.KindCanceled:
		return GuidanceTimeout
	case amap.KindTransport:
		return GuidanceNetworkError
	case amap.KindServer:
		return GuidanceServerError
	case amap.KindClient:
		return GuidanceClientError
	case amap.KindDecode:
		return GuidanceDataError
	case amap.KindConfig:
		return GuidanceConfigError
	case amap.KindApplication:
		if g, ok := infoCodeGuidance[infoCode]; ok {
			return g
		}
	}
	return GuidanceGeneral
}

// ErrorResponse returns a tool error carrying a Failure with the given kind.
func ErrorResponse(kind amap.Kind, msg string) *mcp.CallToolResult {
	return failureResult(&Failure{Kind: kind, Message: msg, Guidance: guidanceFor(kind, "")})
}

func failureResult(f *Failure) *mcp.CallToolResult {
	b, err := json.Marshal(f)
	if err != nil {
		return mcp.NewToolResultError(f.Error())
	}
	return mcp.NewToolResultError(string(b))
}
