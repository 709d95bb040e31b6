package amap

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

const (
	// KeyParam is the query parameter carrying the access key.
	KeyParam = "key"

	// nullToken is what a stringified absent value looks like on the wire;
	// it is never forwarded.
	nullToken = "null"
)

// ParamBuilder flattens a request into a canonical parameter map. Request
// types call it field by field from AppendParams, embedded base requests
// first, so the parameter contract of every type is spelled out in code.
type ParamBuilder struct {
	params map[string]string
	logger *slog.Logger
}

// NewParamBuilder creates a builder that always carries the access key.
func NewParamBuilder(key string, logger *slog.Logger) *ParamBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &ParamBuilder{
		params: make(map[string]string),
		logger: logger,
	}
	b.params[KeyParam] = key
	return b
}

// String adds a string field. Blank values and the null token are skipped.
func (b *ParamBuilder) String(name, value string) *ParamBuilder {
	value = strings.TrimSpace(value)
	if value == "" || value == nullToken {
		return b
	}
	b.set(name, value)
	return b
}

// Bool adds an optional boolean field rendered as "true" or "false".
func (b *ParamBuilder) Bool(name string, value *bool) *ParamBuilder {
	if value == nil {
		return b
	}
	b.set(name, cast.ToString(*value))
	return b
}

// Value adds a field of any scalar type using its canonical string form.
// Values that cannot be converted are logged and skipped.
func (b *ParamBuilder) Value(name string, value any) *ParamBuilder {
	if value == nil {
		return b
	}
	if v, ok := value.(bool); ok {
		return b.Bool(name, &v)
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		b.logger.Warn("skipping unreadable parameter", "param", name, "error", err)
		return b
	}
	return b.String(name, s)
}

func (b *ParamBuilder) set(name, value string) {
	if name == KeyParam {
		b.logger.Warn("request field shadows access key parameter, ignoring", "param", name)
		return
	}
	if _, exists := b.params[name]; exists {
		b.logger.Warn("duplicate parameter name in request, keeping first value", "param", name)
		return
	}
	b.params[name] = value
}

// Build returns a copy of the parameter map.
func (b *ParamBuilder) Build() map[string]string {
	out := make(map[string]string, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// Values returns the parameters as url.Values for query encoding.
func (b *ParamBuilder) Values() url.Values {
	return toValues(b.params)
}

func toValues(params map[string]string) url.Values {
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, v)
	}
	return q
}

// BuildParams flattens req into a parameter map carrying key.
func BuildParams(key string, req Request, logger *slog.Logger) map[string]string {
	b := NewParamBuilder(key, logger)
	req.AppendParams(b)
	return b.Build()
}
