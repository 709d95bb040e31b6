// Package config loads and validates the server configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/NERVsystems/amapmcp/pkg/amap"
	"github.com/NERVsystems/amapmcp/pkg/cache"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AMAP_BASE_URL.
const EnvPrefix = "AMAP"

// Transports accepted by the server.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Per-operation rate limit defaults applied to partially specified entries.
const (
	defaultOperationQPS   = 50
	defaultOperationBurst = 100
)

// Config is the complete server configuration.
type Config struct {
	Key         string            `mapstructure:"key"`
	BaseURL     string            `mapstructure:"base_url"`
	UserAgent   string            `mapstructure:"user_agent"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	ToolTimeout time.Duration     `mapstructure:"tool_timeout"`
	Endpoints   map[string]string `mapstructure:"endpoints"`

	HTTP      HTTPConfig      `mapstructure:"http"`
	Retry     RetryConfig     `mapstructure:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Server    ServerConfig    `mapstructure:"server"`
}

// HTTPConfig tunes the pooled HTTP client.
type HTTPConfig struct {
	MaxConnections         int           `mapstructure:"max_connections"`
	MaxConnectionsPerRoute int           `mapstructure:"max_connections_per_route"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout            time.Duration `mapstructure:"read_timeout"`
	IdleTimeout            time.Duration `mapstructure:"idle_timeout"`
}

// RetryConfig is the backoff policy.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// LimitConfig is one token bucket.
type LimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

// RateLimitConfig holds the global bucket and per-operation overrides keyed
// by operation name.
type RateLimitConfig struct {
	Enabled    bool                   `mapstructure:"enabled"`
	QPS        float64                `mapstructure:"qps"`
	Burst      int                    `mapstructure:"burst"`
	Operations map[string]LimitConfig `mapstructure:"operations"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	TTL             time.Duration            `mapstructure:"ttl"`
	MaxEntries      int                      `mapstructure:"max_entries"`
	CleanupInterval time.Duration            `mapstructure:"cleanup_interval"`
	TTLOverrides    map[string]time.Duration `mapstructure:"ttl_overrides"`
}

// ServerConfig configures the MCP transport and the metrics endpoint.
type ServerConfig struct {
	Transport   string `mapstructure:"transport"`
	Addr        string `mapstructure:"addr"`
	BaseURL     string `mapstructure:"base_url"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	Debug       bool   `mapstructure:"debug"`
}

// SetDefaults registers every key with its default so that environment
// variables are picked up on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("key", "")
	v.SetDefault("base_url", amap.DefaultBaseURL)
	v.SetDefault("user_agent", amap.DefaultUserAgent)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("tool_timeout", 60*time.Second)
	v.SetDefault("endpoints", map[string]string{})

	v.SetDefault("http.max_connections", 100)
	v.SetDefault("http.max_connections_per_route", 20)
	v.SetDefault("http.connect_timeout", 10*time.Second)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 5*time.Minute)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", time.Second)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_delay", 30*time.Second)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.qps", 100.0)
	v.SetDefault("rate_limit.burst", 200)
	v.SetDefault("rate_limit.operations", map[string]any{})

	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("cache.max_entries", cache.DefaultMaxEntries)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.ttl_overrides", map[string]any{})

	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.metrics_addr", "")
	v.SetDefault("server.debug", false)
}

// Load reads configuration from defaults, the optional file at path and the
// environment, then validates it. Without a path, amapmcp.{yaml,json,toml}
// is looked up in the working directory and ~/.config/amapmcp.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("key", "AMAP_KEY", "AMAP_MAPS_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding key environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("amapmcp")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/amapmcp")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Key) == "" {
		add("key is required (set AMAP_KEY)")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		add("timeout must be positive")
	}
	if c.ToolTimeout <= 0 {
		add("tool_timeout must be positive")
	}
	if _, err := amap.DefaultEndpoints().WithOverrides(c.Endpoints); err != nil {
		add("endpoints: %v", err)
	}

	if c.HTTP.MaxConnections < 0 || c.HTTP.MaxConnectionsPerRoute < 0 {
		add("http connection limits must not be negative")
	}

	if c.Retry.MaxAttempts < 0 {
		add("retry.max_attempts must not be negative")
	}
	if c.Retry.InitialDelay < 0 {
		add("retry.initial_delay must not be negative")
	}
	if c.Retry.Multiplier < 1 {
		add("retry.multiplier must be at least 1, got %v", c.Retry.Multiplier)
	}
	if c.Retry.MaxDelay > 0 && c.Retry.MaxDelay < c.Retry.InitialDelay {
		add("retry.max_delay must not be below retry.initial_delay")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.QPS <= 0 {
			add("rate_limit.qps must be positive when enabled")
		}
		if c.RateLimit.Burst < 1 {
			add("rate_limit.burst must be at least 1 when enabled")
		}
		for name, l := range c.RateLimit.Operations {
			if !knownOperation(name) {
				add("rate_limit.operations: unknown operation %q", name)
			}
			if l.QPS < 0 || l.Burst < 0 {
				add("rate_limit.operations.%s: qps and burst must not be negative", name)
			}
		}
	}

	if c.Cache.TTL < 0 {
		add("cache.ttl must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		add("cache.max_entries must not be negative")
	}
	for name, ttl := range c.Cache.TTLOverrides {
		if !knownOperation(name) {
			add("cache.ttl_overrides: unknown operation %q", name)
		}
		if ttl < 0 {
			add("cache.ttl_overrides.%s must not be negative", name)
		}
	}

	switch c.Server.Transport {
	case TransportStdio, TransportSSE:
	default:
		add("server.transport must be %q or %q, got %q", TransportStdio, TransportSSE, c.Server.Transport)
	}

	return errors.Join(errs...)
}

func knownOperation(name string) bool {
	op := amap.Operation(strings.ToLower(name))
	for _, known := range amap.Operations {
		if op == known {
			return true
		}
	}
	return false
}

// ClientConfig converts c into the Invoker configuration.
func (c *Config) ClientConfig() (amap.ClientConfig, error) {
	endpoints, err := amap.DefaultEndpoints().WithOverrides(c.Endpoints)
	if err != nil {
		return amap.ClientConfig{}, err
	}

	rl := amap.RateLimitConfig{
		Enabled:    c.RateLimit.Enabled,
		QPS:        c.RateLimit.QPS,
		Burst:      c.RateLimit.Burst,
		Operations: make(map[amap.Operation]amap.Limit, len(c.RateLimit.Operations)),
	}
	for name, l := range c.RateLimit.Operations {
		limit := amap.Limit{QPS: l.QPS, Burst: l.Burst}
		if limit.QPS == 0 {
			limit.QPS = defaultOperationQPS
		}
		if limit.Burst == 0 {
			limit.Burst = defaultOperationBurst
		}
		rl.Operations[amap.Operation(strings.ToLower(name))] = limit
	}

	return amap.ClientConfig{
		BaseURL:                c.BaseURL,
		Key:                    c.Key,
		UserAgent:              c.UserAgent,
		Timeout:                c.Timeout,
		ConnectTimeout:         c.HTTP.ConnectTimeout,
		ReadTimeout:            c.HTTP.ReadTimeout,
		IdleTimeout:            c.HTTP.IdleTimeout,
		MaxConnections:         c.HTTP.MaxConnections,
		MaxConnectionsPerRoute: c.HTTP.MaxConnectionsPerRoute,
		Endpoints:              endpoints,
		Retry: amap.RetryPolicy{
			MaxAttempts:  c.Retry.MaxAttempts,
			InitialDelay: c.Retry.InitialDelay,
			Multiplier:   c.Retry.Multiplier,
			MaxDelay:     c.Retry.MaxDelay,
		},
		RateLimit: rl,
	}, nil
}

// ServiceOptions converts the cache settings into Service options.
func (c *Config) ServiceOptions(logger *slog.Logger, metrics *amap.Metrics) amap.ServiceOptions {
	overrides := make(map[amap.Operation]time.Duration, len(c.Cache.TTLOverrides))
	for name, ttl := range c.Cache.TTLOverrides {
		overrides[amap.Operation(strings.ToLower(name))] = ttl
	}

	return amap.ServiceOptions{
		TTL:          c.Cache.TTL,
		TTLOverrides: overrides,
		Cache: cache.Options{
			MaxEntries:      c.Cache.MaxEntries,
			CleanupInterval: c.Cache.CleanupInterval,
		},
		Logger:  logger,
		Metrics: metrics,
	}
}

// LogValue implements slog.LogValuer and masks the access key.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("key", maskKey(c.Key)),
		slog.String("base_url", c.BaseURL),
		slog.Duration("timeout", c.Timeout),
		slog.Duration("tool_timeout", c.ToolTimeout),
		slog.Int("retry_max_attempts", c.Retry.MaxAttempts),
		slog.Bool("rate_limit_enabled", c.RateLimit.Enabled),
		slog.Float64("rate_limit_qps", c.RateLimit.QPS),
		slog.Duration("cache_ttl", c.Cache.TTL),
		slog.String("transport", c.Server.Transport),
	)
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}
