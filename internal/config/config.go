package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the directory service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics" yaml:"analytics"`
	Redis         RedisConfig         `mapstructure:"redis" yaml:"redis"`
	RateLimits    RateLimitConfig     `mapstructure:"rate_limits" yaml:"rate_limits"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb" yaml:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay" yaml:"graceful_shutdown_delay"`
}

// AnalyticsConfig controls the telemetry relay. An empty or placeholder token
// disables event delivery without failing startup.
type AnalyticsConfig struct {
	Token           string             `mapstructure:"token" yaml:"token"`
	Endpoint        string             `mapstructure:"endpoint" yaml:"endpoint"`
	Debug           bool               `mapstructure:"debug" yaml:"debug"`
	HTTPTimeout     time.Duration      `mapstructure:"http_timeout" yaml:"http_timeout"`
	DeliveryTimeout time.Duration      `mapstructure:"delivery_timeout" yaml:"delivery_timeout"`
	DedupeTTL       time.Duration      `mapstructure:"dedupe_ttl" yaml:"dedupe_ttl"`
	Stream          AnalyticsStreamCfg `mapstructure:"stream" yaml:"stream"`
}

// AnalyticsStreamCfg mirrors tracked events into a Redis stream.
type AnalyticsStreamCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Key     string `mapstructure:"key" yaml:"key"`
	MaxLen  int64  `mapstructure:"max_len" yaml:"max_len"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	DB       int    `mapstructure:"db" yaml:"db"`
	PoolSize int    `mapstructure:"pool_size" yaml:"pool_size"`
}

type RateLimitConfig struct {
	EventsPerMinute int `mapstructure:"events_per_minute" yaml:"events_per_minute"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp" yaml:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics" yaml:"enable_metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SlogLevel maps the configured level name onto slog levels.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("DIRECTORY_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("directory")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The frontend build historically exported the token without our prefix.
	if err := v.BindEnv("analytics.token", "DIRECTORY_ANALYTICS_TOKEN", "MIXPANEL_TOKEN", "VITE_MIXPANEL_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind analytics token: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes defaults and rejects values the service cannot run with.
func (c *Config) Validate() error {
	c.Server.ListenAddr = strings.TrimSpace(c.Server.ListenAddr)
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must be provided")
	}
	if c.Server.BodyLimitMB <= 0 {
		c.Server.BodyLimitMB = 1
	}
	if c.Server.GracefulShutdownDelay <= 0 {
		c.Server.GracefulShutdownDelay = 5 * time.Second
	}

	if err := c.Analytics.validate(); err != nil {
		return err
	}
	if c.Analytics.Stream.Enabled && strings.TrimSpace(c.Redis.URL) == "" {
		return fmt.Errorf("analytics.stream.enabled requires redis.url")
	}

	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}
	if c.RateLimits.EventsPerMinute < 0 {
		return fmt.Errorf("rate_limits.events_per_minute must be >= 0")
	}

	return c.Log.validate()
}

func (a *AnalyticsConfig) validate() error {
	a.Token = strings.TrimSpace(a.Token)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
	if a.Endpoint == "" {
		return fmt.Errorf("analytics.endpoint must be provided")
	}
	parsed, err := url.Parse(a.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid analytics.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("analytics.endpoint must be an http(s) URL")
	}
	if a.HTTPTimeout <= 0 {
		a.HTTPTimeout = 10 * time.Second
	}
	if a.DeliveryTimeout <= 0 {
		a.DeliveryTimeout = 15 * time.Second
	}
	if a.DedupeTTL <= 0 {
		a.DedupeTTL = 30 * time.Minute
	}
	if strings.TrimSpace(a.Stream.Key) == "" {
		a.Stream.Key = "directory:events"
	}
	if a.Stream.MaxLen < 0 {
		return fmt.Errorf("analytics.stream.max_len must be >= 0")
	}
	return nil
}

func (l *LogConfig) validate() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return fmt.Errorf("invalid log.level %q", l.Level)
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 1)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("analytics.token", "")
	v.SetDefault("analytics.endpoint", "https://api-js.mixpanel.com/track")
	v.SetDefault("analytics.debug", false)
	v.SetDefault("analytics.http_timeout", "10s")
	v.SetDefault("analytics.delivery_timeout", "15s")
	v.SetDefault("analytics.dedupe_ttl", "30m")
	v.SetDefault("analytics.stream.enabled", false)
	v.SetDefault("analytics.stream.key", "directory:events")
	v.SetDefault("analytics.stream.max_len", 10_000)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rate_limits.events_per_minute", 120)

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return time.Duration(v) * time.Second, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
