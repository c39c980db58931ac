package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"required"`
	Log         LogConfig       `yaml:"log"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Providers   ProvidersConfig `yaml:"providers"`
	LLM         LLMConfig       `yaml:"llm"`
	Cache       CacheConfig     `yaml:"cache"`
	Events      EventsConfig    `yaml:"events"`
	Stream      StreamConfig    `yaml:"stream"`
	Watchlist   WatchlistConfig `yaml:"watchlist"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
	// ErrorDigest aggregates repeated error/warn lines and ships them to Kafka.
	ErrorDigest struct {
		Enabled        bool          `yaml:"enabled"`
		Topic          string        `yaml:"topic" default:"stockinsight.log-digest"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"100"`
	} `yaml:"error_digest"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowRequest     time.Duration `yaml:"slow_request" default:"3s"`
	CORS            bool          `yaml:"cors" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

// ProviderConfig holds the credential and transport settings for one market-data API.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	// RateLimit is requests per second; zero leaves the provider unthrottled.
	RateLimit float64 `yaml:"rate_limit"`
}

type ProvidersConfig struct {
	// Order lists provider names in priority order. Unknown names fail validation.
	Order        []string       `yaml:"order" validate:"dive,oneof=polygon fmp finnhub twelvedata alphavantage marketstack"`
	LookbackDays int            `yaml:"lookback_days" default:"90" validate:"min=2,max=365"`
	Timeout      time.Duration  `yaml:"timeout" default:"10s"`
	Polygon      ProviderConfig `yaml:"polygon"`
	FMP          ProviderConfig `yaml:"fmp"`
	Finnhub      ProviderConfig `yaml:"finnhub"`
	TwelveData   ProviderConfig `yaml:"twelvedata"`
	AlphaVantage ProviderConfig `yaml:"alphavantage"`
	Marketstack  ProviderConfig `yaml:"marketstack"`
}

// DefaultProviderOrder is used when providers.order is empty.
var DefaultProviderOrder = []string{"polygon", "fmp", "finnhub", "twelvedata", "alphavantage", "marketstack"}

type LLMConfig struct {
	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	GeminiModel     string        `yaml:"gemini_model" default:"gemini-2.0-flash"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key"`
	ClaudeModel     string        `yaml:"claude_model" default:"claude-sonnet-4-20250514"`
	Timeout         time.Duration `yaml:"timeout" default:"30s"`
	MaxTokens       int           `yaml:"max_tokens" default:"1024" validate:"min=64"`
	AgentMaxTurns   int           `yaml:"agent_max_turns" default:"6" validate:"min=1,max=20"`
}

type RedisConfig struct {
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"6379"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size" default:"10"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"3s"`
	KeyPrefix    string        `yaml:"key_prefix" default:"stockinsight"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	Redis   RedisConfig `yaml:"redis"`
	// SnapshotTTL caches live snapshots per ticker. Zero disables snapshot caching.
	SnapshotTTL   time.Duration `yaml:"snapshot_ttl" default:"60s"`
	MemoryMaxSize int           `yaml:"memory_max_size" default:"1000"`
	CleanupEvery  time.Duration `yaml:"cleanup_every" default:"1m"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"stockinsight.resolutions"`
	RequiredAcks int           `yaml:"required_acks" default:"1"`
	Compression  string        `yaml:"compression" default:"snappy"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	Async        bool          `yaml:"async"`
}

type ClickHouseConfig struct {
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"stockinsight"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
	AsyncInsert  bool          `yaml:"async_insert" default:"true"`
	Table        string        `yaml:"table" default:"resolution_events"`
}

// EventsConfig selects where resolution events are exported. Queue holds
// events between resolution and export; "redis" reuses cache.redis.
type EventsConfig struct {
	Backend    string           `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
	Queue      string           `yaml:"queue" default:"memory" validate:"oneof=memory redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Workers    int              `yaml:"workers" default:"2" validate:"min=1"`
	QueueSize  int              `yaml:"queue_size" default:"1024" validate:"min=1"`
	RetryLimit int              `yaml:"retry_limit" default:"3" validate:"min=0"`
	RetryDelay time.Duration    `yaml:"retry_delay" default:"2s"`
}

type StreamConfig struct {
	Enabled        bool          `yaml:"enabled"`
	WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
	Symbols        []string      `yaml:"symbols"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
}

type WatchlistConfig struct {
	// RefreshCron uses the six-field cron format (with seconds). Empty disables warm-up.
	RefreshCron string   `yaml:"refresh_cron" default:"0 */5 * * * *"`
	Tickers     []string `yaml:"tickers"`
}

type RateLimitConfig struct {
	Capacity     int     `yaml:"capacity" default:"10" validate:"min=1"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5" validate:"gt=0"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse applies defaults, decodes YAML on top of them and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Providers.Order) == 0 {
		c.Providers.Order = append([]string(nil), DefaultProviderOrder...)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides credentials and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Providers.Polygon.APIKey, "POLYGON_API_KEY")
	set(&c.Providers.FMP.APIKey, "FINANCIAL_MODELING_PREP_API_KEY", "FMP_API_KEY")
	set(&c.Providers.Finnhub.APIKey, "FINNHUB_API_KEY")
	set(&c.Providers.TwelveData.APIKey, "TWELVE_DATA_API_KEY")
	set(&c.Providers.AlphaVantage.APIKey, "ALPHA_VANTAGE_API_KEY")
	set(&c.Providers.Marketstack.APIKey, "MARKETSTACK_API_KEY")
	set(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	set(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	set(&c.Cache.Redis.Host, "REDIS_HOST")
	set(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	set(&c.Log.Level, "LOG_LEVEL")

	if v := getenv("PROVIDER_ORDER"); v != "" {
		c.Providers.Order = splitList(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Kafka.Brokers = splitList(v)
	}
	if v := getenv("EVENTS_BACKEND"); v != "" {
		c.Events.Backend = v
	}
	if v := getenv("STREAM_SYMBOLS"); v != "" {
		c.Stream.Symbols = splitList(v)
	}
}

var validate = validator.New()

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Events.Backend == "kafka" && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("events.kafka.brokers is required when events.backend is 'kafka'")
	}
	if c.Stream.Enabled {
		if len(c.Stream.Symbols) == 0 {
			return fmt.Errorf("stream.symbols cannot be empty when stream is enabled")
		}
		if c.Providers.Finnhub.APIKey == "" {
			return fmt.Errorf("providers.finnhub.api_key is required when stream is enabled")
		}
	}
	if c.Log.ErrorDigest.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return fmt.Errorf("log.error_digest requires events.kafka.brokers")
	}
	seen := make(map[string]bool, len(c.Providers.Order))
	for _, name := range c.Providers.Order {
		if seen[name] {
			return fmt.Errorf("providers.order lists %q twice", name)
		}
		seen[name] = true
	}
	return nil
}

// Provider returns the settings for a provider by its order name.
func (p ProvidersConfig) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case "polygon":
		return p.Polygon, true
	case "fmp":
		return p.FMP, true
	case "finnhub":
		return p.Finnhub, true
	case "twelvedata":
		return p.TwelveData, true
	case "alphavantage":
		return p.AlphaVantage, true
	case "marketstack":
		return p.Marketstack, true
	}
	return ProviderConfig{}, false
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
