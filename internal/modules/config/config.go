package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	databaseDSNENV     = "DATABASE_DSN"
	redisURLENV        = "REDIS_URL"
	feedAPIKeyENV      = "FEED_API_KEY"
)

// Config is the full environment surface of SPEC_FULL.md §4.H / §6.
// Unknown configuration must fall back to its default and log once —
// the *FromEnv helpers below do exactly that.
type Config struct {
	Env  string `yaml:"env"` // "dev" | anything else — gates FEED_API_KEY requirement
	Port int    `yaml:"port"`

	DB         string `yaml:"db_dsn"`
	RedisURL   string `yaml:"redis_url"`
	FeedAPIKey string `yaml:"feed_api_key"`

	UpstreamFeedURLs []string `yaml:"upstream_feed_urls"`

	MaxBroadcastTPS      int           `yaml:"max_broadcast_tps"`
	TickHistoryLimit     int           `yaml:"tick_history_limit"`
	ExecutionLatencyMS   time.Duration `yaml:"execution_latency_ms"`
	SLTPGraceMS          time.Duration `yaml:"sltp_grace_ms"`
	PriceStaleMS         time.Duration `yaml:"price_stale_ms"`
	DuplicateOrderMS     time.Duration `yaml:"duplicate_order_ms"`
	EnablePartialFills   bool          `yaml:"enable_partial_fills"`
	PartialFillRatio     float64       `yaml:"partial_fill_ratio"`
	USDINRDefault        float64       `yaml:"usdinr_default"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	UpstreamWatchdogMS   time.Duration `yaml:"upstream_watchdog_ms"`
	ReconnectBackoffCap  time.Duration `yaml:"reconnect_backoff_cap"`
	BroadcastClientMaxKB int           `yaml:"broadcast_client_max_kb"`

	TraceAgentHost string `yaml:"trace_agent_host"`
	TraceAgentPort int    `yaml:"trace_agent_port"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}

	cfg := Config{
		Env:  getenvDefault("ENV", "dev"),
		Port: intFromEnv("PORT", 4000),

		MaxBroadcastTPS:    intFromEnv("MAX_BROADCAST_TPS", 20),
		TickHistoryLimit:   intFromEnv("TICK_HISTORY_LIMIT", 1000),
		ExecutionLatencyMS: durationMsFromEnv("EXECUTION_LATENCY_MS", 150),
		SLTPGraceMS:        durationMsFromEnv("SLTP_GRACE_MS", 1000),
		PriceStaleMS:       durationMsFromEnv("PRICE_STALE_MS", 5000),
		DuplicateOrderMS:   durationMsFromEnv("DUPLICATE_ORDER_MS", 500),
		EnablePartialFills: boolFromEnv("ENABLE_PARTIAL_FILLS", false),
		PartialFillRatio:   floatFromEnv("PARTIAL_FILL_RATIO", 0.5),

		USDINRDefault: floatFromEnv("USDINR_DEFAULT", 83),

		HeartbeatInterval:    time.Duration(intFromEnv("HEARTBEAT_SECONDS", 25)) * time.Second,
		UpstreamWatchdogMS:   durationMsFromEnv("UPSTREAM_WATCHDOG_MS", 15000),
		ReconnectBackoffCap:  durationMsFromEnv("RECONNECT_BACKOFF_CAP_MS", 30000),
		BroadcastClientMaxKB: intFromEnv("BROADCAST_CLIENT_MAX_KB", 1024),

		TraceAgentHost: getenvDefault("TRACE_AGENT_HOST", "localhost"),
		TraceAgentPort: intFromEnv("TRACE_AGENT_PORT", 6831),
	}

	if file, err := os.Open("configs/" + configFileName); err == nil {
		defer func() { _ = file.Close() }()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			log.Printf("config: failed to decode %s, using env/defaults: %v", configFileName, err)
		}
	}

	if dsn := os.Getenv(databaseDSNENV); dsn != "" {
		cfg.DB = dsn
	}
	if redisURL := os.Getenv(redisURLENV); redisURL != "" {
		cfg.RedisURL = redisURL
	} else if upstash := os.Getenv("UPSTASH_REDIS_URL"); upstash != "" {
		cfg.RedisURL = upstash
	}
	if key := os.Getenv(feedAPIKeyENV); key != "" {
		cfg.FeedAPIKey = key
	}
	if cfg.FeedAPIKey == "" && cfg.Env != "dev" {
		log.Fatalf("config: %s is required outside dev", feedAPIKeyENV)
	}

	if urls := os.Getenv("UPSTREAM_FEED_URLS"); urls != "" {
		cfg.UpstreamFeedURLs = splitCSV(urls)
	}
	if len(cfg.UpstreamFeedURLs) == 0 {
		cfg.UpstreamFeedURLs = []string{"wss://stream.exchange.example/ws"}
	}

	return &cfg, nil
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: invalid int for %s, using default %d", key, def)
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("config: invalid float for %s, using default %v", key, def)
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "TRUE":
			return true
		case "0", "false", "FALSE":
			return false
		}
		log.Printf("config: invalid bool for %s, using default %v", key, def)
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationMsFromEnv(key string, defMs int) time.Duration {
	ms := intFromEnv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}
