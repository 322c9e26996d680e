package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Venue
	Endpoint string // Hyperliquid WebSocket endpoint, http(s) or ws(s)
	MetaURL  string // Hyperliquid /info endpoint used for the one-shot asset metadata fetch

	// Default subscriptions, parsed from a comma-separated coin list; CLI
	// flags add to this set before the supervisor starts (they do not
	// replace it).
	SubscribeCoins []string

	// Deadlines
	ConnectDeadline   time.Duration
	SubscribeDeadline time.Duration
	CloseDeadline     time.Duration
	MetaTimeout       time.Duration

	// Liveness
	PingInterval        time.Duration
	HealthCheckInterval time.Duration
	DataTimeout         time.Duration
	WarningThreshold    time.Duration // 0 => DataTimeout / 2
	HealthLogCadence    uint64

	// Backoff
	BackoffInitialDelay   time.Duration
	BackoffMaxDelay       time.Duration
	BackoffMultiplier     float64
	BackoffMaxAttempts    uint32 // 0 = unbounded
	BackoffJitterFraction float64
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		Endpoint: getEnvOrDefault("HL_WS_ENDPOINT", "wss://api.hyperliquid.xyz/ws"),
		MetaURL:  getEnvOrDefault("HL_META_URL", "https://api.hyperliquid.xyz/info"),

		SubscribeCoins: getCommaListOrDefault("HL_SUBSCRIBE_COINS", nil),

		ConnectDeadline:   getDurationOrDefault("HL_CONNECT_DEADLINE", 30*time.Second),
		SubscribeDeadline: getDurationOrDefault("HL_SUBSCRIBE_DEADLINE", 15*time.Second),
		CloseDeadline:     getDurationOrDefault("HL_CLOSE_DEADLINE", 10*time.Second),
		MetaTimeout:       getDurationOrDefault("HL_META_TIMEOUT", 10*time.Second),

		PingInterval:        getDurationOrDefault("HL_PING_INTERVAL", 10*time.Second),
		HealthCheckInterval: getDurationOrDefault("HL_HEALTH_CHECK_INTERVAL", 5*time.Second),
		DataTimeout:         getDurationOrDefault("HL_DATA_TIMEOUT", 60*time.Second),
		WarningThreshold:    getDurationOrDefault("HL_WARNING_THRESHOLD", 0),
		HealthLogCadence:    getUint64OrDefault("HL_HEALTH_LOG_CADENCE", 1000),

		BackoffInitialDelay:   getDurationOrDefault("HL_BACKOFF_INITIAL_DELAY", time.Second),
		BackoffMaxDelay:       getDurationOrDefault("HL_BACKOFF_MAX_DELAY", 60*time.Second),
		BackoffMultiplier:     getFloat64OrDefault("HL_BACKOFF_MULTIPLIER", 2.0),
		BackoffMaxAttempts:    uint32(getIntOrDefault("HL_BACKOFF_MAX_ATTEMPTS", 10)),
		BackoffJitterFraction: getFloat64OrDefault("HL_BACKOFF_JITTER_FRACTION", 0.25),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.Endpoint == "" {
		return errors.New("HL_WS_ENDPOINT cannot be empty")
	}

	if c.MetaURL == "" {
		return errors.New("HL_META_URL cannot be empty")
	}

	if c.ConnectDeadline <= 0 {
		return fmt.Errorf("HL_CONNECT_DEADLINE must be positive, got %s", c.ConnectDeadline)
	}
	if c.SubscribeDeadline <= 0 {
		return fmt.Errorf("HL_SUBSCRIBE_DEADLINE must be positive, got %s", c.SubscribeDeadline)
	}
	if c.CloseDeadline <= 0 {
		return fmt.Errorf("HL_CLOSE_DEADLINE must be positive, got %s", c.CloseDeadline)
	}

	if c.PingInterval <= 0 {
		return fmt.Errorf("HL_PING_INTERVAL must be positive, got %s", c.PingInterval)
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("HL_HEALTH_CHECK_INTERVAL must be positive, got %s", c.HealthCheckInterval)
	}
	if c.DataTimeout <= 0 {
		return fmt.Errorf("HL_DATA_TIMEOUT must be positive, got %s", c.DataTimeout)
	}
	if c.WarningThreshold < 0 {
		return fmt.Errorf("HL_WARNING_THRESHOLD must be non-negative, got %s", c.WarningThreshold)
	}
	if c.WarningThreshold >= c.DataTimeout && c.WarningThreshold != 0 {
		return fmt.Errorf("HL_WARNING_THRESHOLD (%s) must be less than HL_DATA_TIMEOUT (%s)", c.WarningThreshold, c.DataTimeout)
	}

	if c.BackoffInitialDelay <= 0 {
		return fmt.Errorf("HL_BACKOFF_INITIAL_DELAY must be positive, got %s", c.BackoffInitialDelay)
	}
	if c.BackoffMaxDelay < c.BackoffInitialDelay {
		return fmt.Errorf("HL_BACKOFF_MAX_DELAY (%s) must be >= HL_BACKOFF_INITIAL_DELAY (%s)", c.BackoffMaxDelay, c.BackoffInitialDelay)
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("HL_BACKOFF_MULTIPLIER must be >= 1, got %f", c.BackoffMultiplier)
	}
	if c.BackoffJitterFraction < 0 || c.BackoffJitterFraction > 1 {
		return fmt.Errorf("HL_BACKOFF_JITTER_FRACTION must be between 0 and 1, got %f", c.BackoffJitterFraction)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getCommaListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getUint64OrDefault(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return v
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
