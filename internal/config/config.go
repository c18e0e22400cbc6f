package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	NodeID      int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMetricsEnabled  bool

	Redis RedisConfig

	Providers ProviderConfig
}

type RedisConfig struct {
	Enabled           bool
	Addr              string
	Password          string
	DB                int
	ToggleLockSeconds int
}

// ProviderConfig carries the feature flags gating individual delivery
// providers, keyed by provider identifier.
type ProviderConfig struct {
	FeatureFlags map[string]bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "courier"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		NodeID:            getenvInt64("SNOWFLAKE_NODE", 1),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "courier"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMetricsEnabled:  getenvBool("DATABASE_METRICS_ENABLED", false),
		Redis: RedisConfig{
			Enabled:           getenvBool("REDIS_ENABLED", false),
			Addr:              strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password:          strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:                getenvInt("REDIS_DB", 0),
			ToggleLockSeconds: getenvInt("PROVIDER_TOGGLE_LOCK_SECONDS", 10),
		},
		Providers: ProviderConfig{
			FeatureFlags: map[string]bool{
				"govdelivery": getenvBool("GOVDELIVERY_EMAIL_CLIENT_ENABLED", false),
			},
		},
	}

	return cfg
}

// IsProviderEnabled reports whether a provider may be selected. Providers
// without a feature flag are always enabled.
func (c ProviderConfig) IsProviderEnabled(identifier string) bool {
	enabled, ok := c.FeatureFlags[strings.ToLower(strings.TrimSpace(identifier))]
	if !ok {
		return true
	}
	return enabled
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
