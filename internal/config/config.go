// Package config provides configuration management for the account explorer.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/account-explorer/internal/types"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Flow     FlowConfig
	Explorer ExplorerConfig
	Poll     PollConfig
	Store    StoreConfig
	Backend  BackendConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// FlowConfig holds Flow access node configuration
type FlowConfig struct {
	AccessNodeURL string
}

// ExplorerConfig holds block-explorer endpoint configuration
type ExplorerConfig struct {
	APIBaseURL        string
	PageBaseURL       string
	ScrapeServiceURL  string
	Source            types.ScrapeSource
	RequestsPerSecond float64
	BrowserTimeout    time.Duration
	TabSettleDelay    time.Duration
}

// PollConfig holds polling scheduler configuration
type PollConfig struct {
	Interval time.Duration
	Accounts []string
}

// StoreConfig holds snapshot store configuration
type StoreConfig struct {
	Backend      types.StoreBackend
	RetentionCap int
	Redis        RedisConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// BackendConfig holds the upsert collaborator configuration. The client
// side posts extraction results to UpsertURL when enabled; the server side
// persists them in Mongo.
type BackendConfig struct {
	UpsertEnabled bool
	UpsertURL     string
	MongoURI      string
	MongoDatabase string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8787"),
		},
		Flow: FlowConfig{
			AccessNodeURL: getEnv("FLOW_ACCESS_NODE_URL", "https://rest-testnet.onflow.org"),
		},
		Explorer: ExplorerConfig{
			APIBaseURL:        getEnv("EXPLORER_API_BASE_URL", "https://testnet.flowscan.org/api"),
			PageBaseURL:       getEnv("EXPLORER_PAGE_BASE_URL", "https://testnet.flowscan.io"),
			ScrapeServiceURL:  getEnv("SCRAPE_SERVICE_URL", ""),
			Source:            parseScrapeSource(getEnv("SCRAPE_SOURCE", "api")),
			RequestsPerSecond: getEnvAsFloat("EXPLORER_REQUESTS_PER_SECOND", 3.0),
			BrowserTimeout:    getEnvAsDuration("BROWSER_TIMEOUT", 30*time.Second),
			TabSettleDelay:    getEnvAsDuration("TAB_SETTLE_DELAY", 2*time.Second),
		},
		Poll: PollConfig{
			Interval: getEnvAsDuration("POLL_INTERVAL", 60*time.Second),
			Accounts: splitList(getEnv("WATCH_ACCOUNTS", "")),
		},
		Store: StoreConfig{
			Backend:      parseStoreBackend(getEnv("SNAPSHOT_STORE", "redis")),
			RetentionCap: getEnvAsInt("SNAPSHOT_RETENTION_CAP", 500),
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Backend: BackendConfig{
			UpsertEnabled: getEnvAsBool("BACKEND_UPSERT_ENABLED", false),
			UpsertURL:     getEnv("BACKEND_UPSERT_URL", ""),
			MongoURI:      getEnv("MONGODB_URL", ""),
			MongoDatabase: getEnv("MONGODB_DATABASE", "book_of_truth"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if config.Poll.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %v", config.Poll.Interval)
	}
	if config.Store.RetentionCap <= 0 {
		return nil, fmt.Errorf("snapshot retention cap must be positive, got %d", config.Store.RetentionCap)
	}
	if config.Explorer.Source == types.SourceService && config.Explorer.ScrapeServiceURL == "" {
		return nil, fmt.Errorf("SCRAPE_SOURCE=service requires SCRAPE_SERVICE_URL")
	}

	return config, nil
}

func parseScrapeSource(value string) types.ScrapeSource {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "headless":
		return types.SourceHeadless
	case "service":
		return types.SourceService
	default:
		return types.SourceAPI
	}
}

func parseStoreBackend(value string) types.StoreBackend {
	if strings.ToLower(strings.TrimSpace(value)) == "memory" {
		return types.StoreMemory
	}
	return types.StoreRedis
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
