package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"talentinsight/common/cache"
	"talentinsight/common/database"
	"talentinsight/common/rawstore"
)

type Config struct {
	AdzunaBaseURL        string
	AdzunaAppID          string
	AdzunaAPIKey         string
	AdzunaCountries      []string
	AdzunaQueries        []string
	AdzunaResultsPerPage int

	GitHubBaseURL      string
	GitHubToken        string
	GitHubLanguages    []string
	GitHubCreatedAfter string
	GitHubPerPage      int

	HTTPTimeout     time.Duration
	RequestInterval time.Duration

	PollingInterval time.Duration
	MaxRetries      int
	RetryDelay      time.Duration

	// RawDir holds exported files (surveys, job board scrapes, trends) that
	// are landed on every cycle. Empty disables the feeder.
	RawDir string

	RawStoreDriver string
	RawStorePath   string

	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string

	NATSURL         string
	NATSConnTimeout time.Duration

	// RedisAddr selects the redis response cache; empty keeps it in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTELCollectorURL string
}

func LoadConfig() (*Config, error) {
	config := &Config{
		AdzunaBaseURL:        getEnvString("ADZUNA_API_BASE_URL", "https://api.adzuna.com/v1/api"),
		AdzunaAppID:          getEnvString("ADZUNA_APP_ID", ""),
		AdzunaAPIKey:         getEnvString("ADZUNA_API_KEY", ""),
		AdzunaCountries:      getEnvList("ADZUNA_COUNTRIES", []string{"fr", "de", "nl", "es", "it", "pl", "gb", "ch", "at", "be"}),
		AdzunaQueries:        getEnvList("ADZUNA_QUERIES", []string{"python developer", "javascript developer", "react developer"}),
		AdzunaResultsPerPage: getEnvInt("ADZUNA_RESULTS_PER_PAGE", 50),

		GitHubBaseURL:      getEnvString("GITHUB_API_BASE_URL", "https://api.github.com"),
		GitHubToken:        getEnvString("GITHUB_TOKEN", ""),
		GitHubLanguages:    getEnvList("GITHUB_LANGUAGES", []string{"Rust", "Python", "JavaScript", "Go", "TypeScript", "Java"}),
		GitHubCreatedAfter: getEnvString("GITHUB_CREATED_AFTER", "2024-01-01"),
		GitHubPerPage:      getEnvInt("GITHUB_PER_PAGE", 100),

		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		RequestInterval: getEnvDuration("REQUEST_INTERVAL", time.Second),

		PollingInterval: getEnvDuration("POLLING_INTERVAL", 24*time.Hour),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		RetryDelay:      getEnvDuration("RETRY_DELAY", 2*time.Second),

		RawDir: getEnvString("RAW_DIR", "raw"),

		RawStoreDriver: getEnvString("RAW_STORE_DRIVER", rawstore.DriverSQLite),
		RawStorePath:   getEnvString("RAW_STORE_PATH", "raw.db"),

		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "talentinsight"),

		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 12*time.Hour),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	return config, nil
}

func (c *Config) RawStore() rawstore.Options {
	return rawstore.Options{
		Driver: c.RawStoreDriver,
		Path:   c.RawStorePath,
		ClickHouse: database.Options{
			DSN:             c.ClickHouseDSN,
			MaxOpenConns:    c.ClickHouseMaxOpenConns,
			MaxIdleConns:    c.ClickHouseMaxIdleConns,
			ConnMaxLifetime: c.ClickHouseConnMaxLife,
			Username:        c.ClickHouseUsername,
			Password:        c.ClickHousePassword,
			Database:        c.ClickHouseDatabase,
		},
	}
}

func (c *Config) Cache() cache.Options {
	opts := cache.DefaultOptions()
	opts.RedisURL = c.RedisAddr
	opts.RedisPassword = c.RedisPassword
	opts.RedisDB = c.RedisDB
	opts.DefaultTTL = c.CacheTTL
	return opts
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
