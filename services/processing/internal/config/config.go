package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"talentinsight/common/database"
	"talentinsight/common/rawstore"
	"talentinsight/services/processing/internal/dimension"
)

type Config struct {
	NATSURL         string
	NATSConnTimeout time.Duration

	WarehousePath string

	RawStoreDriver string
	RawStorePath   string

	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string

	// CatalogPath overrides the built-in country/skill/source catalog.
	CatalogPath string

	HorizonStart    string
	HorizonYears    int
	HorizonFallback string

	CleanConcurrency int
	RunTimeout       time.Duration
	RunOnStart       bool

	OTELCollectorURL string
}

func LoadConfig() (*Config, error) {
	config := &Config{
		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		WarehousePath: getEnvString("WAREHOUSE_PATH", "talentinsight.db"),

		RawStoreDriver: getEnvString("RAW_STORE_DRIVER", rawstore.DriverSQLite),
		RawStorePath:   getEnvString("RAW_STORE_PATH", "raw.db"),

		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "talentinsight"),

		CatalogPath: getEnvString("CATALOG_PATH", ""),

		HorizonStart:    getEnvString("DATE_HORIZON_START", "2024-01-01"),
		HorizonYears:    getEnvInt("DATE_HORIZON_YEARS", 2),
		HorizonFallback: getEnvString("DATE_FALLBACK", "2024-06-30"),

		CleanConcurrency: getEnvInt("CLEAN_CONCURRENCY", 4),
		RunTimeout:       getEnvDuration("RUN_TIMEOUT", 10*time.Minute),
		RunOnStart:       getEnvBool("RUN_ON_START", false),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	if _, err := config.Horizon(); err != nil {
		return nil, err
	}

	return config, nil
}

// Horizon returns the validated date dimension span.
func (c *Config) Horizon() (dimension.Horizon, error) {
	start, err := time.Parse(dimension.DateLayout, c.HorizonStart)
	if err != nil {
		return dimension.Horizon{}, fmt.Errorf("DATE_HORIZON_START: %w", err)
	}
	h := dimension.Horizon{Start: start, Years: c.HorizonYears, Fallback: c.HorizonFallback}
	if err := h.Validate(); err != nil {
		return dimension.Horizon{}, err
	}
	return h, nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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
