package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SheetSource     string // file path (.csv, .xlsx) or http(s) CSV export URL
	SheetName       string // worksheet for .xlsx sources; first sheet when empty
	Schema          domain.Schema
	RefreshInterval time.Duration
	FetchTimeout    time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional sinks; disabled when unset.
	KafkaBrokers   []string
	KafkaSinkTopic string
	DatabaseURL    string

	// Mapbox geocoding configuration.
	MapboxToken    string
	MapboxEnabled  bool
	MapboxTimeout  time.Duration
	MapboxCacheTTL time.Duration
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables (optionally .env),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxCacheTTL, err := parsePositiveDuration("MAPBOX_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}

	schema := domain.DefaultSchema()
	schemaFile := strings.TrimSpace(os.Getenv("SCHEMA_FILE"))
	if schemaFile != "" {
		schema, err = LoadSchema(schemaFile)
		if err != nil {
			return nil, err
		}
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		SheetSource:     strings.TrimSpace(os.Getenv("SHEET_SOURCE")),
		SheetName:       os.Getenv("SHEET_NAME"),
		Schema:          schema,
		RefreshInterval: refreshInterval,
		FetchTimeout:    fetchTimeout,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "reconciled-sites"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),

		MapboxToken:    mapboxToken,
		MapboxEnabled:  mapboxEnabled,
		MapboxTimeout:  mapboxTimeout,
		MapboxCacheTTL: mapboxCacheTTL,
	}

	if cfg.SheetSource == "" {
		return nil, errors.New("SHEET_SOURCE is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// LoadSchema reads a YAML schema file declaring correctness check columns
// and extra null sentinels:
//
//	checks:
//	  - column: phone_number_correct
//	    label: Phone number correct
//	null_sentinels: ["-", "unknown"]
func LoadSchema(path string) (domain.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("read schema file: %w", err)
	}
	var s domain.Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return domain.Schema{}, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	for i, c := range s.Checks {
		if strings.TrimSpace(c.Column) == "" {
			return domain.Schema{}, fmt.Errorf("schema file %s: check %d has no column", path, i)
		}
	}
	return s, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
