package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/astronomy"
	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/noaa"
	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/openmeteo"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DBPath        string
	CatchLocation *time.Location

	UpstreamTimeout    time.Duration
	UpstreamMaxRetries int
	BaroDeadband       float64

	// Backfill scheduling. A zero interval disables the scheduler.
	BackfillInterval time.Duration
	BackfillWorkers  int
	BackfillGroups   []domain.FieldGroup

	NOAATidesURL     string
	NOAAStationsURL  string
	OpenMeteoURL     string
	AstronomyURL     string
	AstronomyAPIKey  string
	AstronomyEnabled bool

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("CATCH_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATCH_TIMEZONE: %w", err)
	}

	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	backfillInterval, err := parseDuration("BACKFILL_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}

	retries, err := parseInt("UPSTREAM_MAX_RETRIES", "2", 0)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("BACKFILL_WORKERS", "1", 1)
	if err != nil {
		return nil, err
	}

	deadband, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("BARO_TREND_DEADBAND", "0.5"), 64)
	if err != nil || deadband < 0 {
		return nil, errors.New("invalid BARO_TREND_DEADBAND")
	}

	groups, err := parseGroups(sharedcfg.EnvOrDefault("BACKFILL_GROUPS", "astronomy,barometric,tide,weather"))
	if err != nil {
		return nil, err
	}

	apiKey := sharedcfg.EnvOrDefault("ASTRONOMY_API_KEY", "")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBPath:        sharedcfg.EnvOrDefault("DB_PATH", "data/fishing.db"),
		CatchLocation: loc,

		UpstreamTimeout:    upstreamTimeout,
		UpstreamMaxRetries: retries,
		BaroDeadband:       deadband,

		BackfillInterval: backfillInterval,
		BackfillWorkers:  workers,
		BackfillGroups:   groups,

		NOAATidesURL:     sharedcfg.EnvOrDefault("NOAA_TIDES_URL", noaa.DefaultTidesURL),
		NOAAStationsURL:  sharedcfg.EnvOrDefault("NOAA_STATIONS_URL", noaa.DefaultStationsURL),
		OpenMeteoURL:     sharedcfg.EnvOrDefault("OPEN_METEO_ARCHIVE_URL", openmeteo.DefaultArchiveURL),
		AstronomyURL:     sharedcfg.EnvOrDefault("ASTRONOMY_URL", astronomy.DefaultURL),
		AstronomyAPIKey:  apiKey,
		AstronomyEnabled: apiKey != "",

		KafkaEnabled: sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "fishing-log-enrichment"),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key, def string, minimum int) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}

func parseGroups(raw string) ([]domain.FieldGroup, error) {
	var groups []domain.FieldGroup
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g, ok := domain.ParseFieldGroup(part)
		if !ok {
			return nil, fmt.Errorf("invalid BACKFILL_GROUPS: unknown field group %q", part)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
