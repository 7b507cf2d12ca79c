// Package app assembles the enrichment service from configuration.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/astronomy"
	kafkaadapter "github.com/couchcryptid/fishing-log-enrichment/internal/adapter/kafka"
	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/noaa"
	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/openmeteo"
	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/sqlite"
	"github.com/couchcryptid/fishing-log-enrichment/internal/adapter/upstream"
	"github.com/couchcryptid/fishing-log-enrichment/internal/config"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/enrich"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
)

// stationLoadTimeout bounds the one-off station directory download.
const stationLoadTimeout = 30 * time.Second

// App holds the wired service components.
type App struct {
	Enricher *enrich.Enricher
	Store    *sqlite.Store
	Stations *domain.GeoIndex

	writer *kafkaadapter.Writer
	logger *slog.Logger
}

// Build opens the store, loads the tide station index and wires the upstream
// clients into an Enricher. A station directory that cannot be loaded leaves
// the index empty; tide fields then stay unset.
func Build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*App, error) {
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	opts := upstream.Options{
		Timeout: cfg.UpstreamTimeout,
		Backoff: upstream.Backoff{
			MaxRetries:      cfg.UpstreamMaxRetries,
			InitialInterval: upstream.DefaultBackoff.InitialInterval,
			MaxInterval:     upstream.DefaultBackoff.MaxInterval,
		},
	}
	noaaClient := upstream.New("noaa", opts, metrics, logger)
	meteoClient := upstream.New("open-meteo", opts, metrics, logger)

	stations := loadStations(ctx, store, noaa.NewStationClient(cfg.NOAAStationsURL, noaaClient), logger)
	metrics.StationsLoaded.Set(float64(stations.Len()))

	meteo := openmeteo.NewClient(cfg.OpenMeteoURL, cfg.CatchLocation, meteoClient)
	sources := enrich.Sources{
		Pressure: meteo,
		Weather:  meteo,
		Tides:    noaa.NewTideClient(cfg.NOAATidesURL, noaaClient),
	}
	if cfg.AstronomyEnabled {
		sources.Astronomy = astronomy.NewClient(cfg.AstronomyURL, cfg.AstronomyAPIKey,
			upstream.New("astronomy", opts, metrics, logger))
	} else {
		logger.Info("astronomy lookups disabled, ASTRONOMY_API_KEY not set")
	}

	a := &App{Store: store, Stations: stations, logger: logger}
	deps := enrich.Deps{
		Sources:  sources,
		Stations: stations,
		Store:    store,
		Metrics:  metrics,
		Logger:   logger,
	}
	if cfg.KafkaEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		deps.Publisher = a.writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	a.Enricher = enrich.New(deps, enrich.Options{
		Location:        cfg.CatchLocation,
		UpstreamTimeout: cfg.UpstreamTimeout,
		BaroDeadband:    cfg.BaroDeadband,
		BackfillWorkers: cfg.BackfillWorkers,
	})
	return a, nil
}

func loadStations(ctx context.Context, store *sqlite.Store, remote domain.StationDirectory, logger *slog.Logger) *domain.GeoIndex {
	ctx, cancel := context.WithTimeout(ctx, stationLoadTimeout)
	defer cancel()

	list, err := sqlite.NewStationDirectory(store, remote, logger).Stations(ctx)
	if err != nil {
		logger.Warn("tide station directory unavailable, tide enrichment disabled", "error", err)
		return domain.NewGeoIndex(nil)
	}
	logger.Info("tide stations loaded", "stations", len(list))
	return domain.NewGeoIndex(list)
}

// Close releases the publisher and the store.
func (a *App) Close() error {
	var errs []error
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
