// Command seed inserts synthetic fishing records through the enricher, for
// exercising a local database against the live upstream providers.
//
// Usage:
//
//	go run ./cmd/seed -n 20 -lat 41.52 -lon -70.67 -date 2025-06-14
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/fishing-log-enrichment/internal/app"
	"github.com/couchcryptid/fishing-log-enrichment/internal/config"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
)

var species = []string{"Striped bass", "Bluefish", "Black sea bass", "Scup", "Fluke", "Tautog"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 10, "number of records to insert")
	lat := flag.Float64("lat", 41.52, "center latitude")
	lon := flag.Float64("lon", -70.67, "center longitude")
	date := flag.String("date", time.Now().AddDate(0, 0, -2).Format("2006-01-02"), "catch date (YYYY-MM-DD)")
	flag.Parse()

	if _, err := time.Parse("2006-01-02", *date); err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, observability.NewMetrics(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	for i := range *n {
		rec := domain.FishingRecord{
			Title:       species[i%len(species)],
			Date:        *date,
			Time:        fmt.Sprintf("%02d:%02d", 5+rand.IntN(14), rand.IntN(60)),
			Latitude:    domain.Ptr(*lat + (rand.Float64()-0.5)*0.2),
			Longitude:   domain.Ptr(*lon + (rand.Float64()-0.5)*0.2),
			CatchStatus: "caught",
		}
		if i%4 == 3 {
			rec.CatchStatus = "released"
		}
		stored, err := a.Enricher.Insert(ctx, rec)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
		log.Printf("inserted %d %q at %s %s tide=%s", stored.ID, stored.Title, stored.Date, stored.Time, stageOf(stored.Env))
	}
	return nil
}

func stageOf(env domain.EnvironmentalContext) string {
	if env.TideStage == nil {
		return "-"
	}
	return string(*env.TideStage)
}
