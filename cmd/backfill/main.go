// Command backfill recomputes one group of environmental fields for stored
// fishing records.
//
// Usage:
//
//	go run ./cmd/backfill -group tide
//	go run ./cmd/backfill -group barometric -reprocess -limit 500
//	go run ./cmd/backfill -group all
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/fishing-log-enrichment/internal/app"
	"github.com/couchcryptid/fishing-log-enrichment/internal/config"
	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
	"github.com/couchcryptid/fishing-log-enrichment/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	group := flag.String("group", "", "field group to backfill: astronomy, barometric, tide, weather or all")
	reprocess := flag.Bool("reprocess", false, "process every record, not only those missing a field")
	limit := flag.Int("limit", 0, "maximum number of records to scan (0 = all)")
	flag.Parse()

	groups, err := parseGroups(*group)
	if err != nil {
		flag.Usage()
		return err
	}
	if *limit < 0 {
		return fmt.Errorf("-limit must not be negative")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, observability.NewMetrics(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, g := range groups {
		res, err := a.Enricher.Backfill(ctx, domain.BackfillCriteria{Group: g, Reprocess: *reprocess, Limit: *limit})
		if err != nil {
			return fmt.Errorf("backfill %s: %w", g, err)
		}
		fmt.Fprintf(os.Stdout, "run %s: group=%s scanned=%d updated=%d skipped=%d in %s\n",
			res.RunID, res.Group, res.Scanned, res.Updated, res.Skipped, res.Duration.Round(time.Millisecond))
	}
	return nil
}

func parseGroups(s string) ([]domain.FieldGroup, error) {
	if s == "all" {
		return domain.AllGroups, nil
	}
	g, ok := domain.ParseFieldGroup(s)
	if !ok {
		return nil, fmt.Errorf("unknown -group %q", s)
	}
	return []domain.FieldGroup{g}, nil
}
