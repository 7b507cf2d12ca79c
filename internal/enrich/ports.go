package enrich

import (
	"context"

	"github.com/couchcryptid/fishing-log-enrichment/internal/domain"
)

// Store persists fishing records. Implementations wrap their failures with
// domain.ErrStorage.
type Store interface {
	InsertRecord(ctx context.Context, rec domain.FishingRecord) (int64, error)
	// ListForBackfill returns records missing at least one field of the
	// criteria's group, or every record when Reprocess is set, in ascending
	// id order.
	ListForBackfill(ctx context.Context, c domain.BackfillCriteria) ([]domain.FishingRecord, error)
	// UpdateEnvironment writes only the columns belonging to group.
	UpdateEnvironment(ctx context.Context, id int64, group domain.FieldGroup, env domain.EnvironmentalContext) error
	Ping(ctx context.Context) error
}

// Publisher announces written environmental context to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.EnrichmentEvent) error
}

// Sources bundles the upstream data sources. A nil source disables the
// fields it would provide.
type Sources struct {
	Astronomy domain.AstronomySource
	Pressure  domain.PressureSource
	Weather   domain.WeatherSource
	Tides     domain.TideSource
}
