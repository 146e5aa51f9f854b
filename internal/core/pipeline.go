package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Pipeline turns a source file into a Dataset. It holds no state between
// runs; memoization is the job of Cache.
type Pipeline struct {
	Options LoadOptions
	Logger  *slog.Logger
}

// NewPipeline creates a pipeline. A nil logger uses slog.Default.
func NewPipeline(opts LoadOptions, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Options: opts, Logger: logger}
}

// Load runs the pipeline with default options, bypassing any cache.
func Load(path string) (*Dataset, error) {
	return NewPipeline(DefaultLoadOptions(), nil).Load(context.Background(), path)
}

// Load reads path and runs extract, sanitize, join, and derive.
// Only the raw load can fail; everything after it absorbs bad values per field policy.
func (p *Pipeline) Load(ctx context.Context, path string) (*Dataset, error) {
	start := time.Now()
	log := p.Logger.With("source", path)

	raw, err := LoadRaw(path, p.Options)
	if err != nil {
		log.Error("source load failed", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug("source read", "rows", raw.Len(), "bytes", raw.BytesRead)

	ds := Build(raw)
	ds.Source = path
	ds.Stats.Duration = time.Since(start)

	for _, def := range All() {
		s := ds.Stats.Entities[def.Entity]
		log.Debug("entity sanitized",
			"entity", def.Entity,
			"extracted", s.Extracted,
			"kept", s.Kept,
			"dropped", s.Dropped,
		)
	}
	log.Info("dataset loaded",
		"dataset_id", ds.ID,
		"raw_rows", ds.Stats.RawRows,
		"customer_orders", ds.Stats.Joins.CustomerOrders,
		"with_sale_lines", ds.Stats.Joins.WithSaleLines,
		"facts", len(ds.Facts),
		"duration", ds.Stats.Duration,
	)
	return ds, nil
}

// Build runs every stage after the raw load. It never fails.
func Build(raw *RawTable) *Dataset {
	customers, customerStats := SanitizeCustomers(ExtractCustomers(raw))
	orders, orderStats := SanitizeOrders(ExtractOrders(raw))
	products, productStats := SanitizeProducts(ExtractProducts(raw))
	sales, saleStats := SanitizeSaleLines(ExtractSaleLines(raw))

	facts, joinStats := JoinFacts(customers, orders, sales, products)
	DeriveFeatures(facts)

	return &Dataset{
		ID:       uuid.New(),
		LoadedAt: time.Now(),
		Facts:    facts,
		Stats: PipelineStats{
			RawRows:   raw.Len(),
			BytesRead: raw.BytesRead,
			Entities: map[Entity]SanitizeStats{
				EntityCustomers: customerStats,
				EntityOrders:    orderStats,
				EntityProducts:  productStats,
				EntitySaleLines: saleStats,
			},
			Joins: joinStats,
		},
	}
}
