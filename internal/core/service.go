package core

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	SourcePath  string
	Load        LoadOptions
	Dashboard   DashboardOptions
	PreviewRows int
}

// Service answers dashboard queries for the configured source.
// The dataset is loaded lazily on first use and memoized in the cache.
type Service struct {
	cfg     ServiceConfig
	cache   *Cache
	table   *FactTable
	exports *ExportLimiter
	logger  *slog.Logger
}

// NewService wires a service around cache. It fails only if the fact schema is inconsistent.
func NewService(cfg ServiceConfig, cache *Cache, exports *ExportLimiter, logger *slog.Logger) (*Service, error) {
	table, err := NewFactTable()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if exports == nil {
		exports = NewExportLimiter(0, 0)
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 10
	}
	return &Service{
		cfg:     cfg,
		cache:   cache,
		table:   table,
		exports: exports,
		logger:  logger,
	}, nil
}

// Source returns the configured source path.
func (s *Service) Source() string {
	return s.cfg.SourcePath
}

// Dataset returns the memoized dataset for the configured source.
func (s *Service) Dataset(ctx context.Context) (*Dataset, error) {
	return s.cache.Get(ctx, s.cfg.SourcePath)
}

// Loaded returns the cached dataset without triggering a load.
func (s *Service) Loaded() (*Dataset, bool) {
	return s.cache.Peek(s.cfg.SourcePath)
}

// Bounds describes the filter domain of the loaded dataset.
type Bounds struct {
	DatasetID  uuid.UUID     `json:"datasetId"`
	LoadedAt   time.Time     `json:"loadedAt"`
	From       string        `json:"from,omitempty"`
	To         string        `json:"to,omitempty"`
	Categories []string      `json:"categories"`
	Facts      int           `json:"facts"`
	Stats      PipelineStats `json:"stats"`
}

// Bounds returns the date range and category options of the full dataset.
func (s *Service) Bounds(ctx context.Context) (Bounds, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return Bounds{}, err
	}
	b := Bounds{
		DatasetID:  ds.ID,
		LoadedAt:   ds.LoadedAt,
		Categories: CategoryOptions(ds.Facts, DateRange{}),
		Facts:      len(ds.Facts),
		Stats:      ds.Stats,
	}
	if minDate, maxDate, ok := ds.DateBounds(); ok {
		b.From = minDate.Format(DateLayout)
		b.To = maxDate.Format(DateLayout)
	}
	return b, nil
}

// DashboardResult is a dashboard tagged with the dataset it was computed from.
type DashboardResult struct {
	DatasetID uuid.UUID `json:"datasetId"`
	Dashboard
}

// Dashboard computes KPIs and series for f.
func (s *Service) Dashboard(ctx context.Context, f Filter) (DashboardResult, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return DashboardResult{}, err
	}
	return DashboardResult{
		DatasetID: ds.ID,
		Dashboard: BuildDashboard(ds.Facts, f, s.cfg.Dashboard),
	}, nil
}

// Preview returns one page of filtered facts. limit <= 0 uses the configured preview size.
func (s *Service) Preview(ctx context.Context, f Filter, offset, limit int, withStats bool) (Preview, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return Preview{}, err
	}
	if limit <= 0 {
		limit = s.cfg.PreviewRows
	}
	v := ApplyFilter(ds.Facts, f)
	return s.table.Page(v.Facts, offset, limit, withStats), nil
}

// Export writes the filtered facts to w as CSV with a header row.
// It returns the number of data rows written.
func (s *Service) Export(ctx context.Context, f Filter, w io.Writer) (int, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return 0, err
	}

	release, err := s.exports.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	v := ApplyFilter(ds.Facts, f)
	cw := csv.NewWriter(w)
	if err := cw.Write(s.table.Columns()); err != nil {
		return 0, err
	}
	for i := range v.Facts {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return i, err
			}
		}
		if err := cw.Write(s.table.Record(&v.Facts[i])); err != nil {
			return i, err
		}
	}
	cw.Flush()
	return len(v.Facts), cw.Error()
}

// Reload drops the cached dataset and loads the source again.
func (s *Service) Reload(ctx context.Context) (*Dataset, error) {
	s.cache.Invalidate(s.cfg.SourcePath)
	return s.Dataset(ctx)
}

// DrainExports waits for in-progress exports to finish.
func (s *Service) DrainExports(ctx context.Context) error {
	return s.exports.Drain(ctx)
}

// PolicyField is the external description of one FieldSpec.
type PolicyField struct {
	Field     string   `json:"field"`
	Source    string   `json:"source"`
	Type      string   `json:"type"`
	OnFailure string   `json:"onFailure"`
	Fallback  string   `json:"fallback,omitempty"`
	Checks    []string `json:"checks,omitempty"`
}

// PolicyEntity lists the field policies of one entity.
type PolicyEntity struct {
	Entity Entity        `json:"entity"`
	Label  string        `json:"label"`
	Fields []PolicyField `json:"fields"`
}

// Policy describes the sanitize rules of every entity in pipeline order.
func (s *Service) Policy() []PolicyEntity {
	return DescribePolicy()
}

// DescribePolicy renders the registered field policies.
func DescribePolicy() []PolicyEntity {
	defs := All()
	out := make([]PolicyEntity, len(defs))
	for i, def := range defs {
		pe := PolicyEntity{Entity: def.Entity, Label: def.Label, Fields: make([]PolicyField, len(def.Fields))}
		for j, f := range def.Fields {
			pf := PolicyField{
				Field:     f.Name,
				Source:    f.Source,
				Type:      f.Type.String(),
				OnFailure: f.OnFailure.String(),
			}
			if f.OnFailure == UseFallback {
				pf.Fallback = f.Fallback.Describe(f.Type)
			}
			for _, c := range f.Checks {
				pf.Checks = append(pf.Checks, c.Name)
			}
			pe.Fields[j] = pf
		}
		out[i] = pe
	}
	return out
}
