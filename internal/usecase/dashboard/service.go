package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/analytics"
	"github.com/simaogato/luthier-backend/internal/usecase/enrichment"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
	"go.uber.org/zap"
)

const (
	clientsKey     = "catalog:clients"
	instrumentsKey = "catalog:instruments"
	reportPrefix   = "report:"
)

// Recorder receives dashboard metrics
type Recorder interface {
	ObserveDashboard(duration time.Duration, cached bool)
	ObserveSalesListed(count int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDashboard(time.Duration, bool) {}
func (nopRecorder) ObserveSalesListed(int) {}

// Options tunes caching and instrumentation of the DashboardService
type Options struct {
	// CatalogTTL is how long client and instrument lists are reused. Reusing the
	// same slices lets the enricher keep its lookup indexes. Zero disables it.
	CatalogTTL time.Duration
	// ReportTTL is how long a computed dashboard is served for the same filters.
	// Zero disables it.
	ReportTTL time.Duration
	Metrics   Recorder
	Logger    *zap.Logger
}

// Dashboard is the analytics report for one filter snapshot
type Dashboard struct {
	Filters     filter.Filters   `json:"filters"`
	Report      analytics.Report `json:"report"`
	GeneratedAt time.Time        `json:"generated_at"`
}

func (d *Dashboard) clone() *Dashboard {
	c := *d
	if d.Filters.HasClient != nil {
		v := *d.Filters.HasClient
		c.Filters.HasClient = &v
	}
	c.Report = d.Report.Clone()
	return &c
}

// DashboardService handles sales listing and dashboard operations
type DashboardService struct {
	SaleRepo       domain.SaleRepository
	ClientRepo     domain.ClientRepository
	InstrumentRepo domain.InstrumentRepository

	enricher   *enrichment.Enricher
	cache      *cache.Cache
	catalogTTL time.Duration
	reportTTL  time.Duration
	metrics    Recorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	saleRepo domain.SaleRepository,
	clientRepo domain.ClientRepository,
	instrumentRepo domain.InstrumentRepository,
	opts Options,
) *DashboardService {
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &DashboardService{
		SaleRepo:       saleRepo,
		ClientRepo:     clientRepo,
		InstrumentRepo: instrumentRepo,
		enricher:       enrichment.NewEnricher(),
		cache:          cache.New(opts.CatalogTTL, 10*time.Minute),
		catalogTTL:     opts.CatalogTTL,
		reportTTL:      opts.ReportTTL,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            time.Now,
	}
}

// ListSales fetches the sales matching the filters, enriches them and applies
// the derived client-name sort when requested
func (s *DashboardService) ListSales(ctx context.Context, f filter.Filters) ([]domain.EnrichedSale, error) {
	query, err := f.ToQuery()
	if err != nil {
		return nil, err
	}

	sales, err := s.SaleRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	clients, instruments, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	enriched := s.enricher.Enrich(sales, clients, instruments)
	s.metrics.ObserveSalesListed(len(enriched))
	return enrichment.ApplySort(enriched, f.SortColumn, f.SortDirection), nil
}

// GetDashboard computes every analytics view for the filters.
// Logic:
//  1. Serve a copy of the cached report for the same canonical filters when present
//  2. Otherwise list and enrich the sales and build the report
//  3. With both dates bounded, the daily trend runs on a continuous axis
func (s *DashboardService) GetDashboard(ctx context.Context, f filter.Filters) (*Dashboard, error) {
	start := s.now()
	key := reportPrefix + filter.Encode(f, filter.Filters{}).Encode()

	if cached, ok := s.cache.Get(key); ok {
		s.metrics.ObserveDashboard(s.now().Sub(start), true)
		return cached.(*Dashboard).clone(), nil
	}

	sales, err := s.ListSales(ctx, f)
	if err != nil {
		return nil, err
	}

	report := analytics.BuildReport(sales)
	if f.From != "" && f.To != "" {
		from, _ := filter.ParseDate(f.From)
		to, _ := filter.ParseDate(f.To)
		report.Daily, _ = analytics.DailyTrendBetween(sales, *from, *to)
	}

	d := &Dashboard{Filters: f, Report: report, GeneratedAt: s.now()}
	if s.reportTTL > 0 {
		s.cache.Set(key, d.clone(), s.reportTTL)
	}

	s.metrics.ObserveDashboard(s.now().Sub(start), false)
	s.logger.Debug("dashboard computed",
		zap.Int("sales", len(sales)),
		zap.Bool("has_data", report.HasData),
		zap.String("filters", key),
	)
	return d, nil
}

// Invalidate drops cached catalog lists and reports
func (s *DashboardService) Invalidate() {
	s.cache.Flush()
}

// catalog returns the client and instrument lists, reusing cached slices
func (s *DashboardService) catalog(ctx context.Context) ([]domain.Client, []domain.Instrument, error) {
	var clients []domain.Client
	if v, ok := s.cache.Get(clientsKey); ok {
		clients = v.([]domain.Client)
	} else {
		list, err := s.ClientRepo.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list clients: %w", err)
		}
		clients = list
		if s.catalogTTL > 0 {
			s.cache.Set(clientsKey, clients, s.catalogTTL)
		}
	}

	var instruments []domain.Instrument
	if v, ok := s.cache.Get(instrumentsKey); ok {
		instruments = v.([]domain.Instrument)
	} else {
		list, err := s.InstrumentRepo.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list instruments: %w", err)
		}
		instruments = list
		if s.catalogTTL > 0 {
			s.cache.Set(instrumentsKey, instruments, s.catalogTTL)
		}
	}

	return clients, instruments, nil
}
