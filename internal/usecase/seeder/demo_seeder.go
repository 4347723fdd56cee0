package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/sale"
)

// Registrar registers catalog entries
type Registrar interface {
	RegisterInstrument(ctx context.Context, input catalog.RegisterInstrumentInput) (*domain.Instrument, error)
	RegisterClient(ctx context.Context, input catalog.RegisterClientInput) (*domain.Client, error)
}

// SaleRecorder records sales and refunds
type SaleRecorder interface {
	RecordSale(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error)
	RecordRefund(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error)
}

// DemoInstruments is the demo stock. Serial numbers are generated from the type.
var DemoInstruments = []catalog.RegisterInstrumentInput{
	{Maker: "Stradivari Workshop", Type: "Violin", Price: decimal.NewFromInt(12000)},
	{Maker: "Hill & Sons", Type: "Bow", Price: decimal.NewFromInt(2400)},
	{Maker: "Vuillaume", Type: "Cello", Price: decimal.NewFromInt(18500)},
	{Maker: "Gliga", Type: "Viola", Price: decimal.NewFromInt(3200)},
	{Maker: "Pöllmann", Type: "Contrabass", Price: decimal.NewFromInt(9000)},
}

// DemoClients are the demo customers. Client numbers are generated.
var DemoClients = []catalog.RegisterClientInput{
	{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Tags: []string{"vip"}},
	{FirstName: "John", LastName: "Kim", Phone: "010-1234-5678"},
	{FirstName: "민수", LastName: "김", Tags: []string{"student"}},
}

// demoSale refers to DemoClients and DemoInstruments by index; -1 means none
type demoSale struct {
	client     int
	instrument int
	amount     int64
	daysAgo    int
	notes      string
	refund     bool
}

var demoSales = []demoSale{
	{client: 0, instrument: 0, amount: 12000, daysAgo: 40},
	{client: 1, instrument: 1, amount: 2400, daysAgo: 10},
	{client: -1, instrument: -1, amount: 85, daysAgo: 3, notes: "strings and rosin"},
	{client: 2, instrument: 3, amount: 3200, daysAgo: 5},
	{client: 2, instrument: 3, amount: 3200, daysAgo: 2, notes: "returned after trial", refund: true},
}

// DemoSeeder fills an empty database with a small demo catalog and sales history
type DemoSeeder struct {
	instruments domain.InstrumentRepository
	catalog     Registrar
	sales       SaleRecorder
	now         func() time.Time
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(instruments domain.InstrumentRepository, registrar Registrar, sales SaleRecorder) *DemoSeeder {
	return &DemoSeeder{
		instruments: instruments,
		catalog:     registrar,
		sales:       sales,
		now:         time.Now,
	}
}

// Seed loads the demo data unless instruments already exist.
// It reports whether anything was written.
func (s *DemoSeeder) Seed(ctx context.Context) (bool, error) {
	existing, err := s.instruments.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check existing instruments: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	instrumentIDs := make([]uuid.UUID, 0, len(DemoInstruments))
	for _, input := range DemoInstruments {
		instrument, err := s.catalog.RegisterInstrument(ctx, input)
		if err != nil {
			return false, fmt.Errorf("failed to seed instrument %s: %w", input.Type, err)
		}
		instrumentIDs = append(instrumentIDs, instrument.ID)
	}

	clientIDs := make([]uuid.UUID, 0, len(DemoClients))
	for _, input := range DemoClients {
		client, err := s.catalog.RegisterClient(ctx, input)
		if err != nil {
			return false, fmt.Errorf("failed to seed client %s %s: %w", input.FirstName, input.LastName, err)
		}
		clientIDs = append(clientIDs, client.ID)
	}

	today := domain.CalendarDate(s.now())
	for _, ds := range demoSales {
		input := sale.RecordSaleInput{
			Amount:   decimal.NewFromInt(ds.amount),
			SaleDate: today.AddDate(0, 0, -ds.daysAgo),
			Notes:    ds.notes,
		}
		if ds.client >= 0 {
			input.ClientID = &clientIDs[ds.client]
		}
		if ds.instrument >= 0 {
			input.InstrumentID = &instrumentIDs[ds.instrument]
		}

		record := s.sales.RecordSale
		if ds.refund {
			record = s.sales.RecordRefund
		}
		if _, err := record(ctx, input); err != nil {
			return false, fmt.Errorf("failed to seed sale: %w", err)
		}
	}

	return true, nil
}
