package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/connection"
	"github.com/simaogato/luthier-backend/internal/usecase/dashboard"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
	"github.com/simaogato/luthier-backend/internal/usecase/identifier"
	"github.com/simaogato/luthier-backend/internal/usecase/sale"
)

// MockSalesReader is a mock implementation of SalesReader
type MockSalesReader struct {
	mock.Mock
}

func (m *MockSalesReader) ListSales(ctx context.Context, f filter.Filters) ([]domain.EnrichedSale, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EnrichedSale), args.Error(1)
}

func (m *MockSalesReader) GetDashboard(ctx context.Context, f filter.Filters) (*dashboard.Dashboard, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Dashboard), args.Error(1)
}

// MockSaleRecorder is a mock implementation of SaleRecorder
type MockSaleRecorder struct {
	mock.Mock
}

func (m *MockSaleRecorder) RecordSale(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sale), args.Error(1)
}

func (m *MockSaleRecorder) RecordRefund(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sale), args.Error(1)
}

// MockCatalogManager is a mock implementation of CatalogManager
type MockCatalogManager struct {
	mock.Mock
}

func (m *MockCatalogManager) NextIdentifier(ctx context.Context, kind catalog.Kind, classification string) (string, error) {
	args := m.Called(ctx, kind, classification)
	return args.String(0), args.Error(1)
}

func (m *MockCatalogManager) ValidateIdentifier(ctx context.Context, kind catalog.Kind, candidate, current string) (identifier.Validation, error) {
	args := m.Called(ctx, kind, candidate, current)
	return args.Get(0).(identifier.Validation), args.Error(1)
}

func (m *MockCatalogManager) RegisterInstrument(ctx context.Context, input catalog.RegisterInstrumentInput) (*domain.Instrument, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockCatalogManager) RegisterClient(ctx context.Context, input catalog.RegisterClientInput) (*domain.Client, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

// MockConnectionManager is a mock implementation of ConnectionManager
type MockConnectionManager struct {
	mock.Mock
}

func (m *MockConnectionManager) Summary(ctx context.Context, clientID uuid.UUID) (*connection.ClientSummary, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connection.ClientSummary), args.Error(1)
}

func (m *MockConnectionManager) Submit(ctx context.Context, form *connection.Form) (*domain.Connection, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}
