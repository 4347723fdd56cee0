package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return Wrap(db), mock
}

var saleColumns = []string{"id", "client_id", "instrument_id", "sale_price", "sale_date", "notes", "created_at"}

func TestBuildSaleQuery_NoFilters(t *testing.T) {
	sqlText, args := buildSaleQuery(domain.SaleQuery{})

	assert.Empty(t, args)
	assert.NotContains(t, sqlText, "WHERE")
	assert.Contains(t, sqlText, "ORDER BY s.sale_date DESC, s.created_at DESC, s.id")
}

func TestBuildSaleQuery_AllFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	hasClient := true

	sqlText, args := buildSaleQuery(domain.SaleQuery{
		From:          &from,
		To:            &to,
		Search:        " 50%_off ",
		HasClient:     &hasClient,
		SortColumn:    domain.SalePriceColumn,
		SortDirection: domain.SortAscending,
	})

	assert.Equal(t, []any{"2024-01-01", "2024-01-31", `%50\%\_off%`}, args)
	assert.Contains(t, sqlText, "s.sale_date >= $1")
	assert.Contains(t, sqlText, "s.sale_date <= $2")
	assert.Contains(t, sqlText, "s.client_id IS NOT NULL")
	assert.Contains(t, sqlText, "s.notes ILIKE $3")
	assert.Contains(t, sqlText, "i.maker ILIKE $3")
	assert.Contains(t, sqlText, "ORDER BY s.sale_price ASC")
}

func TestBuildSaleQuery_WalkInOnly(t *testing.T) {
	hasClient := false
	sqlText, args := buildSaleQuery(domain.SaleQuery{HasClient: &hasClient})

	assert.Empty(t, args)
	assert.Contains(t, sqlText, "s.client_id IS NULL")
}

func TestBuildSaleQuery_DerivedColumnFallsBackToSaleDate(t *testing.T) {
	sqlText, _ := buildSaleQuery(domain.SaleQuery{
		SortColumn:    domain.ClientNameColumn,
		SortDirection: domain.SortAscending,
	})
	assert.Contains(t, sqlText, "ORDER BY s.sale_date ASC")

	sqlText, _ = buildSaleQuery(domain.SaleQuery{SortColumn: "id; DROP TABLE sales_history"})
	assert.Contains(t, sqlText, "ORDER BY s.sale_date DESC")
	assert.NotContains(t, sqlText, "DROP")
}

func TestSaleRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSaleRepository(db)

	saleID := uuid.New()
	clientID := uuid.New()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(saleColumns).
		AddRow(saleID.String(), clientID.String(), nil, "-120.50", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sales_history s")).WillReturnRows(rows)

	sales, err := repo.List(context.Background(), domain.SaleQuery{})
	require.NoError(t, err)
	require.Len(t, sales, 1)

	sale := sales[0]
	assert.Equal(t, saleID, sale.ID)
	require.NotNil(t, sale.ClientID)
	assert.Equal(t, clientID, *sale.ClientID)
	assert.Nil(t, sale.InstrumentID)
	assert.True(t, sale.SalePrice.Equal(decimal.RequireFromString("-120.50")))
	assert.True(t, sale.IsRefund())
	assert.Empty(t, sale.Notes)
	assert.Equal(t, created, sale.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_List_PassesFilterArgs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSaleRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("s.sale_date >= $1")).
		WithArgs("2024-01-01", "%bow%").
		WillReturnRows(sqlmock.NewRows(saleColumns))

	sales, err := repo.List(context.Background(), domain.SaleQuery{From: &from, Search: "bow"})
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.NotNil(t, sales)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaleRepository_List_InvalidPrice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSaleRepository(db)

	rows := sqlmock.NewRows(saleColumns).
		AddRow(uuid.New().String(), nil, nil, "abc", time.Now(), nil, time.Now())
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, err := repo.List(context.Background(), domain.SaleQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse sale_price")
}

func TestSaleRepository_List_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSaleRepository(db)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), domain.SaleQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list sales")
}

func TestSaleRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSaleRepository(db)

	instrumentID := uuid.New()
	sale := &domain.Sale{
		ID:           uuid.New(),
		InstrumentID: &instrumentID,
		SalePrice:    decimal.NewFromInt(2500),
		SaleDate:     time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		Notes:        "",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sales_history")).
		WithArgs(sale.ID.String(), nil, instrumentID.String(), "2500", "2024-05-04", nil, sale.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), sale))
	assert.NoError(t, mock.ExpectationsWereMet())
}
