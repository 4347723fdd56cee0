package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/simaogato/luthier-backend/internal/domain"
)

// orderColumns maps sortable columns to SQL. Derived columns are absent and
// fall back to sale_date; their order is applied after enrichment.
var orderColumns = map[string]string{
	domain.SaleDateColumn:  "s.sale_date",
	domain.SalePriceColumn: "s.sale_price",
	domain.CreatedAtColumn: "s.created_at",
}

// saleRepository implements domain.SaleRepository
type saleRepository struct {
	db *DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *DB) domain.SaleRepository {
	return &saleRepository{db: db}
}

// List retrieves the sales matching query
func (r *saleRepository) List(ctx context.Context, query domain.SaleQuery) ([]domain.Sale, error) {
	sqlText, args := buildSaleQuery(query)

	rows, err := r.db.conn(ctx).QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var (
			sale         domain.Sale
			clientID     sql.NullString
			instrumentID sql.NullString
			priceStr     string
			notes        sql.NullString
		)
		if err := rows.Scan(&sale.ID, &clientID, &instrumentID, &priceStr, &sale.SaleDate, &notes, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}

		if sale.ClientID, err = parseNullableUUID(clientID, "client_id"); err != nil {
			return nil, err
		}
		if sale.InstrumentID, err = parseNullableUUID(instrumentID, "instrument_id"); err != nil {
			return nil, err
		}
		if sale.SalePrice, err = parseDecimal(priceStr, "sale_price"); err != nil {
			return nil, err
		}
		sale.SaleDate = domain.CalendarDate(sale.SaleDate)
		sale.Notes = notes.String

		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}

	return sales, nil
}

// Create stores a new sale
func (r *saleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	query := `
		INSERT INTO sales_history (id, client_id, instrument_id, sale_price, sale_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		sale.ID,
		nullableUUID(sale.ClientID),
		nullableUUID(sale.InstrumentID),
		sale.SalePrice.String(),
		sale.SaleDate.Format("2006-01-02"),
		nullableString(sale.Notes),
		sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	return nil
}

// buildSaleQuery renders the filtered SELECT and its positional arguments
func buildSaleQuery(q domain.SaleQuery) (string, []any) {
	var (
		sb    strings.Builder
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT s.id, s.client_id, s.instrument_id, s.sale_price, s.sale_date, s.notes, s.created_at
		FROM sales_history s
		LEFT JOIN clients c ON c.id = s.client_id
		LEFT JOIN instruments i ON i.id = s.instrument_id`)

	if q.From != nil {
		where = append(where, "s.sale_date >= "+arg(q.From.Format("2006-01-02")))
	}
	if q.To != nil {
		where = append(where, "s.sale_date <= "+arg(q.To.Format("2006-01-02")))
	}
	if q.HasClient != nil {
		if *q.HasClient {
			where = append(where, "s.client_id IS NOT NULL")
		} else {
			where = append(where, "s.client_id IS NULL")
		}
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		p := arg("%" + escapeLike(search) + "%")
		where = append(where, fmt.Sprintf(
			"(s.notes ILIKE %[1]s OR c.first_name ILIKE %[1]s OR c.last_name ILIKE %[1]s OR c.email ILIKE %[1]s OR i.maker ILIKE %[1]s OR i.type ILIKE %[1]s OR i.serial_number ILIKE %[1]s)",
			p,
		))
	}

	if len(where) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	column, ok := orderColumns[q.SortColumn]
	if !ok {
		column = orderColumns[domain.SaleDateColumn]
	}
	direction := "DESC"
	if q.SortDirection == domain.SortAscending {
		direction = "ASC"
	}
	fmt.Fprintf(&sb, "\n\t\tORDER BY %s %s, s.created_at %s, s.id", column, direction, direction)

	return sb.String(), args
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
