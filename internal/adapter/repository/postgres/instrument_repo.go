package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/simaogato/luthier-backend/internal/domain"
)

// instrumentRepository implements domain.InstrumentRepository
type instrumentRepository struct {
	db *DB
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *DB) domain.InstrumentRepository {
	return &instrumentRepository{db: db}
}

// List retrieves all instruments in creation order
func (r *instrumentRepository) List(ctx context.Context) ([]domain.Instrument, error) {
	query := `
		SELECT id, serial_number, maker, type, price, status, created_at
		FROM instruments
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]domain.Instrument, 0)
	for rows.Next() {
		var (
			instrument domain.Instrument
			serial     sql.NullString
			maker      sql.NullString
			priceStr   sql.NullString
			status     string
		)
		if err := rows.Scan(&instrument.ID, &serial, &maker, &instrument.Type, &priceStr, &status, &instrument.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}

		instrument.SerialNumber = serial.String
		instrument.Maker = maker.String
		instrument.Status = domain.InstrumentStatus(status)
		if priceStr.Valid {
			if instrument.Price, err = parseDecimal(priceStr.String, "price"); err != nil {
				return nil, err
			}
		}

		instruments = append(instruments, instrument)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instruments: %w", err)
	}

	return instruments, nil
}

// Create stores a new instrument
func (r *instrumentRepository) Create(ctx context.Context, instrument *domain.Instrument) error {
	query := `
		INSERT INTO instruments (id, serial_number, maker, type, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		instrument.ID,
		nullableString(instrument.SerialNumber),
		nullableString(instrument.Maker),
		instrument.Type,
		instrument.Price.String(),
		string(instrument.Status),
		instrument.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if asPQError(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("serial number %q already exists: %w", instrument.SerialNumber, err)
		}
		return fmt.Errorf("failed to create instrument: %w", err)
	}

	return nil
}

// ListSerialNumbers returns every assigned serial number
func (r *instrumentRepository) ListSerialNumbers(ctx context.Context) ([]string, error) {
	return listStrings(ctx, r.db, `
		SELECT serial_number
		FROM instruments
		WHERE serial_number IS NOT NULL AND serial_number <> ''
	`, "serial numbers")
}

// UpdateStatus changes the status of an instrument
func (r *instrumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InstrumentStatus) error {
	query := `UPDATE instruments SET status = $2 WHERE id = $1`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update instrument status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("instrument not found: %w", sql.ErrNoRows)
	}

	return nil
}
