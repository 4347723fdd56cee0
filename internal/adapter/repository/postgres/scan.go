package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// parseNullableUUID converts a nullable uuid column
func parseNullableUUID(ns sql.NullString, column string) (*uuid.UUID, error) {
	if !ns.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return &id, nil
}

// parseDecimal converts a DECIMAL column read as text
func parseDecimal(s, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}

// nullableUUID maps a nil id to SQL NULL
func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

// nullableString maps "" to SQL NULL
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure
const uniqueViolation = pq.ErrorCode("23505")

func asPQError(err error, target **pq.Error) bool {
	return errors.As(err, target)
}

// listStrings runs a single text column query
func listStrings(ctx context.Context, db *DB, query, what string) ([]string, error) {
	rows, err := db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return values, nil
}
