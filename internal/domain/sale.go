package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortDirection is the ordering applied to a sorted column
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Valid reports whether d is one of the known directions
func (d SortDirection) Valid() bool {
	return d == SortAscending || d == SortDescending
}

// Sale columns the sales list can be ordered by.
// ClientNameColumn is derived from the attached client and cannot be sorted by the data source.
const (
	SaleDateColumn   = "sale_date"
	SalePriceColumn  = "sale_price"
	CreatedAtColumn  = "created_at"
	ClientNameColumn = "client_name"
)

// Sale represents a sale (or refund, when SalePrice is negative) in the domain layer
type Sale struct {
	ID           uuid.UUID
	ClientID     *uuid.UUID      // NULL for walk-in sales
	InstrumentID *uuid.UUID      // NULL for accessories and services
	SalePrice    decimal.Decimal // Negative amount = refund
	SaleDate     time.Time       // Calendar date, UTC midnight
	Notes        string
	CreatedAt    time.Time
}

// IsRefund reports whether the sale records money going back to the client
func (s *Sale) IsRefund() bool {
	return s.SalePrice.IsNegative()
}

// Validate ensures the sale adheres to domain rules
func (s *Sale) Validate() error {
	if s.SalePrice.IsZero() {
		return errors.New("sale price must not be zero")
	}
	if s.SaleDate.IsZero() {
		return errors.New("sale date is required")
	}
	return nil
}

// CalendarDate truncates t to midnight UTC of its own calendar day
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EnrichedSale is a Sale with its client and instrument resolved by foreign key.
// Client and Instrument are nil when the reference is NULL or has no match.
type EnrichedSale struct {
	Sale
	Client     *Client
	Instrument *Instrument
}

// SaleQuery narrows the sales a repository returns
type SaleQuery struct {
	From          *time.Time
	To            *time.Time
	Search        string
	HasClient     *bool
	SortColumn    string
	SortDirection SortDirection
}
