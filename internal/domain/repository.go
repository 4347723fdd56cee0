package domain

import (
	"context"

	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale persistence operations
type SaleRepository interface {
	// List retrieves sales matching the query.
	// Ordering follows query.SortColumn unless it is a derived column, in which case sale_date is used.
	List(ctx context.Context, query SaleQuery) ([]Sale, error)

	// Create stores a new sale
	Create(ctx context.Context, sale *Sale) error
}

// ClientRepository defines the interface for client persistence operations
type ClientRepository interface {
	// List retrieves all clients
	List(ctx context.Context) ([]Client, error)

	// Create stores a new client
	Create(ctx context.Context, client *Client) error

	// ListClientNumbers returns every assigned client number
	ListClientNumbers(ctx context.Context) ([]string, error)
}

// InstrumentRepository defines the interface for instrument persistence operations
type InstrumentRepository interface {
	// List retrieves all instruments
	List(ctx context.Context) ([]Instrument, error)

	// Create stores a new instrument
	Create(ctx context.Context, instrument *Instrument) error

	// ListSerialNumbers returns every assigned serial number
	ListSerialNumbers(ctx context.Context) ([]string, error)

	// UpdateStatus changes the availability status of an instrument
	UpdateStatus(ctx context.Context, id uuid.UUID, status InstrumentStatus) error
}

// ConnectionRepository defines the interface for client/instrument relationship persistence
type ConnectionRepository interface {
	// ListByClient retrieves a client's connections, oldest first
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Connection, error)

	// Create stores a new connection
	Create(ctx context.Context, connection *Connection) error

	// Update overwrites an existing connection
	Update(ctx context.Context, connection *Connection) error
}

// Transactor runs fn so that every repository write made with the ctx it
// receives commits or rolls back together
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
