package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/simaogato/luthier-backend/internal/domain"
)

// clientRepository implements domain.ClientRepository
type clientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB) domain.ClientRepository {
	return &clientRepository{db: db}
}

// List retrieves all clients in creation order
func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	query := `
		SELECT id, client_number, first_name, last_name, email, phone, tags, created_at
		FROM clients
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		var (
			client                     domain.Client
			number, first, last, email sql.NullString
			phone                      sql.NullString
			tags                       pq.StringArray
		)
		if err := rows.Scan(&client.ID, &number, &first, &last, &email, &phone, &tags, &client.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}

		client.ClientNumber = number.String
		client.FirstName = first.String
		client.LastName = last.String
		client.Email = email.String
		client.Phone = phone.String
		client.Tags = []string(tags)

		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return clients, nil
}

// Create stores a new client
func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, client_number, first_name, last_name, email, phone, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	tags := client.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		client.ID,
		nullableString(client.ClientNumber),
		client.FirstName,
		client.LastName,
		nullableString(client.Email),
		nullableString(client.Phone),
		pq.Array(tags),
		client.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if asPQError(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("client number %q already exists: %w", client.ClientNumber, err)
		}
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// ListClientNumbers returns every assigned client number
func (r *clientRepository) ListClientNumbers(ctx context.Context) ([]string, error) {
	return listStrings(ctx, r.db, `
		SELECT client_number
		FROM clients
		WHERE client_number IS NOT NULL AND client_number <> ''
	`, "client numbers")
}
