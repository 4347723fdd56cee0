package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/luthier-backend/internal/domain"
)

// connectionRepository implements domain.ConnectionRepository
type connectionRepository struct {
	db *DB
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *DB) domain.ConnectionRepository {
	return &connectionRepository{db: db}
}

// ListByClient retrieves the connections of one client, oldest first
func (r *connectionRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Connection, error) {
	query := `
		SELECT id, client_id, instrument_id, relationship_type, notes, created_at
		FROM client_instruments
		WHERE client_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	connections := make([]domain.Connection, 0)
	for rows.Next() {
		var (
			c       domain.Connection
			relType string
			notes   sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.ClientID, &c.InstrumentID, &relType, &notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		c.RelationshipType = domain.RelationshipType(relType)
		c.Notes = notes.String
		connections = append(connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}

	return connections, nil
}

// Create stores a new connection
func (r *connectionRepository) Create(ctx context.Context, c *domain.Connection) error {
	query := `
		INSERT INTO client_instruments (id, client_id, instrument_id, relationship_type, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.ID,
		c.ClientID,
		c.InstrumentID,
		string(c.RelationshipType),
		nullableString(c.Notes),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}

	return nil
}

// Update rewrites the editable fields of a connection
func (r *connectionRepository) Update(ctx context.Context, c *domain.Connection) error {
	query := `
		UPDATE client_instruments
		SET client_id = $2, instrument_id = $3, relationship_type = $4, notes = $5
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.ID,
		c.ClientID,
		c.InstrumentID,
		string(c.RelationshipType),
		nullableString(c.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("connection not found: %w", sql.ErrNoRows)
	}

	return nil
}
