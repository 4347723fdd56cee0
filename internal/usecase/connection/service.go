package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/grouping"
	"go.uber.org/zap"
)

// ClientSummary is a client's connections together with their counts per
// relationship type in canonical order
type ClientSummary struct {
	ClientID    uuid.UUID
	Connections []domain.Connection
	Counts      []grouping.TypeCount[domain.RelationshipType]
}

// ConnectionService handles relationship persistence and summaries
type ConnectionService struct {
	Repo domain.ConnectionRepository

	// IncludeUnlisted appends relationship types outside the canonical order to
	// the summary counts instead of hiding them
	IncludeUnlisted bool

	logger *zap.Logger
	now    func() time.Time
}

// NewConnectionService creates a new ConnectionService instance
func NewConnectionService(repo domain.ConnectionRepository, logger *zap.Logger) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{
		Repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Summary groups a client's connections by relationship type
func (s *ConnectionService) Summary(ctx context.Context, clientID uuid.UUID) (*ClientSummary, error) {
	connections, err := s.Repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	grouped := grouping.GroupByType(connections, func(c domain.Connection) domain.RelationshipType {
		return c.RelationshipType
	})

	var opts []grouping.CountOption
	if s.IncludeUnlisted {
		opts = append(opts, grouping.IncludeUnlisted())
	}

	return &ClientSummary{
		ClientID:    clientID,
		Connections: connections,
		Counts:      grouping.CountsInFixedOrder(grouped, domain.CanonicalRelationshipOrder, opts...),
	}, nil
}

// Submit persists the open form and resets it.
// Logic:
//  1. Build the connection from the form fields
//  2. Creating: assign a new id and creation time, then Create
//  3. Editing: keep the original id and creation time, then Update
//
// On any error the form stays open with its values intact.
func (s *ConnectionService) Submit(ctx context.Context, form *Form) (*domain.Connection, error) {
	fields := form.Fields()
	conn := &domain.Connection{
		ClientID:         fields.ClientID,
		InstrumentID:     fields.InstrumentID,
		RelationshipType: fields.RelationshipType,
		Notes:            fields.Notes,
	}

	switch form.State() {
	case FormCreating:
		conn.ID = uuid.New()
		conn.CreatedAt = s.now()
	case FormEditing:
		original := form.Editing()
		conn.ID = original.ID
		conn.CreatedAt = original.CreatedAt
	default:
		return nil, ErrFormClosed
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	if form.State() == FormCreating {
		if err := s.Repo.Create(ctx, conn); err != nil {
			return nil, fmt.Errorf("failed to create connection: %w", err)
		}
	} else {
		if err := s.Repo.Update(ctx, conn); err != nil {
			return nil, fmt.Errorf("failed to update connection: %w", err)
		}
	}

	s.logger.Info("connection saved",
		zap.String("connection_id", conn.ID.String()),
		zap.String("relationship", string(conn.RelationshipType)),
		zap.Stringer("mode", form.State()),
	)

	form.ResetForm()
	return conn, nil
}
