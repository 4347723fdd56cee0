package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/identifier"
	"go.uber.org/zap"
)

// Kind selects which identifier space an operation works on
type Kind string

const (
	KindInstrument Kind = "instrument"
	KindClient     Kind = "client"
)

var ErrUnknownKind = errors.New("unknown identifier kind")

// ParseKind validates a kind coming from a transport
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindInstrument, KindClient:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// InvalidIdentifierError reports a rejected manual identifier
type InvalidIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
}

// RegisterInstrumentInput represents the input for registering an instrument.
// A blank SerialNumber is generated from the instrument type.
type RegisterInstrumentInput struct {
	SerialNumber string
	Maker        string
	Type         string
	Price        decimal.Decimal
	Status       domain.InstrumentStatus
}

// RegisterClientInput represents the input for registering a client.
// A blank ClientNumber is generated.
type RegisterClientInput struct {
	ClientNumber string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Tags         []string
}

// Invalidator drops derived data after a write
type Invalidator interface {
	Invalidate()
}

// CatalogService handles client and instrument registration and their identifiers
type CatalogService struct {
	ClientRepo     domain.ClientRepository
	InstrumentRepo domain.InstrumentRepository
	Cache          Invalidator

	logger *zap.Logger
	now    func() time.Time
}

// NewCatalogService creates a new CatalogService instance. cache may be nil.
func NewCatalogService(
	clientRepo domain.ClientRepository,
	instrumentRepo domain.InstrumentRepository,
	cache Invalidator,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		ClientRepo:     clientRepo,
		InstrumentRepo: instrumentRepo,
		Cache:          cache,
		logger:         logger,
		now:            time.Now,
	}
}

// NextIdentifier suggests the next free identifier.
// For instruments the prefix comes from classification; clients always use CL.
func (s *CatalogService) NextIdentifier(ctx context.Context, kind Kind, classification string) (string, error) {
	existing, err := s.existing(ctx, kind)
	if err != nil {
		return "", err
	}
	if kind == KindClient {
		return identifier.NextWithPrefix(identifier.ClientPrefix, existing), nil
	}
	return identifier.Next(classification, existing), nil
}

// ValidateIdentifier checks a manually entered identifier against the ones in use.
// current is the identifier of the record being edited, if any.
func (s *CatalogService) ValidateIdentifier(ctx context.Context, kind Kind, candidate, current string) (identifier.Validation, error) {
	existing, err := s.existing(ctx, kind)
	if err != nil {
		return identifier.Validation{}, err
	}
	return identifier.Validate(candidate, existing, current), nil
}

// RegisterInstrument stores a new instrument
// Logic:
//  1. Generate a serial number from the type when none was entered
//  2. Otherwise validate the entered one against existing serials
//  3. Default the status to Available and validate the instrument
//  4. Create it and invalidate cached dashboards
func (s *CatalogService) RegisterInstrument(ctx context.Context, input RegisterInstrumentInput) (*domain.Instrument, error) {
	serial, err := s.assign(ctx, KindInstrument, input.SerialNumber, input.Type)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.InstrumentStatusAvailable
	}

	instrument := &domain.Instrument{
		ID:           uuid.New(),
		SerialNumber: serial,
		Maker:        strings.TrimSpace(input.Maker),
		Type:         strings.TrimSpace(input.Type),
		Price:        input.Price,
		Status:       status,
		CreatedAt:    s.now(),
	}
	if err := instrument.Validate(); err != nil {
		return nil, err
	}

	if err := s.InstrumentRepo.Create(ctx, instrument); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	s.invalidate()

	s.logger.Info("instrument registered",
		zap.String("instrument_id", instrument.ID.String()),
		zap.String("serial_number", instrument.SerialNumber),
	)
	return instrument, nil
}

// RegisterClient stores a new client, generating a client number when none was entered
func (s *CatalogService) RegisterClient(ctx context.Context, input RegisterClientInput) (*domain.Client, error) {
	number, err := s.assign(ctx, KindClient, input.ClientNumber, "")
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		ID:           uuid.New(),
		ClientNumber: number,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.TrimSpace(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		Tags:         input.Tags,
		CreatedAt:    s.now(),
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}

	if err := s.ClientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.invalidate()

	s.logger.Info("client registered",
		zap.String("client_id", client.ID.String()),
		zap.String("client_number", client.ClientNumber),
	)
	return client, nil
}

// assign returns the normalized manual identifier, or a generated one when blank
func (s *CatalogService) assign(ctx context.Context, kind Kind, manual, classification string) (string, error) {
	existing, err := s.existing(ctx, kind)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(manual) == "" {
		if kind == KindClient {
			return identifier.NextWithPrefix(identifier.ClientPrefix, existing), nil
		}
		return identifier.Next(classification, existing), nil
	}

	if v := identifier.Validate(manual, existing, ""); !v.Valid {
		return "", &InvalidIdentifierError{Identifier: manual, Reason: v.Error}
	}
	return identifier.Normalize(manual), nil
}

func (s *CatalogService) existing(ctx context.Context, kind Kind) ([]string, error) {
	switch kind {
	case KindInstrument:
		serials, err := s.InstrumentRepo.ListSerialNumbers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list serial numbers: %w", err)
		}
		return serials, nil
	case KindClient:
		numbers, err := s.ClientRepo.ListClientNumbers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list client numbers: %w", err)
		}
		return numbers, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *CatalogService) invalidate() {
	if s.Cache != nil {
		s.Cache.Invalidate()
	}
}
