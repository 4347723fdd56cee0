package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/luthier-backend/internal/domain"
	"go.uber.org/zap"
)

// RecordSaleInput represents the input for recording a sale or a refund.
// Amount is always a positive magnitude; refunds are stored negated.
type RecordSaleInput struct {
	ClientID     *uuid.UUID
	InstrumentID *uuid.UUID
	Amount       decimal.Decimal
	SaleDate     time.Time // zero means today
	Notes        string
}

// Invalidator drops derived data after a write
type Invalidator interface {
	Invalidate()
}

// SaleService handles sale and refund recording
type SaleService struct {
	SaleRepo       domain.SaleRepository
	InstrumentRepo domain.InstrumentRepository
	Tx             domain.Transactor
	Cache          Invalidator

	logger *zap.Logger
	now    func() time.Time
}

// NewSaleService creates a new SaleService instance. tx and cache may be nil;
// without tx the two writes of a sale are not atomic.
func NewSaleService(
	saleRepo domain.SaleRepository,
	instrumentRepo domain.InstrumentRepository,
	tx domain.Transactor,
	cache Invalidator,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		SaleRepo:       saleRepo,
		InstrumentRepo: instrumentRepo,
		Tx:             tx,
		Cache:          cache,
		logger:         logger,
		now:            time.Now,
	}
}

// RecordSale stores a sale and marks its instrument as sold
// Logic:
//  1. Validate the amount is positive
//  2. In one transaction, create the sale row dated on the calendar day and,
//     if an instrument is attached, set its status to Sold
//  3. Invalidate cached dashboards once the sale row was written, even if
//     the transaction then failed
func (s *SaleService) RecordSale(ctx context.Context, input RecordSaleInput) (*domain.Sale, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.New("sale amount must be positive")
	}
	return s.record(ctx, input, input.Amount, domain.InstrumentStatusSold)
}

// RecordRefund stores a refund as a negative sale and puts its instrument back
// on the floor
func (s *SaleService) RecordRefund(ctx context.Context, input RecordSaleInput) (*domain.Sale, error) {
	if !input.Amount.IsPositive() {
		return nil, errors.New("refund amount must be positive")
	}
	return s.record(ctx, input, input.Amount.Neg(), domain.InstrumentStatusAvailable)
}

func (s *SaleService) record(
	ctx context.Context,
	input RecordSaleInput,
	price decimal.Decimal,
	status domain.InstrumentStatus,
) (*domain.Sale, error) {
	now := s.now()
	date := input.SaleDate
	if date.IsZero() {
		date = now
	}

	sale := &domain.Sale{
		ID:           uuid.New(),
		ClientID:     input.ClientID,
		InstrumentID: input.InstrumentID,
		SalePrice:    price,
		SaleDate:     domain.CalendarDate(date),
		Notes:        input.Notes,
		CreatedAt:    now,
	}
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	written := false
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.SaleRepo.Create(ctx, sale); err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}
		written = true

		if sale.InstrumentID != nil {
			if err := s.InstrumentRepo.UpdateStatus(ctx, *sale.InstrumentID, status); err != nil {
				return fmt.Errorf("failed to update instrument status: %w", err)
			}
		}
		return nil
	})

	if written && s.Cache != nil {
		s.Cache.Invalidate()
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("amount", sale.SalePrice.String()),
		zap.Bool("refund", sale.IsRefund()),
	)
	return sale, nil
}

func (s *SaleService) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}
	return s.Tx.WithTx(ctx, fn)
}
