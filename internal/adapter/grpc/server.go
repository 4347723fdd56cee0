package grpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/dashboard"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
	"github.com/simaogato/luthier-backend/internal/usecase/identifier"
	"github.com/simaogato/luthier-backend/internal/usecase/sale"
)

// DashboardReader computes dashboards for a filter snapshot
type DashboardReader interface {
	GetDashboard(ctx context.Context, f filter.Filters) (*dashboard.Dashboard, error)
}

// IdentifierService suggests and validates human-readable identifiers
type IdentifierService interface {
	NextIdentifier(ctx context.Context, kind catalog.Kind, classification string) (string, error)
	ValidateIdentifier(ctx context.Context, kind catalog.Kind, candidate, current string) (identifier.Validation, error)
}

// SaleRecorder stores sales and refunds
type SaleRecorder interface {
	RecordSale(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error)
	RecordRefund(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error)
}

var _ LuthierServiceServer = (*Server)(nil)

// Server implements the LuthierService gRPC server
type Server struct {
	DashboardService  DashboardReader
	IdentifierService IdentifierService
	SaleService       SaleRecorder

	// Defaults are the filter defaults applied to GetDashboard requests
	Defaults filter.Filters
}

// NewServer creates a new gRPC server instance
func NewServer(
	dashboardService DashboardReader,
	identifierService IdentifierService,
	saleService SaleRecorder,
	defaults filter.Filters,
) *Server {
	return &Server{
		DashboardService:  dashboardService,
		IdentifierService: identifierService,
		SaleService:       saleService,
		Defaults:          defaults,
	}
}

// GetDashboard handles the GetDashboard RPC.
// Request fields use the sales list query names (from, to, search, hasClient,
// sortColumn, sortDirection).
func (s *Server) GetDashboard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	values := url.Values{}
	for key, v := range req.GetFields() {
		switch kind := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			values.Set(key, kind.StringValue)
		case *structpb.Value_BoolValue:
			values.Set(key, strconv.FormatBool(kind.BoolValue))
		case *structpb.Value_NullValue:
			values.Set(key, "")
		}
	}

	for _, key := range []string{filter.ParamFrom, filter.ParamTo} {
		if _, err := filter.ParseDate(values.Get(key)); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
		}
	}
	if err := filter.CheckRange(values.Get(filter.ParamFrom), values.Get(filter.ParamTo)); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	f := filter.Resolve(values, s.Defaults)
	d, err := s.DashboardService.GetDashboard(ctx, f)
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(struct {
		*dashboard.Dashboard
		Query string `json:"query"`
	}{d, filter.Encode(f, s.Defaults).Encode()})
}

// NextIdentifier handles the NextIdentifier RPC
func (s *Server) NextIdentifier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kind, err := catalog.ParseKind(stringField(req, "kind"))
	if err != nil {
		return nil, mapError(err)
	}

	id, err := s.IdentifierService.NextIdentifier(ctx, kind, stringField(req, "classification"))
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{"identifier": id})
}

// ValidateIdentifier handles the ValidateIdentifier RPC
func (s *Server) ValidateIdentifier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kind, err := catalog.ParseKind(stringField(req, "kind"))
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.IdentifierService.ValidateIdentifier(ctx, kind, stringField(req, "candidate"), stringField(req, "current"))
	if err != nil {
		return nil, mapError(err)
	}

	return toStruct(result)
}

// RecordSale handles the RecordSale RPC. A true "refund" field records a refund
// of the given amount.
func (s *Server) RecordSale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := parseRecordSale(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	record := s.SaleService.RecordSale
	if req.GetFields()["refund"].GetBoolValue() {
		record = s.SaleService.RecordRefund
	}

	recorded, err := record(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"sale_id":    recorded.ID.String(),
		"sale_price": recorded.SalePrice.String(),
		"sale_date":  recorded.SaleDate.Format(filter.DateLayout),
		"refund":     recorded.IsRefund(),
		"created_at": recorded.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func parseRecordSale(req *structpb.Struct) (sale.RecordSaleInput, error) {
	var input sale.RecordSaleInput

	amount, err := decimalField(req, "amount")
	if err != nil {
		return input, err
	}
	input.Amount = amount

	if input.ClientID, err = optionalUUID(req, "client_id"); err != nil {
		return input, err
	}
	if input.InstrumentID, err = optionalUUID(req, "instrument_id"); err != nil {
		return input, err
	}

	if raw := stringField(req, "sale_date"); raw != "" {
		date, err := filter.ParseDate(raw)
		if err != nil {
			return input, fmt.Errorf("invalid sale_date: %w", err)
		}
		input.SaleDate = *date
	}

	input.Notes = strings.TrimSpace(stringField(req, "notes"))
	return input, nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// decimalField accepts the amount as a string or a number
func decimalField(req *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s format: %w", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, fmt.Errorf("invalid %s format", key)
	}
}

func optionalUUID(req *structpb.Struct, key string) (*uuid.UUID, error) {
	raw := stringField(req, key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return &id, nil
}

// toStruct converts a JSON-tagged value into a protobuf Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var invalidID *catalog.InvalidIdentifierError
	switch {
	case errors.Is(err, catalog.ErrUnknownKind),
		errors.Is(err, filter.ErrInvalidDate),
		errors.Is(err, filter.ErrInvertedRange),
		errors.As(err, &invalidID):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, sql.ErrNoRows):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err.Error())
	}

	errorMsg := err.Error()

	// Map common validation errors to InvalidArgument
	if strings.Contains(errorMsg, "must be positive") ||
		strings.Contains(errorMsg, "invalid") ||
		strings.Contains(errorMsg, "must not") ||
		strings.Contains(errorMsg, "cannot be") ||
		strings.Contains(errorMsg, "must reference") ||
		strings.Contains(errorMsg, "must have") {
		return status.Errorf(codes.InvalidArgument, "%s", errorMsg)
	}

	if strings.Contains(errorMsg, "already exists") {
		return status.Errorf(codes.AlreadyExists, "%s", errorMsg)
	}

	// Map "not found" errors to NotFound
	if strings.Contains(errorMsg, "not found") {
		return status.Errorf(codes.NotFound, "%s", errorMsg)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", errorMsg)
}

// Register attaches the server to a gRPC registrar
func Register(registrar grpc.ServiceRegistrar, srv LuthierServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}
