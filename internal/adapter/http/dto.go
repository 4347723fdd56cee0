package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/connection"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
)

// Error codes used in error responses
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
)

var statusByCode = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusUnprocessableEntity,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// HTTPStatus returns the status code for an error code
func HTTPStatus(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta carries the list size and the canonical filter query string
type Meta struct {
	Total int    `json:"total"`
	Query string `json:"query"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message, RequestID: requestID},
	}
}

// ClientRef is the client attached to a sale
type ClientRef struct {
	ID           uuid.UUID `json:"id"`
	ClientNumber string    `json:"client_number,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
}

// InstrumentRef is the instrument attached to a sale
type InstrumentRef struct {
	ID           uuid.UUID `json:"id"`
	SerialNumber string    `json:"serial_number,omitempty"`
	Maker        string    `json:"maker,omitempty"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
}

// SaleResponse is one enriched sale
type SaleResponse struct {
	ID           uuid.UUID       `json:"id"`
	ClientID     *uuid.UUID      `json:"client_id"`
	InstrumentID *uuid.UUID      `json:"instrument_id"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	SaleDate     string          `json:"sale_date"`
	Notes        string          `json:"notes,omitempty"`
	IsRefund     bool            `json:"is_refund"`
	CreatedAt    time.Time       `json:"created_at"`
	Client       *ClientRef      `json:"client"`
	Instrument   *InstrumentRef  `json:"instrument"`
}

func toSaleResponse(s domain.EnrichedSale) SaleResponse {
	resp := SaleResponse{
		ID:           s.ID,
		ClientID:     s.ClientID,
		InstrumentID: s.InstrumentID,
		SalePrice:    s.SalePrice,
		SaleDate:     s.SaleDate.Format(filter.DateLayout),
		Notes:        s.Notes,
		IsRefund:     s.IsRefund(),
		CreatedAt:    s.CreatedAt,
	}
	if s.Client != nil {
		resp.Client = &ClientRef{
			ID:           s.Client.ID,
			ClientNumber: s.Client.ClientNumber,
			Name:         s.Client.DisplayName(),
			Email:        s.Client.Email,
		}
	}
	if s.Instrument != nil {
		resp.Instrument = &InstrumentRef{
			ID:           s.Instrument.ID,
			SerialNumber: s.Instrument.SerialNumber,
			Maker:        s.Instrument.Maker,
			Type:         s.Instrument.Type,
			Status:       string(s.Instrument.Status),
		}
	}
	return resp
}

func toSaleResponses(sales []domain.EnrichedSale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(s))
	}
	return out
}

// RecordSaleRequest is the body of POST /sales
type RecordSaleRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	ClientID     *uuid.UUID      `json:"client_id"`
	InstrumentID *uuid.UUID      `json:"instrument_id"`
	SaleDate     string          `json:"sale_date"`
	Notes        string          `json:"notes" binding:"max=1000"`
	Refund       bool            `json:"refund"`
}

// ValidateIdentifierRequest is the body of POST /identifiers/validate
type ValidateIdentifierRequest struct {
	Kind      string `json:"kind" binding:"required"`
	Candidate string `json:"candidate"`
	Current   string `json:"current"`
}

// RegisterInstrumentRequest is the body of POST /instruments
type RegisterInstrumentRequest struct {
	SerialNumber string          `json:"serial_number"`
	Maker        string          `json:"maker"`
	Type         string          `json:"type" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status" binding:"omitempty,instrument_status"`
}

// RegisterClientRequest is the body of POST /clients
type RegisterClientRequest struct {
	ClientNumber string   `json:"client_number"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email" binding:"omitempty,email"`
	Phone        string   `json:"phone"`
	Tags         []string `json:"tags"`
}

// ConnectionRequest is the body of connection create and update
type ConnectionRequest struct {
	InstrumentID     uuid.UUID `json:"instrument_id" binding:"required"`
	RelationshipType string    `json:"relationship_type" binding:"omitempty,relationship"`
	Notes            string    `json:"notes"`
}

// ConnectionResponse is one client/instrument relationship
type ConnectionResponse struct {
	ID               uuid.UUID `json:"id"`
	ClientID         uuid.UUID `json:"client_id"`
	InstrumentID     uuid.UUID `json:"instrument_id"`
	RelationshipType string    `json:"relationship_type"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// RelationshipCount is the number of connections of one type
type RelationshipCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ClientConnectionsResponse is a client's connections with per-type counts
type ClientConnectionsResponse struct {
	ClientID    uuid.UUID            `json:"client_id"`
	Connections []ConnectionResponse `json:"connections"`
	Counts      []RelationshipCount  `json:"counts"`
}

func toConnectionResponse(c domain.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:               c.ID,
		ClientID:         c.ClientID,
		InstrumentID:     c.InstrumentID,
		RelationshipType: string(c.RelationshipType),
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
	}
}

func toClientConnectionsResponse(s *connection.ClientSummary) ClientConnectionsResponse {
	resp := ClientConnectionsResponse{
		ClientID:    s.ClientID,
		Connections: make([]ConnectionResponse, 0, len(s.Connections)),
		Counts:      make([]RelationshipCount, 0, len(s.Counts)),
	}
	for _, c := range s.Connections {
		resp.Connections = append(resp.Connections, toConnectionResponse(c))
	}
	for _, tc := range s.Counts {
		resp.Counts = append(resp.Counts, RelationshipCount{Type: string(tc.Type), Count: tc.Count})
	}
	return resp
}
