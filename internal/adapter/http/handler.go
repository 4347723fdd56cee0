package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/connection"
	"github.com/simaogato/luthier-backend/internal/usecase/dashboard"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
	"github.com/simaogato/luthier-backend/internal/usecase/identifier"
	"github.com/simaogato/luthier-backend/internal/usecase/sale"
)

// SalesReader lists enriched sales and computes dashboards
type SalesReader interface {
	ListSales(ctx context.Context, f filter.Filters) ([]domain.EnrichedSale, error)
	GetDashboard(ctx context.Context, f filter.Filters) (*dashboard.Dashboard, error)
}

// SaleRecorder stores sales and refunds
type SaleRecorder interface {
	RecordSale(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error)
	RecordRefund(ctx context.Context, input sale.RecordSaleInput) (*domain.Sale, error)
}

// CatalogManager issues identifiers and registers clients and instruments
type CatalogManager interface {
	NextIdentifier(ctx context.Context, kind catalog.Kind, classification string) (string, error)
	ValidateIdentifier(ctx context.Context, kind catalog.Kind, candidate, current string) (identifier.Validation, error)
	RegisterInstrument(ctx context.Context, input catalog.RegisterInstrumentInput) (*domain.Instrument, error)
	RegisterClient(ctx context.Context, input catalog.RegisterClientInput) (*domain.Client, error)
}

// ConnectionManager summarizes and saves client/instrument relationships
type ConnectionManager interface {
	Summary(ctx context.Context, clientID uuid.UUID) (*connection.ClientSummary, error)
	Submit(ctx context.Context, form *connection.Form) (*domain.Connection, error)
}

// Handler serves the REST API
type Handler struct {
	BaseHandler

	Sales       SalesReader
	Recorder    SaleRecorder
	Catalog     CatalogManager
	Connections ConnectionManager

	// Defaults are the filter defaults of the sales list
	Defaults filter.Filters
}

// NewHandler creates a new Handler
func NewHandler(
	sales SalesReader,
	recorder SaleRecorder,
	catalogManager CatalogManager,
	connections ConnectionManager,
	defaults filter.Filters,
) *Handler {
	return &Handler{
		Sales:       sales,
		Recorder:    recorder,
		Catalog:     catalogManager,
		Connections: connections,
		Defaults:    defaults,
	}
}

// RegisterRoutes mounts the API under rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	sales.GET("", h.ListSales)
	sales.GET("/dashboard", h.GetDashboard)
	sales.POST("", h.RecordSale)

	ids := rg.Group("/identifiers")
	ids.GET("/next", h.NextIdentifier)
	ids.POST("/validate", h.ValidateIdentifier)

	rg.POST("/instruments", h.RegisterInstrument)
	rg.POST("/clients", h.RegisterClient)

	clients := rg.Group("/clients/:id/connections")
	clients.GET("", h.ListConnections)
	clients.POST("", h.CreateConnection)
	clients.PUT("/:connectionId", h.UpdateConnection)
}

// filters resolves the query string into a snapshot. Malformed dates are
// rejected instead of silently dropped.
func (h *Handler) filters(c *gin.Context) (filter.Filters, bool) {
	query := c.Request.URL.Query()
	for _, key := range []string{filter.ParamFrom, filter.ParamTo} {
		if _, err := filter.ParseDate(query.Get(key)); err != nil {
			h.BadRequest(c, key+": "+err.Error())
			return filter.Filters{}, false
		}
	}
	if err := filter.CheckRange(query.Get(filter.ParamFrom), query.Get(filter.ParamTo)); err != nil {
		h.BadRequest(c, err.Error())
		return filter.Filters{}, false
	}
	return filter.Resolve(query, h.Defaults), true
}

// ListSales godoc
// GET /api/v1/sales
func (h *Handler) ListSales(c *gin.Context) {
	f, ok := h.filters(c)
	if !ok {
		return
	}

	sales, err := h.Sales.ListSales(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toSaleResponses(sales), Meta{
		Total: len(sales),
		Query: filter.Encode(f, h.Defaults).Encode(),
	})
}

// GetDashboard godoc
// GET /api/v1/sales/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	f, ok := h.filters(c)
	if !ok {
		return
	}

	d, err := h.Sales.GetDashboard(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, d, Meta{
		Total: d.Report.Summary.SaleCount + d.Report.Summary.RefundCount,
		Query: filter.Encode(f, h.Defaults).Encode(),
	})
}

// RecordSale godoc
// POST /api/v1/sales
func (h *Handler) RecordSale(c *gin.Context) {
	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input := sale.RecordSaleInput{
		ClientID:     req.ClientID,
		InstrumentID: req.InstrumentID,
		Amount:       req.Amount,
		Notes:        strings.TrimSpace(req.Notes),
	}
	if req.SaleDate != "" {
		date, err := filter.ParseDate(req.SaleDate)
		if err != nil {
			h.BadRequest(c, "sale_date: "+err.Error())
			return
		}
		input.SaleDate = *date
	}

	record := h.Recorder.RecordSale
	if req.Refund {
		record = h.Recorder.RecordRefund
	}

	recorded, err := record(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toSaleResponse(domain.EnrichedSale{Sale: *recorded}))
}

// NextIdentifier godoc
// GET /api/v1/identifiers/next?kind=instrument|client&classification=
func (h *Handler) NextIdentifier(c *gin.Context) {
	kind, err := catalog.ParseKind(c.Query("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	id, err := h.Catalog.NextIdentifier(c.Request.Context(), kind, c.Query("classification"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"identifier": id})
}

// ValidateIdentifier godoc
// POST /api/v1/identifiers/validate
func (h *Handler) ValidateIdentifier(c *gin.Context) {
	var req ValidateIdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	kind, err := catalog.ParseKind(req.Kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.Catalog.ValidateIdentifier(c.Request.Context(), kind, req.Candidate, req.Current)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterInstrument godoc
// POST /api/v1/instruments
func (h *Handler) RegisterInstrument(c *gin.Context) {
	var req RegisterInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	instrument, err := h.Catalog.RegisterInstrument(c.Request.Context(), catalog.RegisterInstrumentInput{
		SerialNumber: req.SerialNumber,
		Maker:        req.Maker,
		Type:         req.Type,
		Price:        req.Price,
		Status:       domain.InstrumentStatus(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, InstrumentRef{
		ID:           instrument.ID,
		SerialNumber: instrument.SerialNumber,
		Maker:        instrument.Maker,
		Type:         instrument.Type,
		Status:       string(instrument.Status),
	})
}

// RegisterClient godoc
// POST /api/v1/clients
func (h *Handler) RegisterClient(c *gin.Context) {
	var req RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.Catalog.RegisterClient(c.Request.Context(), catalog.RegisterClientInput{
		ClientNumber: req.ClientNumber,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Tags:         req.Tags,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ClientRef{
		ID:           client.ID,
		ClientNumber: client.ClientNumber,
		Name:         client.DisplayName(),
		Email:        client.Email,
	})
}

func (h *Handler) clientID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid client id")
		return uuid.Nil, false
	}
	return id, true
}

// ListConnections godoc
// GET /api/v1/clients/:id/connections
func (h *Handler) ListConnections(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}

	summary, err := h.Connections.Summary(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toClientConnectionsResponse(summary))
}

// CreateConnection godoc
// POST /api/v1/clients/:id/connections
func (h *Handler) CreateConnection(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}

	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	form := connection.NewForm()
	if err := form.OpenCreate(clientID, req.InstrumentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.submit(c, form, req, true)
}

// UpdateConnection godoc
// PUT /api/v1/clients/:id/connections/:connectionId
func (h *Handler) UpdateConnection(c *gin.Context) {
	clientID, ok := h.clientID(c)
	if !ok {
		return
	}
	connectionID, err := uuid.Parse(c.Param("connectionId"))
	if err != nil {
		h.BadRequest(c, "invalid connection id")
		return
	}

	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	summary, err := h.Connections.Summary(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	form := connection.NewForm()
	for _, existing := range summary.Connections {
		if existing.ID == connectionID {
			if err := form.OpenEdit(existing); err != nil {
				h.HandleError(c, err)
				return
			}
			break
		}
	}
	if form.State() != connection.FormEditing {
		h.NotFound(c, "connection not found")
		return
	}
	h.submit(c, form, req, false)
}

// submit applies the request to an open form and saves it. A blank
// relationship type keeps the value the form was opened with.
func (h *Handler) submit(c *gin.Context, form *connection.Form, req ConnectionRequest, created bool) {
	fields := form.Fields()
	fields.InstrumentID = req.InstrumentID
	if req.RelationshipType != "" {
		fields.RelationshipType = domain.RelationshipType(req.RelationshipType)
	}
	fields.Notes = strings.TrimSpace(req.Notes)

	if err := form.SetFields(fields); err != nil {
		h.HandleError(c, err)
		return
	}

	saved, err := h.Connections.Submit(c.Request.Context(), form)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if created {
		h.Created(c, toConnectionResponse(*saved))
		return
	}
	h.Success(c, toConnectionResponse(*saved))
}
