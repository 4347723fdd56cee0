package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/luthier-backend/internal/usecase/catalog"
	"github.com/simaogato/luthier-backend/internal/usecase/connection"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
)

// RequestIDKey is the header and context key for the request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common response helpers
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with list meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, meta Meta) {
	resp := NewSuccessResponse(data)
	resp.Meta = &meta
	c.JSON(http.StatusOK, resp)
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// Error sends an error response with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatus(code), NewErrorResponse(code, message, getRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, ErrCodeBadRequest, message)
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, ErrCodeNotFound, message)
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code := errorCode(err)
	message := err.Error()
	if code == ErrCodeInternal {
		message = "An unexpected error occurred"
	}
	h.Error(c, code, message)
}

func errorCode(err error) string {
	var invalidID *catalog.InvalidIdentifierError
	switch {
	case errors.Is(err, catalog.ErrUnknownKind),
		errors.Is(err, filter.ErrInvalidDate),
		errors.Is(err, filter.ErrInvertedRange):
		return ErrCodeBadRequest
	case errors.As(err, &invalidID):
		return ErrCodeValidation
	case errors.Is(err, connection.ErrFormClosed),
		errors.Is(err, connection.ErrFormOpen):
		return ErrCodeConflict
	case errors.Is(err, sql.ErrNoRows):
		return ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeUnavailable
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists"):
		return ErrCodeConflict
	case strings.Contains(msg, "not found"):
		return ErrCodeNotFound
	case strings.Contains(msg, "must be positive"),
		strings.Contains(msg, "must not"),
		strings.Contains(msg, "cannot be"),
		strings.Contains(msg, "must reference"),
		strings.Contains(msg, "must have"),
		strings.Contains(msg, "is required"),
		strings.HasPrefix(msg, "invalid"):
		return ErrCodeValidation
	}
	return ErrCodeInternal
}
