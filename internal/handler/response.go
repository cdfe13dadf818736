package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"courier/internal/repository"
	"courier/internal/service"
	"courier/internal/status"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var invalidTransition *status.InvalidTransitionError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Transition request outside the allowed next-state set
	case errors.As(err, &invalidTransition):
		return http.StatusConflict

	// A writer already holds this delivery
	case errors.Is(err, service.ErrTransitionInFlight),
		errors.Is(err, service.ErrDeliveryLocked):
		return http.StatusConflict

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDeliveryID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidRemittanceID),
		errors.Is(err, service.ErrProofIncomplete),
		errors.Is(err, service.ErrDeliveryTerminal),
		errors.Is(err, service.ErrNoRouteSession),
		errors.Is(err, service.ErrRemittanceNotSettleable):
		return http.StatusBadRequest

	// Transient store faults surface after retry exhaustion
	case errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
