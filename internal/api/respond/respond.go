// Package respond maps service errors to HTTP responses.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

// Status returns the HTTP status code for a service error
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotConnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error body and attaches it to the context
func Error(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(Status(err), gin.H{"error": err.Error()})
}
