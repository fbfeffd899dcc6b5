package domain

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// BaseHandler carries the shared handler plumbing: the logger and the
// error-to-status mapping for the domain taxonomy.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// RespondError maps a domain error onto the HTTP surface. Validation and
// not-found errors are terminal and local; persistence errors were
// already rolled back and are retryable; external-service failures are
// reported distinctly so callers can retry them.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrInvalidDateRange):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrDataSource), errors.Is(err, models.ErrInsufficientData):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrExternalService):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrPersistence):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
