package trip

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/middleware"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// Handler exposes the trip staging endpoints. Each call sets one field
// of the session-scoped TripContext.
type Handler struct {
	*domain.BaseHandler
	sessions *SessionStore
}

func NewHandler(sessions *SessionStore, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		sessions:    sessions,
	}
}

type setFieldRequest struct {
	Value      string `json:"value" binding:"required"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

var allowedFields = map[string]bool{
	FieldProvince:  true,
	FieldStartDate: true,
	FieldEndDate:   true,
	FieldBudget:    true,
	FieldFlight:    true,
	FieldHotel:     true,
}

// SetField handles PUT /api/v1/trip/:field.
func (h *Handler) SetField(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == uuid.Nil {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	field := c.Param("field")
	if !allowedFields[field] {
		h.RespondError(c, fmt.Errorf("unknown trip field %q: %w", field, models.ErrValidation))
		return
	}

	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, fmt.Errorf("invalid request body: %w", models.ErrValidation))
		return
	}

	h.sessions.Set(userID.String(), field, req.Value, time.Duration(req.TTLSeconds)*time.Second)
	c.Status(http.StatusNoContent)
}

// GetContext handles GET /api/v1/trip.
func (h *Handler) GetContext(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == uuid.Nil {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, h.sessions.Context(userID.String()))
}
