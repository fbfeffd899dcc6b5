package schedule

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/middleware"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// Handler exposes the schedule service over HTTP.
type Handler struct {
	*domain.BaseHandler
	service Service
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

// Create handles POST /api/v1/schedules.
func (h *Handler) Create(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, fmt.Errorf("invalid request body: %w", models.ErrValidation))
		return
	}
	req.UserID = middleware.UserIDFromContext(c)

	resp, err := h.service.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	if resp.Message != "" {
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ViewShared handles GET /view-schedule/:token/ without authentication;
// the unguessable token is the credential.
func (h *Handler) ViewShared(c *gin.Context) {
	token := c.Param("token")
	schedule, err := h.service.GetShared(c.Request.Context(), token)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// List handles GET /api/v1/schedules.
func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == uuid.Nil {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	schedules, err := h.service.ListForUser(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// Delete handles DELETE /api/v1/schedules/:id.
func (h *Handler) Delete(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.RespondError(c, fmt.Errorf("invalid schedule id: %w", models.ErrValidation))
		return
	}

	if err := h.service.Delete(c.Request.Context(), scheduleID); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
