package activities

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

// Handler exposes the activity endpoints feeding the reminder scan.
type Handler struct {
	*domain.BaseHandler
	repo Repository
}

func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		repo:        repo,
	}
}

type createActivityRequest struct {
	Title        string `json:"title" binding:"required"`
	ActivityDate string `json:"activity_date" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
}

// Create handles POST /api/v1/activities.
func (h *Handler) Create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == uuid.Nil {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, fmt.Errorf("invalid request body: %w", models.ErrValidation))
		return
	}
	if _, err := time.Parse("2006-01-02", req.ActivityDate); err != nil {
		h.RespondError(c, fmt.Errorf("activity_date must be YYYY-MM-DD: %w", models.ErrValidation))
		return
	}

	activity, err := h.repo.Create(c.Request.Context(), models.Activity{
		UserID:       userID,
		Title:        req.Title,
		ActivityDate: req.ActivityDate,
		Email:        req.Email,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// List handles GET /api/v1/activities.
func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == uuid.Nil {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	out, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": out})
}

// Delete handles DELETE /api/v1/activities/:id.
func (h *Handler) Delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == uuid.Nil {
		h.RespondError(c, models.ErrUnauthenticated)
		return
	}

	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.RespondError(c, fmt.Errorf("invalid activity id: %w", models.ErrValidation))
		return
	}

	if err := h.repo.Delete(c.Request.Context(), activityID, userID); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
