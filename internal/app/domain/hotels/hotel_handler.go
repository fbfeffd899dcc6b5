package hotels

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/domain"
	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// Handler exposes the hotel catalog over HTTP.
type Handler struct {
	*domain.BaseHandler
	store *Store
}

func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: domain.NewBaseHandler(logger),
		store:       store,
	}
}

// List handles GET /api/v1/hotels with optional province and nearby filters.
func (h *Handler) List(c *gin.Context) {
	records, err := h.store.List(c.Query("province"), c.Query("nearby"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotels": records})
}

// Get handles GET /api/v1/hotels/:name.
func (h *Handler) Get(c *gin.Context) {
	record, err := h.store.Get(c.Param("name"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Create handles POST /api/v1/hotels.
func (h *Handler) Create(c *gin.Context) {
	var record models.HotelRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		h.RespondError(c, fmt.Errorf("invalid request body: %w", models.ErrValidation))
		return
	}
	if record.Name == "" {
		h.RespondError(c, fmt.Errorf("hotel name is required: %w", models.ErrValidation))
		return
	}

	if err := h.store.Create(record); err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Update handles PATCH /api/v1/hotels/:name; only non-empty fields are applied.
func (h *Handler) Update(c *gin.Context) {
	var update models.HotelUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.RespondError(c, fmt.Errorf("invalid request body: %w", models.ErrValidation))
		return
	}

	if err := h.store.UpdateByName(c.Param("name"), update); err != nil {
		h.RespondError(c, err)
		return
	}
	record, err := h.store.Get(c.Param("name"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /api/v1/hotels/:name.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.store.DeleteByName(c.Param("name")); err != nil {
		h.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Top handles GET /api/v1/hotels/top, the best-rated hotels per province.
func (h *Handler) Top(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.RespondError(c, fmt.Errorf("invalid limit %q: %w", raw, models.ErrValidation))
			return
		}
		limit = parsed
	}

	records, err := h.store.TopByRating(limit)
	if err != nil {
		h.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotels": records})
}
