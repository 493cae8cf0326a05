package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/interfaces/http/middleware"
	"rune-settle.backend/internal/interfaces/http/response"
	"rune-settle.backend/internal/usecases"
)

// RuneHandler exposes per-owner rune lifecycle views
type RuneHandler struct {
	lifecycle *usecases.RuneLifecycleUsecase
}

// NewRuneHandler creates a new rune handler
func NewRuneHandler(lifecycle *usecases.RuneLifecycleUsecase) *RuneHandler {
	return &RuneHandler{lifecycle: lifecycle}
}

// List returns lifecycle records for all of the caller's runes
// GET /api/v1/runes
func (h *RuneHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	records, err := h.lifecycle.ListRecords(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"runes": records})
}

// Get returns the lifecycle record for one rune
// GET /api/v1/runes/:key
func (h *RuneHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	record, err := h.lifecycle.GetRecord(c.Request.Context(), userID, c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, record)
}
