package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/interfaces/http/middleware"
	"rune-settle.backend/internal/interfaces/http/response"
	"rune-settle.backend/internal/usecases"
	"rune-settle.backend/pkg/utils"
)

// SettlementHandler handles settlement endpoints
type SettlementHandler struct {
	settlements *usecases.SettlementUsecase
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlements *usecases.SettlementUsecase) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// Submit accepts a new settlement request
// POST /api/v1/settlements
func (h *SettlementHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	var input entities.SubmitSettlementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.settlements.Submit(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusAccepted
	if result.Duplicate {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// Get returns a single settlement request
// GET /api/v1/settlements/:id
func (h *SettlementHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid settlement ID"))
		return
	}

	req, err := h.settlements.GetStatus(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, req)
}

// List returns the caller's settlement history, newest first
// GET /api/v1/settlements?page=&limit=
func (h *SettlementHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	var params utils.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	params = utils.GetPaginationParams(params.Page, params.Limit)

	requests, total, err := h.settlements.ListHistory(c.Request.Context(), userID, params.Limit, params.CalculateOffset())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"settlements": requests,
		"pagination":  utils.CalculateMeta(int64(total), params.Page, params.Limit),
	})
}

// Events returns the transition audit trail for a settlement
// GET /api/v1/settlements/:id/events
func (h *SettlementHandler) Events(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid settlement ID"))
		return
	}

	events, err := h.settlements.GetEvents(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// Subscribe streams status transitions for a settlement as SSE until the
// request reaches a terminal status or the client disconnects.
// GET /api/v1/settlements/:id/subscribe
func (h *SettlementHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid settlement ID"))
		return
	}

	ctx := c.Request.Context()
	ch, cancel, err := h.settlements.Subscribe(ctx, userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer cancel()

	// Replay the current status first so late subscribers see where they are.
	current, err := h.settlements.GetStatus(ctx, userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("status", entities.StatusChange{
		RequestID:     current.ID,
		Status:        current.Status,
		Txid:          current.Txid.String,
		Confirmations: current.Confirmations,
		FailureReason: current.FailureReason.String,
		At:            current.UpdatedAt,
	})
	c.Writer.Flush()
	if current.Status.IsTerminal() {
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("status", change)
			return !change.Status.IsTerminal()
		}
	})
}
