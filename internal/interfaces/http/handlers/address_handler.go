package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/domain/repositories"
	"rune-settle.backend/internal/interfaces/http/middleware"
	"rune-settle.backend/internal/interfaces/http/response"
	"rune-settle.backend/internal/usecases"
)

// AddressHandler handles address classification and saved address bookmarks
type AddressHandler struct {
	classifier *usecases.AddressClassifier
	savedRepo  repositories.SavedAddressRepository
	network    entities.Network
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(classifier *usecases.AddressClassifier, savedRepo repositories.SavedAddressRepository, network entities.Network) *AddressHandler {
	return &AddressHandler{
		classifier: classifier,
		savedRepo:  savedRepo,
		network:    network,
	}
}

// Classify validates and classifies a Bitcoin address. Public endpoint; an
// invalid address is still a 200 with valid=false so clients can show the
// error inline.
// POST /api/v1/addresses/classify
func (h *AddressHandler) Classify(c *gin.Context) {
	var input entities.ClassifyAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	requireNetwork := entities.Network(input.RequireNetwork)
	result := h.classifier.Classify(input.Address, requireNetwork)
	response.Success(c, http.StatusOK, result)
}

// ListSaved returns the caller's saved addresses
// GET /api/v1/saved-addresses
func (h *AddressHandler) ListSaved(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	addrs, err := h.savedRepo.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"addresses": addrs})
}

// Save bookmarks a destination address. The address must classify as valid
// on the service network.
// POST /api/v1/saved-addresses
func (h *AddressHandler) Save(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	var input entities.SaveAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	classified := h.classifier.Classify(input.Address, h.network)
	if !classified.Valid {
		response.Error(c, domainerrors.BadRequest(classified.Error))
		return
	}

	addr := &entities.SavedAddress{
		OwnerID:   userID,
		Address:   input.Address,
		Label:     input.Label,
		Type:      classified.ScriptType,
		Network:   classified.Network,
		IsPrimary: input.IsPrimary,
	}
	if err := h.savedRepo.Create(c.Request.Context(), addr); err != nil {
		if err == domainerrors.ErrAlreadyExists {
			response.Error(c, domainerrors.Conflict("Address already saved"))
			return
		}
		response.Error(c, err)
		return
	}

	if input.IsPrimary {
		if err := h.savedRepo.SetPrimary(c.Request.Context(), userID, addr.ID); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Success(c, http.StatusCreated, addr)
}

// SetPrimary marks one saved address as the default destination
// PUT /api/v1/saved-addresses/:id/primary
func (h *AddressHandler) SetPrimary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid address ID"))
		return
	}

	if err := h.savedRepo.SetPrimary(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Primary address updated"})
}

// Delete removes a saved address
// DELETE /api/v1/saved-addresses/:id
func (h *AddressHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid address ID"))
		return
	}

	if err := h.savedRepo.Delete(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
