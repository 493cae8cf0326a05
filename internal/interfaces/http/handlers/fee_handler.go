package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/interfaces/http/response"
	"rune-settle.backend/internal/usecases"
)

// FeeHandler quotes settlement fees over live tiers and price
type FeeHandler struct {
	estimator   *usecases.FeeEstimator
	feeOracle   usecases.FeeTierOracle
	priceOracle usecases.PriceOracle
}

// NewFeeHandler creates a new fee handler
func NewFeeHandler(estimator *usecases.FeeEstimator, feeOracle usecases.FeeTierOracle, priceOracle usecases.PriceOracle) *FeeHandler {
	return &FeeHandler{
		estimator:   estimator,
		feeOracle:   feeOracle,
		priceOracle: priceOracle,
	}
}

// Quote prices every settlement mode for a transfer. customRate adds a
// manual-mode quote. A price oracle outage degrades to usdValue 0 rather
// than failing the quote.
// GET /api/v1/fees/quote?outputs=1&customRate=12.5
func (h *FeeHandler) Quote(c *gin.Context) {
	outputs := 1
	if raw := c.Query("outputs"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(c, domainerrors.BadRequest("outputs must be a positive integer"))
			return
		}
		outputs = n
	}

	var customRate *float64
	if raw := c.Query("customRate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.Error(c, domainerrors.BadRequest("customRate must be a number"))
			return
		}
		customRate = &rate
	}

	ctx := c.Request.Context()
	tiers, err := h.feeOracle.CurrentTiers(ctx)
	if err != nil {
		response.Error(c, domainerrors.NewAppError(http.StatusServiceUnavailable, "Fee tiers unavailable", err))
		return
	}

	btcUsd, err := h.priceOracle.BtcUsdRate(ctx)
	if err != nil {
		btcUsd = 0
	}

	sizeVb := usecases.EstimateTxSizeVb(outputs)
	modes := []entities.SettlementMode{
		entities.SettlementModeInstant,
		entities.SettlementModeBatched,
		entities.SettlementModeScheduled,
	}
	if customRate != nil {
		modes = append(modes, entities.SettlementModeManual)
	}

	quotes := make([]*entities.FeeEstimate, 0, len(modes))
	for _, mode := range modes {
		quote, err := h.estimator.Estimate(mode, tiers, sizeVb, customRate, btcUsd)
		if err != nil {
			response.Error(c, err)
			return
		}
		quotes = append(quotes, quote)
	}

	response.Success(c, http.StatusOK, gin.H{
		"txSizeVb":  sizeVb,
		"tiers":     tiers,
		"btcUsd":    btcUsd,
		"estimates": quotes,
	})
}
