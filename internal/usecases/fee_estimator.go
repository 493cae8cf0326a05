package usecases

import (
	"fmt"
	"math"

	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
)

// Manual-mode fee rate bounds in sat/vB.
const (
	MinManualFeeRate = 1.0
	MaxManualFeeRate = 200.0
)

// Time estimates per mode / tier percentile.
const (
	TimeEstimateFast     = "~10 min"
	TimeEstimateMedium   = "~10-60 min"
	TimeEstimateBatched  = "1-6 h"
	TimeEstimateSlow     = "6-24 h"
	TimeEstimateBelowMin = "more than 24 h"
)

// WarningBelowSlowTier flags a manual rate under the slow tier. The rate is
// accepted anyway.
const WarningBelowSlowTier = "not recommended, may not confirm"

// FeeEstimator computes cost/time estimates from externally injected fee
// tiers and price data. Pure; safe for concurrent callers.
type FeeEstimator struct{}

// NewFeeEstimator creates a new fee estimator
func NewFeeEstimator() *FeeEstimator {
	return &FeeEstimator{}
}

// Estimate prices a settlement of txSizeVb virtual bytes under the given mode.
// customRate is only consulted for manual mode and must be within
// [MinManualFeeRate, MaxManualFeeRate]. For fixed tiers ordered
// fast >= medium >= slow, estimates are monotonic across modes.
func (e *FeeEstimator) Estimate(
	mode entities.SettlementMode,
	tiers entities.FeeTiers,
	txSizeVb int64,
	customRate *float64,
	btcUsdRate float64,
) (*entities.FeeEstimate, error) {
	if txSizeVb <= 0 {
		return nil, domainerrors.BadRequest("tx size must be positive")
	}

	estimate := &entities.FeeEstimate{Mode: mode}

	switch mode {
	case entities.SettlementModeInstant:
		estimate.FeeRateSatPerVb = tiers.Fast
		estimate.TimeEstimate = TimeEstimateFast
	case entities.SettlementModeBatched:
		estimate.FeeRateSatPerVb = tiers.Medium
		estimate.TimeEstimate = TimeEstimateBatched
	case entities.SettlementModeScheduled:
		estimate.FeeRateSatPerVb = tiers.Slow
		estimate.TimeEstimate = TimeEstimateSlow
	case entities.SettlementModeManual:
		if customRate == nil {
			return nil, domainerrors.BadRequest("manual mode requires a custom fee rate")
		}
		rate := *customRate
		if rate < MinManualFeeRate || rate > MaxManualFeeRate {
			return nil, domainerrors.UnprocessableEntity(
				fmt.Sprintf("custom fee rate must be between %.0f and %.0f sat/vB", MinManualFeeRate, MaxManualFeeRate),
				domainerrors.ErrInvalidFeeRate,
			)
		}
		estimate.FeeRateSatPerVb = rate
		estimate.TimeEstimate = manualTimeEstimate(rate, tiers)
		if rate < tiers.Slow {
			estimate.Warning = WarningBelowSlowTier
		}
	default:
		return nil, domainerrors.BadRequest("unsupported settlement mode")
	}

	estimate.TotalFeeSats = int64(math.Ceil(estimate.FeeRateSatPerVb * float64(txSizeVb)))
	estimate.UsdValue = float64(estimate.TotalFeeSats) / 1e8 * btcUsdRate
	return estimate, nil
}

// manualTimeEstimate derives a confirmation time band from where the custom
// rate lands against the current tiers.
func manualTimeEstimate(rate float64, tiers entities.FeeTiers) string {
	switch {
	case rate >= tiers.Fast:
		return TimeEstimateFast
	case rate >= tiers.Medium:
		return TimeEstimateMedium
	case rate >= tiers.Slow:
		return TimeEstimateBatched
	default:
		return TimeEstimateBelowMin
	}
}
