package entities

import "time"

// FeeTiers holds the current network fee rates in sat/vB with a freshness
// timestamp. Tiers are externally injected, never hardcoded.
type FeeTiers struct {
	Slow      float64   `json:"slow"`
	Medium    float64   `json:"medium"`
	Fast      float64   `json:"fast"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// FeeEstimate is the pure output of (mode, tiers, txSize, price feed).
type FeeEstimate struct {
	Mode            SettlementMode `json:"mode"`
	FeeRateSatPerVb float64        `json:"feeRateSatPerVb"`
	TotalFeeSats    int64          `json:"totalFeeSats"`
	UsdValue        float64        `json:"usdValue"`
	TimeEstimate    string         `json:"timeEstimate"`
	Warning         string         `json:"warning,omitempty"`
}
