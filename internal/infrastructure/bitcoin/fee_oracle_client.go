package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rune-settle.backend/internal/domain/entities"
)

// FeeOracleClient pulls recommended fee tiers from a mempool.space-style
// endpoint: GET /v1/fees/recommended.
type FeeOracleClient struct {
	baseURL string
	client  *http.Client
}

// NewFeeOracleClient creates a new fee oracle client
func NewFeeOracleClient(baseURL string, timeout time.Duration) *FeeOracleClient {
	return &FeeOracleClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type recommendedFeesResponse struct {
	FastestFee  float64 `json:"fastestFee"`
	HalfHourFee float64 `json:"halfHourFee"`
	HourFee     float64 `json:"hourFee"`
}

// CurrentTiers fetches the live fee tiers and stamps them with fetch time.
func (c *FeeOracleClient) CurrentTiers(ctx context.Context) (entities.FeeTiers, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/fees/recommended", nil)
	if err != nil {
		return entities.FeeTiers{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return entities.FeeTiers{}, fmt.Errorf("fee oracle: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return entities.FeeTiers{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return entities.FeeTiers{}, unexpectedStatus("fee oracle", resp, body)
	}

	var fees recommendedFeesResponse
	if err := json.Unmarshal([]byte(body), &fees); err != nil {
		return entities.FeeTiers{}, fmt.Errorf("fee oracle: malformed response: %w", err)
	}
	if fees.HourFee <= 0 || fees.HalfHourFee <= 0 || fees.FastestFee <= 0 {
		return entities.FeeTiers{}, fmt.Errorf("fee oracle: non-positive tier in response")
	}

	return entities.FeeTiers{
		Slow:      fees.HourFee,
		Medium:    fees.HalfHourFee,
		Fast:      fees.FastestFee,
		FetchedAt: time.Now(),
	}, nil
}
