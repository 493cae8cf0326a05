package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PriceOracleClient fetches the BTC/USD spot rate used only for fee
// presentation. The settlement path tolerates this oracle being down.
type PriceOracleClient struct {
	baseURL string
	client  *http.Client
}

// NewPriceOracleClient creates a new price oracle client
func NewPriceOracleClient(baseURL string, timeout time.Duration) *PriceOracleClient {
	return &PriceOracleClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type priceResponse struct {
	USD float64 `json:"USD"`
}

// BtcUsdRate returns the current BTC/USD rate.
func (c *PriceOracleClient) BtcUsdRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/prices", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price oracle: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, unexpectedStatus("price oracle", resp, body)
	}

	var price priceResponse
	if err := json.Unmarshal([]byte(body), &price); err != nil {
		return 0, fmt.Errorf("price oracle: malformed response: %w", err)
	}
	if price.USD <= 0 {
		return 0, fmt.Errorf("price oracle: non-positive rate %f", price.USD)
	}
	return price.USD, nil
}
