package bitcoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	domainerrors "rune-settle.backend/internal/domain/errors"
)

// ChainQueryClient reads transaction confirmation state from an
// esplora-style API: GET /tx/{txid}/status plus the current tip height.
type ChainQueryClient struct {
	baseURL string
	client  *http.Client
}

// NewChainQueryClient creates a new chain query client
func NewChainQueryClient(baseURL string, timeout time.Duration) *ChainQueryClient {
	return &ChainQueryClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type txStatusResponse struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
}

// GetConfirmations returns the confirmation count for a txid. A transaction
// unknown to both mempool and chain yields ErrTxNotFound.
func (c *ChainQueryClient) GetConfirmations(ctx context.Context, txid string) (int32, error) {
	status, err := c.txStatus(ctx, txid)
	if err != nil {
		return 0, err
	}
	if !status.Confirmed {
		return 0, nil
	}

	tip, err := c.tipHeight(ctx)
	if err != nil {
		return 0, err
	}
	confirmations := tip - status.BlockHeight + 1
	if confirmations < 0 {
		confirmations = 0
	}
	return int32(confirmations), nil
}

func (c *ChainQueryClient) txStatus(ctx context.Context, txid string) (*txStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tx/"+txid+"/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domainerrors.ErrTxNotFound
	default:
		return nil, unexpectedStatus("chain query", resp, body)
	}

	var status txStatusResponse
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		return nil, fmt.Errorf("chain query: malformed status: %w", err)
	}
	return &status, nil
}

func (c *ChainQueryClient) tipHeight(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/blocks/tip/height", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, unexpectedStatus("chain query", resp, body)
	}
	height, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chain query: malformed tip height %q", body)
	}
	return height, nil
}
