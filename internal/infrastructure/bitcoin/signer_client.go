package bitcoin

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/usecases"
)

// SignerClient talks to the external signing service. The service owns coin
// selection, runestone construction and keys; we only describe the transfer.
type SignerClient struct {
	baseURL string
	client  *http.Client
}

// NewSignerClient creates a new signer client
func NewSignerClient(baseURL string, timeout time.Duration) *SignerClient {
	return &SignerClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

type signResponse struct {
	SignedTx string `json:"signedTx"` // hex
}

// Sign submits the descriptor and returns the raw signed transaction bytes.
func (c *SignerClient) Sign(ctx context.Context, tx *usecases.UnsignedTxDescriptor) ([]byte, error) {
	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sign", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrSigning, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrSigning, body)
	}

	var out signResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed response", domainerrors.ErrSigning)
	}
	signed, err := hex.DecodeString(out.SignedTx)
	if err != nil || len(signed) == 0 {
		return nil, fmt.Errorf("%w: invalid signed tx encoding", domainerrors.ErrSigning)
	}
	return signed, nil
}
