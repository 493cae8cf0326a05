package bitcoin

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
)

// BroadcasterClient submits signed transactions to an esplora-style node
// gateway (POST /tx with the raw hex body, txid returned as plain text).
type BroadcasterClient struct {
	baseURL string
	client  *http.Client
}

// NewBroadcasterClient creates a new broadcaster client
func NewBroadcasterClient(baseURL string, timeout time.Duration) *BroadcasterClient {
	return &BroadcasterClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

// Broadcast submits the signed transaction and returns its txid. Failures are
// classified so the orchestrator retries node trouble but not economic
// rejections.
func (c *BroadcasterClient) Broadcast(ctx context.Context, signedTx []byte) (string, error) {
	payload := hex.EncodeToString(signedTx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tx", bytes.NewBufferString(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", domainerrors.NewBroadcastError(entities.FailureReasonNodeUnreachable, true, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", domainerrors.NewBroadcastError(entities.FailureReasonNodeUnreachable, true, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		txid := strings.TrimSpace(body)
		if len(txid) != 64 {
			return "", domainerrors.NewBroadcastError(entities.FailureReasonNodeUnreachable, true,
				unexpectedStatus("broadcast service", resp, body))
		}
		return txid, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", domainerrors.NewBroadcastError(entities.FailureReasonNodeUnreachable, true,
			unexpectedStatus("broadcast service", resp, body))
	default:
		return "", domainerrors.NewBroadcastError(classifyRejection(body), false,
			unexpectedStatus("broadcast service", resp, body))
	}
}

// classifyRejection maps bitcoind reject messages onto failure reasons.
func classifyRejection(body string) string {
	msg := strings.ToLower(body)
	switch {
	case strings.Contains(msg, "min relay fee"),
		strings.Contains(msg, "fee not met"),
		strings.Contains(msg, "insufficient fee"),
		strings.Contains(msg, "mempool min fee"):
		return entities.FailureReasonFeeTooLow
	case strings.Contains(msg, "txn-mempool-conflict"),
		strings.Contains(msg, "already spent"),
		strings.Contains(msg, "missing inputs"),
		strings.Contains(msg, "bad-txns-inputs"),
		strings.Contains(msg, "double spend"):
		return entities.FailureReasonDoubleSpend
	default:
		return entities.FailureReasonNodeUnreachable
	}
}
