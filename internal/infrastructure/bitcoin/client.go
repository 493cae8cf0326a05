// Package bitcoin holds the HTTP clients for the external settlement
// collaborators: the signing service, the broadcast service, an
// esplora-style chain-query service, and the fee/price oracles. The engine
// only ever sees the interfaces in internal/usecases.
package bitcoin

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 15 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

// readBody drains a response body with a sane cap so a misbehaving
// collaborator cannot balloon memory.
func readBody(resp *http.Response) (string, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func unexpectedStatus(service string, resp *http.Response, body string) error {
	return fmt.Errorf("%s returned %d: %s", service, resp.StatusCode, body)
}
