// Package metadata fetches the Hyperliquid asset universe through a
// single one-shot HTTP call. Nothing here is invoked from the
// supervisor loop in pkg/hlws, and the client is safe to use or skip
// entirely.
package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Asset is one entry of Hyperliquid's perpetuals universe, as returned
// by the /info {"type":"meta"} request.
type Asset struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
}

type metaResponse struct {
	Universe []Asset `json:"universe"`
}

type metaRequest struct {
	Type string `json:"type"`
}

// Client is a one-shot HTTP client for the Hyperliquid /info endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client against baseURL (Hyperliquid's /info
// endpoint) with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchUniverse issues one {"type":"meta"} request and returns the
// asset universe. It performs no retries and is never called from the
// supervisor loop; callers needing the list again must call it again.
func (c *Client) FetchUniverse(ctx context.Context) ([]Asset, error) {
	body, err := json.Marshal(metaRequest{Type: "meta"})
	if err != nil {
		return nil, fmt.Errorf("encode meta request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching-asset-universe", zap.String("url", c.baseURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var decoded metaResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	c.logger.Debug("fetched-asset-universe", zap.Int("count", len(decoded.Universe)))
	return decoded.Universe, nil
}
