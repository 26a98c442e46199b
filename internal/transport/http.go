package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loupe-cloud/loupe/internal/version"
)

// queryPath is the engine's query endpoint, relative to the base endpoint.
const queryPath = "/v1/query"

// maxErrorBodyLen bounds the response snippet carried in transport errors.
const maxErrorBodyLen = 512

// HTTP sends query maps as JSON POST requests.
type HTTP struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

var _ Doer = (*HTTP)(nil)

// NewHTTP creates an HTTP transport for the given base endpoint. An empty
// token disables authentication.
func NewHTTP(endpoint, token string, client *http.Client, logger *zap.Logger) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   client,
		logger:   logger,
	}
}

// Send posts the query wire map and decodes the response wire map.
func (t *HTTP) Send(ctx context.Context, body map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	url := t.endpoint + queryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "loupe/"+version.Version)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send query: %w", err)
	}
	defer resp.Body.Close()

	t.logger.Debug("query sent",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
