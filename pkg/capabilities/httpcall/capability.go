// Package httpcall provides an HTTP capability for process nodes: the node's
// parameters describe a request, the response becomes the data delta.
package httpcall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lexflow/lexflow/pkg/protocol"
)

const CapabilityName = "http_call"

const defaultClientTimeout = 60 * time.Second

type Capability struct {
	client *http.Client
	logger *slog.Logger
}

func NewCapability(logger *slog.Logger) *Capability {
	return &Capability{
		client: &http.Client{Timeout: defaultClientTimeout},
		logger: logger.With("module", "http_call_capability"),
	}
}

func (c *Capability) Name() string {
	return CapabilityName
}

// Invoke performs one HTTP request. 5xx responses and transport errors are
// transient so the scheduler retries them; 4xx responses are permanent.
func (c *Capability) Invoke(ctx context.Context, params map[string]any, _ map[string]any) (map[string]any, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return nil, protocol.PermanentFailure(fmt.Errorf("missing required parameter %q", "url"))
	}

	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)

	body, _ := params["body"].(string)

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, protocol.PermanentFailure(fmt.Errorf("failed to create request: %w", err))
	}

	if headers, ok := params["headers"].(map[string]any); ok {
		for key, value := range headers {
			if strVal, ok := value.(string); ok {
				req.Header.Set(key, strVal)
			}
		}
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, protocol.TransientFailure(fmt.Errorf("request failed: %w", err))
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, protocol.TransientFailure(fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.DebugContext(ctx, "HTTP call finished", "method", method, "url", url, "status_code", resp.StatusCode)

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, protocol.TransientFailure(fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody)))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, protocol.PermanentFailure(fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody)))
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, nil
}
