// Package execution runs transformed OPAL queries against the
// observability platform over its JSON query API.
package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sievelabs/opalfix/internal/types"
)

// Executor is the narrow surface the API layer depends on. The concrete
// Client talks HTTP; tests substitute a stub.
type Executor interface {
	Execute(ctx context.Context, query string, qctx types.QueryContext) ([]types.Row, error)
}

// Client executes queries against a platform endpoint with bearer auth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an execution client. baseURL is the platform root
// (no trailing slash needed); token may be empty for unauthenticated
// local platforms.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("execution: baseURL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type executeRequest struct {
	Query      string            `json:"query"`
	TimeWindow *types.TimeWindow `json:"time_window,omitempty"`
	DatasetIDs []string          `json:"dataset_ids,omitempty"`
}

type executeResponse struct {
	Rows []types.Row `json:"rows"`
}

// Execute posts the query to the platform and decodes the result rows.
// Non-2xx responses decode into *types.StructuredError, which unwraps to
// types.ErrExecutionFailed.
func (c *Client) Execute(ctx context.Context, query string, qctx types.QueryContext) ([]types.Row, error) {
	if query == "" {
		return nil, types.ErrEmptyQuery
	}

	body, err := json.Marshal(executeRequest{
		Query:      query,
		TimeWindow: qctx.TimeWindow,
		DatasetIDs: qctx.DatasetIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("execution: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("execution: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execution: %w: %v", types.ErrExecutionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var out executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("execution: decoding response: %w", err)
	}
	return out.Rows, nil
}

// decodeError turns an error response into a StructuredError, falling
// back to the raw body when the platform sends something unstructured.
func decodeError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &types.StructuredError{Message: fmt.Sprintf("platform returned %d", resp.StatusCode)}
	}

	var structured types.StructuredError
	if json.Unmarshal(raw, &structured) == nil && structured.Message != "" {
		return &structured
	}
	return &types.StructuredError{
		Message: fmt.Sprintf("platform returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw)),
	}
}
