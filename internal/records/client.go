package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient speaks the external records service's HTTP verbs. It is the
// only Provider implementation that leaves the process (spec §1, §9); the
// local sqlite-backed fallback lives in internal/recordsdb.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("records service returned status %d for %s %s", res.StatusCode, method, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

var errNotFound = fmt.Errorf("records service: not found")

func (c *HTTPClient) GetCommandByHash(ctx context.Context, hash string) (*CommandRecord, error) {
	var rec CommandRecord
	err := c.do(ctx, http.MethodGet, "/commands/by-hash/"+url.PathEscape(hash), nil, &rec)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) CreateCommand(ctx context.Context, cmd, hash string) (CommandRecord, error) {
	var rec CommandRecord
	err := c.do(ctx, http.MethodPost, "/commands", map[string]string{"command": cmd, "hash": hash}, &rec)
	return rec, err
}

func (c *HTTPClient) IsWhitelisted(ctx context.Context, commandID string) (bool, error) {
	var rec WhitelistRecord
	err := c.do(ctx, http.MethodGet, "/whitelist/"+url.PathEscape(commandID), nil, &rec)
	if err == errNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Active, nil
}

func (c *HTTPClient) CreateExecution(ctx context.Context, cmdID, cwd, status, source string, metadata map[string]any, usageID string) (ExecutionRecord, error) {
	var rec ExecutionRecord
	payload := map[string]any{
		"command_id": cmdID,
		"cwd":        cwd,
		"status":     status,
		"source":     source,
		"metadata":   metadata,
		"usage_id":   usageID,
	}
	err := c.do(ctx, http.MethodPost, "/executions", payload, &rec)
	return rec, err
}

func (c *HTTPClient) GetExecution(ctx context.Context, id string) (ExecutionRecord, error) {
	var rec ExecutionRecord
	err := c.do(ctx, http.MethodGet, "/executions/"+url.PathEscape(id), nil, &rec)
	return rec, err
}

func (c *HTTPClient) UpdateExecutionStatus(ctx context.Context, id, status string, output map[string]any, exitCode *int) error {
	payload := map[string]any{"status": status, "output": output, "exit_code": exitCode}
	return c.do(ctx, http.MethodPatch, "/executions/"+url.PathEscape(id), payload, nil)
}
