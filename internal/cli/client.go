package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charliek/qrun/internal/api"
	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// Client is an HTTP client for the control API of a running qrun
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. addr may be host:port or a URL.
func NewClient(addr, token string) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	return &Client{
		baseURL: strings.TrimSuffix(addr, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
		},
	}
}

// GetStatus gets supervisor status
func (c *Client) GetStatus() (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWorkers gets all workers
func (c *Client) GetWorkers() (*api.WorkerListResponse, error) {
	var resp api.WorkerListResponse
	if err := c.get("/api/v1/workers", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the supervisor to stop all workers
func (c *Client) Shutdown() error {
	var resp api.SuccessResponse
	return c.post("/api/v1/shutdown", &resp)
}

// GetLogs gets recent logs with optional filtering
func (c *Client) GetLogs(params domain.LogParams) (*api.LogsResponse, error) {
	path := "/api/v1/logs"
	if q := logQuery(params, "lines"); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp api.LogsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamLogs calls fn for the last params.Lines entries and then for each
// new one, until ctx is done or the server ends the stream
func (c *Client) StreamLogs(ctx context.Context, params domain.LogParams, fn func(api.LogEntryResponse)) error {
	path := "/api/v1/logs/stream"
	if q := logQuery(params, "tail"); len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.addAuthHeader(req)

	// The stream outlives the request timeout
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var entry api.LogEntryResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &entry); err == nil {
			fn(entry)
		}
	}
}

// logQuery encodes params; the line count goes under linesKey
func logQuery(params domain.LogParams, linesKey string) url.Values {
	query := url.Values{}
	if params.Worker != "" {
		query.Set("worker", params.Worker)
	}
	if params.Lines > 0 {
		query.Set(linesKey, strconv.Itoa(params.Lines))
	}
	if params.Pattern != "" {
		query.Set("pattern", params.Pattern)
	}
	if params.Regex {
		query.Set("regex", "true")
	}
	return query
}

func (c *Client) get(path string, v any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) post(path string, v any) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// decodeError turns an API error body into an error
func decodeError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Code != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Error)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

// addAuthHeader adds the Authorization header if a token is available
func (c *Client) addAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
