package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const statusSuccess = "success"

// Client wraps the three consumed Earth Sentinel APIs (risk, contracts,
// dispatch) as typed request/response calls. No retries at this layer;
// every call surfaces success or a typed failure to its caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
}

func New(baseURL string, httpClient *http.Client, clock clockwork.Clock) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		clock:      clock,
	}
}

// statusEnvelope is the part every backend response shares.
type statusEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newErrNetwork(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return newErrNetwork(err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newErrService("%s %s answered %d: %s", req.Method, req.URL.Path, resp.StatusCode, firstLine(raw))
	}

	envelope := statusEnvelope{}

	err = json.Unmarshal(raw, &envelope)
	if err != nil {
		return newErrService("%s %s answered an unexpected body: %v", req.Method, req.URL.Path, err)
	}

	if envelope.Status != statusSuccess {
		return newErrService("%s %s answered status %q: %s", req.Method, req.URL.Path, envelope.Status, envelope.Error)
	}

	if out == nil {
		return nil
	}

	err = json.Unmarshal(raw, out)
	if err != nil {
		return newErrService("failed to decode %s %s response: %v", req.Method, req.URL.Path, err)
	}

	return nil
}

func firstLine(raw []byte) string {
	line, _, _ := strings.Cut(string(raw), "\n")
	if len(line) > 200 {
		line = line[:200]
	}

	return line
}

// wireID tolerates backends answering identifiers as numbers or strings.
type wireID string

func (w *wireID) UnmarshalJSON(data []byte) error {
	str := ""

	err := json.Unmarshal(data, &str)
	if err == nil {
		*w = wireID(str)

		return nil
	}

	number := json.Number("")

	err = json.Unmarshal(data, &number)
	if err != nil {
		return fmt.Errorf("identifier is neither string nor number: %w", err)
	}

	*w = wireID(number.String())

	return nil
}

// The backend emits naive UTC isoformat timestamps, without zone suffix.
var timestampFormats = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(value string) time.Time {
	for _, format := range timestampFormats {
		ts, err := time.Parse(format, value)
		if err == nil {
			return ts.UTC()
		}
	}

	return time.Time{}
}
