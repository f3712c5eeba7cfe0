// Package mixpanel is a minimal client for the Mixpanel ingestion API:
// event tracking, profile updates and revenue (charge) tracking.
//
// Every call is a single best-effort request. There is no retry, batching or
// backoff.
package mixpanel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the Mixpanel ingestion endpoint.
const DefaultBaseURL = "https://api.mixpanel.com"

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the client settings.
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client is the Mixpanel API client
type Client struct {
	token      string
	baseURL    string
	httpClient HTTPDoer
	now        func() time.Time
}

// NewClient creates a new Mixpanel API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		token:      strings.TrimSpace(config.Token),
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		now:        time.Now,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

// APIError is returned when Mixpanel rejects a request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mixpanel API error (status %d): %s", e.StatusCode, e.Message)
}

type verboseResponse struct {
	Status int     `json:"status"`
	Error  *string `json:"error"`
}

type trackPayload struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

// Track records a named event. The token, event time and an insert id are
// added to props (props itself is not modified).
func (c *Client) Track(ctx context.Context, event string, props map[string]any) error {
	if c.token == "" {
		return nil
	}
	p := make(map[string]any, len(props)+3)
	for k, v := range props {
		p[k] = v
	}
	p["token"] = c.token
	p["time"] = c.now().UnixMilli()
	if _, ok := p["$insert_id"]; !ok {
		p["$insert_id"] = uuid.NewString()
	}
	return c.post(ctx, "/track", []trackPayload{{Event: event, Properties: p}})
}

// profile property names that map onto Mixpanel reserved properties
var reservedProfileProps = map[string]string{
	"email":      "$email",
	"first_name": "$first_name",
	"last_name":  "$last_name",
	"name":       "$name",
	"phone":      "$phone",
}

// UpdateProfile sets properties on the profile identified by distinctID.
// An "ip" property becomes the update's $ip; when absent geolocation is disabled.
func (c *Client) UpdateProfile(ctx context.Context, distinctID any, props map[string]any) error {
	if c.token == "" {
		return nil
	}
	set := make(map[string]any, len(props))
	ip := "0"
	for k, v := range props {
		if k == "ip" {
			if s, ok := v.(string); ok && s != "" {
				ip = s
			}
			continue
		}
		if reserved, ok := reservedProfileProps[k]; ok {
			k = reserved
		}
		set[k] = v
	}
	update := map[string]any{
		"$token":       c.token,
		"$distinct_id": distinctID,
		"$ip":          ip,
		"$set":         set,
	}
	return c.post(ctx, "/engage", []map[string]any{update})
}

// TrackCharge appends a transaction to the profile's revenue history.
func (c *Client) TrackCharge(ctx context.Context, distinctID any, amount decimal.Decimal) error {
	if c.token == "" {
		return nil
	}
	amt, _ := amount.Float64()
	update := map[string]any{
		"$token":       c.token,
		"$distinct_id": distinctID,
		"$ip":          "0",
		"$append": map[string]any{
			"$transactions": map[string]any{
				"$time":   c.now().UTC().Format("2006-01-02T15:04:05"),
				"$amount": amt,
			},
		},
	}
	return c.post(ctx, "/engage", []map[string]any{update})
}

func (c *Client) post(ctx context.Context, endpoint string, body any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?verbose=1", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var vr verboseResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		// non-verbose responses are a bare "1" or "0"
		if strings.TrimSpace(string(respBody)) == "0" {
			return &APIError{StatusCode: resp.StatusCode, Message: "rejected"}
		}
		return nil
	}
	if vr.Status != 1 {
		msg := "rejected"
		if vr.Error != nil {
			msg = *vr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}
