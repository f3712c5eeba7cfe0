package mixpanel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path string
	body []map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	reply    string
	status   int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{reply: `{"status":1,"error":null}`, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("missing or incorrect Content-Type header")
		}
		if r.URL.Query().Get("verbose") != "1" {
			t.Error("expected verbose=1")
		}
		raw, _ := io.ReadAll(r.Body)
		var body []map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("body is not a JSON array: %v", err)
		}
		api.mu.Lock()
		api.requests = append(api.requests, recorded{path: r.URL.Path, body: body})
		status, reply := api.status, api.reply
		api.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func newTestClient(baseURL, token string) *Client {
	c := NewClient(Config{Token: token, BaseURL: baseURL})
	c.now = func() time.Time { return time.Date(2026, 1, 26, 16, 20, 0, 0, time.UTC) }
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{Token: " tok "})
	assert.Equal(t, "tok", c.token)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestTrack(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(srv.URL, "tok")

	props := map[string]any{"distinct_id": 42, "product_name": "Book"}
	require.NoError(t, c.Track(context.Background(), "EDD Added to Cart", props))

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "/track", req.path)
	require.Len(t, req.body, 1)
	assert.Equal(t, "EDD Added to Cart", req.body[0]["event"])

	p := req.body[0]["properties"].(map[string]any)
	assert.Equal(t, "tok", p["token"])
	assert.Equal(t, float64(42), p["distinct_id"])
	assert.Equal(t, "Book", p["product_name"])
	assert.Equal(t, float64(1769444400000), p["time"])
	assert.NotEmpty(t, p["$insert_id"])
	assert.NotContains(t, props, "token", "caller map must not be modified")
}

func TestUpdateProfile_MapsReservedProperties(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(srv.URL, "tok")

	err := c.UpdateProfile(context.Background(), "a@b.com", map[string]any{
		"ip":         "203.0.113.9",
		"email":      "a@b.com",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.NoError(t, err)

	require.Len(t, api.requests, 1)
	assert.Equal(t, "/engage", api.requests[0].path)
	u := api.requests[0].body[0]
	assert.Equal(t, "tok", u["$token"])
	assert.Equal(t, "a@b.com", u["$distinct_id"])
	assert.Equal(t, "203.0.113.9", u["$ip"])
	set := u["$set"].(map[string]any)
	assert.Equal(t, "a@b.com", set["$email"])
	assert.Equal(t, "Ada", set["$first_name"])
	assert.Equal(t, "Lovelace", set["$last_name"])
	assert.NotContains(t, set, "ip")
}

func TestTrackCharge(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(srv.URL, "tok")

	require.NoError(t, c.TrackCharge(context.Background(), int64(7), decimal.RequireFromString("49.95")))

	require.Len(t, api.requests, 1)
	u := api.requests[0].body[0]
	assert.Equal(t, float64(7), u["$distinct_id"])
	tx := u["$append"].(map[string]any)["$transactions"].(map[string]any)
	assert.Equal(t, 49.95, tx["$amount"])
	assert.Equal(t, "2026-01-26T16:20:00", tx["$time"])
}

func TestEmptyToken_NoRequests(t *testing.T) {
	api, srv := newFakeAPI(t)
	c := newTestClient(srv.URL, "   ")
	ctx := context.Background()

	assert.NoError(t, c.Track(ctx, "EDD Sale", nil))
	assert.NoError(t, c.UpdateProfile(ctx, 1, map[string]any{"ip": "1.2.3.4"}))
	assert.NoError(t, c.TrackCharge(ctx, 1, decimal.NewFromInt(1)))
	assert.Empty(t, api.requests)
}

func TestAPIErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		reply  string
	}{
		{"http status", http.StatusUnauthorized, "invalid token"},
		{"verbose rejection", http.StatusOK, `{"status":0,"error":"token missing"}`},
		{"plain rejection", http.StatusOK, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api, srv := newFakeAPI(t)
			api.status, api.reply = tc.status, tc.reply
			c := newTestClient(srv.URL, "tok")

			err := c.Track(context.Background(), "EDD Sale", nil)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tc.status, apiErr.StatusCode)
		})
	}
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestTransportError(t *testing.T) {
	c := newTestClient("http://unused", "tok")
	c.SetHTTPClient(failingDoer{})
	err := c.Track(context.Background(), "EDD Sale", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
