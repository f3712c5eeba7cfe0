package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/ignite/commerce-tracker/internal/settings"
	"github.com/shopspring/decimal"
)

type call struct {
	kind       string
	event      string
	distinctID any
	props      map[string]any
	amount     decimal.Decimal
}

// recordingClient captures analytics calls in order.
type recordingClient struct {
	mu    sync.Mutex
	calls []call
	err   error
	token string
}

func (c *recordingClient) Track(_ context.Context, event string, props map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{kind: "track", event: event, props: props})
	return c.err
}

func (c *recordingClient) UpdateProfile(_ context.Context, distinctID any, props map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{kind: "profile", distinctID: distinctID, props: props})
	return c.err
}

func (c *recordingClient) TrackCharge(_ context.Context, distinctID any, amount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{kind: "charge", distinctID: distinctID, amount: amount})
	return c.err
}

func (c *recordingClient) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	for i, cl := range c.calls {
		out[i] = cl.kind
	}
	return out
}

type mockPayments struct {
	users   map[int64]domain.UserInfo
	items   map[int64][]domain.LineItem
	amounts map[int64]decimal.Decimal
	dates   map[int64]time.Time
	fail    bool
}

func (m *mockPayments) UserInfo(_ context.Context, id int64) (domain.UserInfo, error) {
	if m.fail {
		return domain.UserInfo{}, errors.New("db down")
	}
	return m.users[id], nil
}

func (m *mockPayments) CartDetails(_ context.Context, id int64) ([]domain.LineItem, error) {
	if m.fail {
		return nil, errors.New("db down")
	}
	return m.items[id], nil
}

func (m *mockPayments) Amount(_ context.Context, id int64) (decimal.Decimal, error) {
	if m.fail {
		return decimal.Zero, errors.New("db down")
	}
	return m.amounts[id], nil
}

func (m *mockPayments) PostDate(_ context.Context, id int64) (time.Time, error) {
	if m.fail {
		return time.Time{}, errors.New("db down")
	}
	return m.dates[id], nil
}

type mockCatalog map[int64]string

func (m mockCatalog) Title(_ context.Context, id int64) (string, error) {
	title, ok := m[id]
	if !ok {
		return "", fmt.Errorf("download %d not found", id)
	}
	return title, nil
}

type memoryClaims struct {
	mu       sync.Mutex
	held     map[int64]bool
	released []int64
	err      error
}

func (m *memoryClaims) Claim(_ context.Context, id int64) (ReleaseFunc, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[int64]bool{}
	}
	if m.held[id] {
		return nil, false, nil
	}
	m.held[id] = true
	release := func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, id)
		m.released = append(m.released, id)
		return nil
	}
	return release, true, nil
}

const testToken = "proj-token"

type harness struct {
	tracker  *Tracker
	client   *recordingClient
	store    settings.StaticStore
	payments *mockPayments
	claims   *memoryClaims
	factory  int
}

func newHarness() *harness {
	h := &harness{
		client: &recordingClient{},
		store:  settings.StaticStore{settings.TokenKey: testToken},
		payments: &mockPayments{
			users: map[int64]domain.UserInfo{
				501: {ID: 42, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
				502: {ID: 0, Email: "guest@example.com", FirstName: "Gus"},
			},
			items: map[int64][]domain.LineItem{
				501: {{DownloadID: 1, Name: "stored book"}, {DownloadID: 2, Name: "stored pen"}},
				502: {{DownloadID: 3, Name: "Retired Sticker"}},
			},
			amounts: map[int64]decimal.Decimal{
				501: decimal.RequireFromString("29.90"),
				502: decimal.RequireFromString("5.00"),
			},
			dates: map[int64]time.Time{
				501: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
	h.tracker = New(Deps{
		Config: settings.NewResolver(h.store),
		NewClient: func(token string) Analytics {
			h.factory++
			h.client.token = token
			return h.client
		},
		Payments: h.payments,
		Catalog:  mockCatalog{1: "Book", 2: "Pen"},
	})
	return h
}

func (h *harness) withClaims() *harness {
	h.claims = &memoryClaims{}
	h.tracker.claims = h.claims
	return h
}
