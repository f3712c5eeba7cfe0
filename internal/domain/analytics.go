package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EventName enumerates the analytics events emitted by the tracker.
type EventName string

const (
	EventAddedToCart    EventName = "EDD Added to Cart"
	EventCheckoutLoaded EventName = "EDD Checkout Loaded"
	EventSale           EventName = "EDD Sale"
)

// TrackingEvent is a single named analytics event.
type TrackingEvent struct {
	Name       EventName      `json:"event"`
	Properties map[string]any `json:"properties"`
}

// PersonProfile is the profile upsert sent alongside events.
// DistinctID is an int64 user id or, for guests, an email string.
type PersonProfile struct {
	DistinctID any    `json:"distinct_id"`
	IP         string `json:"ip"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
}

// Properties returns the profile fields to set, skipping empty ones.
func (p PersonProfile) Properties() map[string]any {
	props := map[string]any{}
	if p.IP != "" {
		props["ip"] = p.IP
	}
	if p.Email != "" {
		props["email"] = p.Email
	}
	if p.FirstName != "" {
		props["first_name"] = p.FirstName
	}
	if p.LastName != "" {
		props["last_name"] = p.LastName
	}
	return props
}

// ChargeRecord is a revenue entry attached to a profile.
type ChargeRecord struct {
	DistinctID any             `json:"distinct_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// TrackingConfig is the resolved tracker configuration for one triggering call.
type TrackingConfig struct {
	APIToken string
}

// Enabled is true iff the token is non-empty after trimming whitespace.
func (c TrackingConfig) Enabled() bool {
	return strings.TrimSpace(c.APIToken) != ""
}

// SettingField is one entry on the host's general settings page.
type SettingField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
	Type string `json:"type"`
	Size string `json:"size"`
}
