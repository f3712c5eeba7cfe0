package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusIsCompleted(t *testing.T) {
	completed := []PaymentStatus{StatusPublish, StatusPublished, StatusComplete}
	for _, s := range completed {
		assert.True(t, s.IsCompleted(), s)
	}

	open := []PaymentStatus{StatusPending, StatusRefunded, StatusFailed, StatusAbandoned, "", "Complete"}
	for _, s := range open {
		assert.False(t, s.IsCompleted(), s)
	}
}

func TestPersonProfileProperties(t *testing.T) {
	p := PersonProfile{DistinctID: int64(42), IP: "198.51.100.4", Email: "a@example.com"}
	assert.Equal(t, map[string]any{"ip": "198.51.100.4", "email": "a@example.com"}, p.Properties())

	assert.Empty(t, PersonProfile{DistinctID: "guest@example.com"}.Properties())
}

func TestTrackingConfigEnabled(t *testing.T) {
	assert.False(t, TrackingConfig{}.Enabled())
	assert.False(t, TrackingConfig{APIToken: "  \t"}.Enabled())
	assert.True(t, TrackingConfig{APIToken: " tok "}.Enabled())
}
