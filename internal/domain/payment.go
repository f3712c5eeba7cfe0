package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the host's status string for a payment record.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPublish   PaymentStatus = "publish"
	StatusPublished PaymentStatus = "published"
	StatusComplete  PaymentStatus = "complete"
	StatusRefunded  PaymentStatus = "refunded"
	StatusFailed    PaymentStatus = "failed"
	StatusRevoked   PaymentStatus = "revoked"
	StatusAbandoned PaymentStatus = "abandoned"
)

// IsCompleted reports whether the status marks a finished sale.
// The host writes "publish" for completed payments; "published" and
// "complete" are accepted as equivalents.
func (s PaymentStatus) IsCompleted() bool {
	switch s {
	case StatusPublish, StatusPublished, StatusComplete:
		return true
	default:
		return false
	}
}

// PaymentStatusTransition is delivered by the host on every payment status write.
type PaymentStatusTransition struct {
	PaymentID int64         `json:"payment_id"`
	OldStatus PaymentStatus `json:"old_status"`
	NewStatus PaymentStatus `json:"new_status"`
}

// UserInfo is the purchaser block stored in a payment's metadata.
// ID is zero or negative for guest checkouts.
type UserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LineItem is one entry of a payment's own cart snapshot.
type LineItem struct {
	DownloadID int64           `json:"id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// CartItem is one entry of the visitor's live cart.
type CartItem struct {
	DownloadID int64           `json:"id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Options    map[string]any  `json:"options,omitempty"`
}

// Payment is the read-only view of a host payment row.
type Payment struct {
	ID        int64
	User      UserInfo
	Amount    decimal.Decimal
	Status    PaymentStatus
	CreatedAt time.Time
}
