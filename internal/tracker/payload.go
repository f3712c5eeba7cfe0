package tracker

import (
	"strings"
	"time"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductSeparator joins product titles into a single event property.
const ProductSeparator = ", "

// DistinctID is the purchaser's user id when an account exists, otherwise
// the purchaser's email.
func DistinctID(u domain.UserInfo) any {
	if u.ID > 0 {
		return u.ID
	}
	return u.Email
}

// JoinProductNames flattens titles for display. The result is lossy.
func JoinProductNames(names []string) string {
	return strings.Join(names, ProductSeparator)
}

// SaleInput is everything gathered from the host for one completed payment.
type SaleInput struct {
	User         domain.UserInfo
	IP           string
	SessionID    string
	Products     []string
	Amount       decimal.Decimal
	PurchaseDate time.Time
	ItemCount    int
}

// Sale is the assembled payload set for one completed payment.
type Sale struct {
	Profile domain.PersonProfile
	Event   domain.TrackingEvent
	Charge  domain.ChargeRecord
}

// BuildSale assembles the profile, event and charge for a completed payment.
func BuildSale(in SaleInput) Sale {
	distinct := DistinctID(in.User)

	props := map[string]any{
		"distinct_id": distinct,
		"amount":      in.Amount.InexactFloat64(),
		"products":    JoinProductNames(in.Products),
		"session_id":  in.SessionID,
		"item_count":  in.ItemCount,
	}
	if !in.PurchaseDate.IsZero() {
		props["purchase_date"] = in.PurchaseDate.Unix()
	}

	return Sale{
		Profile: domain.PersonProfile{
			DistinctID: distinct,
			IP:         in.IP,
			Email:      in.User.Email,
			FirstName:  in.User.FirstName,
			LastName:   in.User.LastName,
		},
		Event:  domain.TrackingEvent{Name: domain.EventSale, Properties: props},
		Charge: domain.ChargeRecord{DistinctID: distinct, Amount: in.Amount},
	}
}
