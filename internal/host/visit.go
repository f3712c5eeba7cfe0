package host

import (
	"reflect"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// Visit is the request snapshot the host attaches to each notification.
// The zero value is a logged-out visitor with an empty cart off the checkout page.
type Visit struct {
	UserID       int64             `json:"user_id"`
	LoggedIn     bool              `json:"logged_in"`
	IP           string            `json:"ip"`
	Session      string            `json:"session_id"`
	Checkout     bool              `json:"is_checkout"`
	Cart         []domain.CartItem `json:"cart"`
	CartQuantity *int              `json:"cart_quantity,omitempty"`
	CartSubtotal *decimal.Decimal  `json:"cart_subtotal,omitempty"`
}

// Request returns the visit as a set of collaborators.
func (v *Visit) Request() Request {
	return Request{User: v, Session: v, Cart: v, Page: v}
}

func (v *Visit) CurrentUserID() int64 {
	if !v.LoggedIn {
		return 0
	}
	return v.UserID
}

func (v *Visit) IsLoggedIn() bool { return v.LoggedIn && v.UserID > 0 }

func (v *Visit) SessionID() string { return v.Session }

func (v *Visit) ClientIP() string { return v.IP }

func (v *Visit) IsCheckout() bool { return v.Checkout }

func (v *Visit) Contents() []domain.CartItem { return v.Cart }

// Quantity returns the host-reported quantity, or the summed item quantities
// when the host left it out. Items without a quantity count once.
func (v *Visit) Quantity() int {
	if v.CartQuantity != nil {
		return *v.CartQuantity
	}
	n := 0
	for _, item := range v.Cart {
		if item.Quantity > 0 {
			n += item.Quantity
		} else {
			n++
		}
	}
	return n
}

// Subtotal returns the host-reported subtotal, or price*quantity summed over the cart.
func (v *Visit) Subtotal() decimal.Decimal {
	if v.CartSubtotal != nil {
		return *v.CartSubtotal
	}
	total := decimal.Zero
	for _, item := range v.Cart {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// ItemPrice returns the price of the cart entry matching the download and
// options. An entry with matching download but different options is used
// only when no exact match exists.
func (v *Visit) ItemPrice(downloadID int64, options map[string]any) decimal.Decimal {
	var fallback *domain.CartItem
	for i := range v.Cart {
		item := &v.Cart[i]
		if item.DownloadID != downloadID {
			continue
		}
		if sameOptions(item.Options, options) {
			return item.Price
		}
		if fallback == nil {
			fallback = item
		}
	}
	if fallback != nil {
		return fallback.Price
	}
	return decimal.Zero
}

func sameOptions(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
