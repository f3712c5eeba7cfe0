// Package host declares the collaborators the tracker needs from the host
// commerce platform.
//
// Request-scoped state (current user, session, live cart, page) arrives with
// every notification as a Visit snapshot. Historical order data is read
// through PaymentStore and ProductCatalog.
package host

import (
	"context"
	"time"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// UserContext exposes the visitor's authentication state.
type UserContext interface {
	CurrentUserID() int64
	IsLoggedIn() bool
}

// SessionProvider exposes the visitor's session and network identity.
type SessionProvider interface {
	SessionID() string
	ClientIP() string
}

// CartProvider exposes the visitor's live cart.
type CartProvider interface {
	Contents() []domain.CartItem
	Quantity() int
	Subtotal() decimal.Decimal
	ItemPrice(downloadID int64, options map[string]any) decimal.Decimal
}

// PageContext describes the page being rendered.
type PageContext interface {
	IsCheckout() bool
}

// Request bundles the request-scoped collaborators for one notification.
type Request struct {
	User    UserContext
	Session SessionProvider
	Cart    CartProvider
	Page    PageContext
}

// PaymentStore reads payment records. Implementations must not mutate host state.
type PaymentStore interface {
	UserInfo(ctx context.Context, paymentID int64) (domain.UserInfo, error)
	CartDetails(ctx context.Context, paymentID int64) ([]domain.LineItem, error)
	Amount(ctx context.Context, paymentID int64) (decimal.Decimal, error)
	PostDate(ctx context.Context, paymentID int64) (time.Time, error)
}

// ProductCatalog resolves product titles.
type ProductCatalog interface {
	Title(ctx context.Context, downloadID int64) (string, error)
}
