package tracker

import (
	"context"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/ignite/commerce-tracker/internal/host"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

// Analytics is the outbound surface of the analytics client.
type Analytics interface {
	Track(ctx context.Context, event string, props map[string]any) error
	UpdateProfile(ctx context.Context, distinctID any, props map[string]any) error
	TrackCharge(ctx context.Context, distinctID any, amount decimal.Decimal) error
}

// ClientFactory builds an analytics client for a resolved project token.
type ClientFactory func(token string) Analytics

// ConfigSource resolves the tracking config for one triggering call.
type ConfigSource interface {
	Resolve(ctx context.Context) domain.TrackingConfig
}

// ReleaseFunc gives up a sale claim.
type ReleaseFunc func(ctx context.Context) error

// SaleClaimer marks a payment as reported across service instances.
// Claim returns ok=false when another caller already holds the claim.
type SaleClaimer interface {
	Claim(ctx context.Context, paymentID int64) (release ReleaseFunc, ok bool, err error)
}

// Deps are the tracker's collaborators. Claims is optional.
type Deps struct {
	Config    ConfigSource
	NewClient ClientFactory
	Payments  host.PaymentStore
	Catalog   host.ProductCatalog
	Claims    SaleClaimer
}

// Tracker turns host notifications into analytics calls.
type Tracker struct {
	config    ConfigSource
	newClient ClientFactory
	payments  host.PaymentStore
	catalog   host.ProductCatalog
	claims    SaleClaimer
}

// New creates a tracker. Use Ready to check that the host integration is complete.
func New(deps Deps) *Tracker {
	return &Tracker{
		config:    deps.Config,
		newClient: deps.NewClient,
		payments:  deps.Payments,
		catalog:   deps.Catalog,
		claims:    deps.Claims,
	}
}

// Ready reports whether both the analytics client and the commerce platform
// are available.
func (t *Tracker) Ready() bool {
	return t != nil && t.config != nil && t.newClient != nil && t.payments != nil && t.catalog != nil
}

// client resolves the token and returns a client, or false when tracking is disabled.
func (t *Tracker) client(ctx context.Context) (Analytics, bool) {
	cfg := t.config.Resolve(ctx)
	if !cfg.Enabled() {
		return nil, false
	}
	return t.newClient(cfg.APIToken), true
}

// TrackAddedToCart reports an item added to the visitor's cart.
func (t *Tracker) TrackAddedToCart(ctx context.Context, req host.Request, downloadID int64, options map[string]any) {
	client, ok := t.client(ctx)
	if !ok {
		return
	}

	ip := req.Session.ClientIP()
	loggedIn := req.User.IsLoggedIn()
	if loggedIn {
		t.updateProfile(ctx, client, req.User.CurrentUserID(), domain.PersonProfile{IP: ip})
	}

	props := map[string]any{
		"ip":           ip,
		"session_id":   req.Session.SessionID(),
		"product_name": t.title(ctx, downloadID),
		"price":        req.Cart.ItemPrice(downloadID, options).InexactFloat64(),
	}
	if loggedIn {
		props["distinct_id"] = req.User.CurrentUserID()
	}
	t.track(ctx, client, domain.TrackingEvent{Name: domain.EventAddedToCart, Properties: props})
}

// TrackCheckoutLoaded reports a checkout page view. Page renders that are not
// the checkout page, or that have an empty cart, are ignored before any
// configuration is read.
func (t *Tracker) TrackCheckoutLoaded(ctx context.Context, req host.Request) {
	if !req.Page.IsCheckout() {
		return
	}
	items := req.Cart.Contents()
	if len(items) == 0 {
		return
	}

	client, ok := t.client(ctx)
	if !ok {
		return
	}

	ip := req.Session.ClientIP()
	loggedIn := req.User.IsLoggedIn()
	if loggedIn {
		t.updateProfile(ctx, client, req.User.CurrentUserID(), domain.PersonProfile{IP: ip})
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, t.title(ctx, item.DownloadID))
	}

	props := map[string]any{
		"ip":         ip,
		"session_id": req.Session.SessionID(),
		"products":   JoinProductNames(names),
		"item_count": req.Cart.Quantity(),
		"subtotal":   req.Cart.Subtotal().InexactFloat64(),
	}
	if loggedIn {
		props["distinct_id"] = req.User.CurrentUserID()
	}
	t.track(ctx, client, domain.TrackingEvent{Name: domain.EventCheckoutLoaded, Properties: props})
}

// TrackPurchase reports a sale when the transition completes the payment.
func (t *Tracker) TrackPurchase(ctx context.Context, req host.Request, tr domain.PaymentStatusTransition) {
	client, ok := t.client(ctx)
	if !ok {
		return
	}
	if !ShouldReport(tr.OldStatus, tr.NewStatus) {
		return
	}

	release, ok := t.claim(ctx, tr.PaymentID)
	if !ok {
		logger.Info("tracker: sale already claimed", "payment_id", tr.PaymentID)
		return
	}

	sale := BuildSale(t.gatherSale(ctx, req, tr.PaymentID))

	failed := 0
	if !t.updateProfile(ctx, client, sale.Profile.DistinctID, sale.Profile) {
		failed++
	}
	if !t.track(ctx, client, sale.Event) {
		failed++
	}
	if err := client.TrackCharge(ctx, sale.Charge.DistinctID, sale.Charge.Amount); err != nil {
		logger.Warn("tracker: charge failed", "payment_id", tr.PaymentID, "distinct_id", sale.Charge.DistinctID, "error", err)
		failed++
	}

	if failed == 3 {
		if release != nil {
			if err := release(ctx); err != nil {
				logger.Warn("tracker: sale claim release failed", "payment_id", tr.PaymentID, "error", err)
			}
		}
		return
	}
	logger.Info("tracker: sale reported", "payment_id", tr.PaymentID, "distinct_id", sale.Charge.DistinctID)
}

func (t *Tracker) gatherSale(ctx context.Context, req host.Request, paymentID int64) SaleInput {
	in := SaleInput{
		IP:        req.Session.ClientIP(),
		SessionID: req.Session.SessionID(),
		ItemCount: len(req.Cart.Contents()),
	}

	var err error
	if in.User, err = t.payments.UserInfo(ctx, paymentID); err != nil {
		logger.Warn("tracker: payment user info lookup failed", "payment_id", paymentID, "error", err)
	}
	if in.Amount, err = t.payments.Amount(ctx, paymentID); err != nil {
		logger.Warn("tracker: payment amount lookup failed", "payment_id", paymentID, "error", err)
	}
	if in.PurchaseDate, err = t.payments.PostDate(ctx, paymentID); err != nil {
		logger.Warn("tracker: payment date lookup failed", "payment_id", paymentID, "error", err)
	}

	items, err := t.payments.CartDetails(ctx, paymentID)
	if err != nil {
		logger.Warn("tracker: payment cart lookup failed", "payment_id", paymentID, "error", err)
	}
	in.Products = make([]string, 0, len(items))
	for _, item := range items {
		name, err := t.catalog.Title(ctx, item.DownloadID)
		if err != nil || name == "" {
			name = item.Name
		}
		in.Products = append(in.Products, name)
	}
	return in
}

func (t *Tracker) claim(ctx context.Context, paymentID int64) (ReleaseFunc, bool) {
	if t.claims == nil {
		return nil, true
	}
	release, ok, err := t.claims.Claim(ctx, paymentID)
	if err != nil {
		logger.Warn("tracker: sale claim unavailable, reporting anyway", "payment_id", paymentID, "error", err)
		return nil, true
	}
	return release, ok
}

func (t *Tracker) title(ctx context.Context, downloadID int64) string {
	name, err := t.catalog.Title(ctx, downloadID)
	if err != nil {
		logger.Warn("tracker: product title lookup failed", "download_id", downloadID, "error", err)
		return ""
	}
	return name
}

func (t *Tracker) updateProfile(ctx context.Context, client Analytics, distinctID any, p domain.PersonProfile) bool {
	if err := client.UpdateProfile(ctx, distinctID, p.Properties()); err != nil {
		logger.Warn("tracker: profile update failed", "distinct_id", distinctID, "error", err)
		return false
	}
	return true
}

func (t *Tracker) track(ctx context.Context, client Analytics, evt domain.TrackingEvent) bool {
	if err := client.Track(ctx, string(evt.Name), evt.Properties); err != nil {
		logger.Warn("tracker: event failed", "event", evt.Name, "error", err)
		return false
	}
	return true
}
