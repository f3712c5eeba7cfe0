package tracker

import (
	"context"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/ignite/commerce-tracker/internal/hooks"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
	"github.com/ignite/commerce-tracker/internal/settings"
)

// SettingsPriority adds the tracker's settings ahead of later extensions.
const SettingsPriority = 1

// Register subscribes t to the bus. When the analytics client or the commerce
// platform is unavailable nothing is registered and Register returns false.
func Register(bus *hooks.Bus, t *Tracker) bool {
	if bus == nil || !t.Ready() {
		logger.Warn("tracker: analytics client or commerce platform unavailable, not registering")
		return false
	}

	bus.PageRender.Add(hooks.DefaultPriority, func(ctx context.Context, n hooks.PageRender) {
		t.TrackCheckoutLoaded(ctx, n.Visit.Request())
	})
	bus.CartAdd.Add(hooks.DefaultPriority, func(ctx context.Context, n hooks.CartAdd) {
		t.TrackAddedToCart(ctx, n.Visit.Request(), n.DownloadID, n.Options)
	})
	bus.PaymentStatus.Add(PaymentReportPriority, func(ctx context.Context, n hooks.PaymentStatus) {
		t.TrackPurchase(ctx, n.Visit.Request(), n.Transition())
	})
	bus.GeneralSettings.Add(SettingsPriority, func(_ context.Context, fields []domain.SettingField) []domain.SettingField {
		return settings.Fields(fields)
	})
	return true
}
