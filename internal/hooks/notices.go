package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/ignite/commerce-tracker/internal/host"
)

// Hook names accepted by Deliver.
const (
	HookCartAdd         = "cart.item_added"
	HookPageRender      = "page.rendered"
	HookPaymentStatus   = "payment.status_changed"
	HookGeneralSettings = "settings.general"
)

// ErrUnknownHook is returned by Deliver for unrecognised hook names.
var ErrUnknownHook = errors.New("unknown hook")

// CartAdd fires once per item added to the cart.
type CartAdd struct {
	Visit      host.Visit     `json:"visit"`
	DownloadID int64          `json:"download_id"`
	Options    map[string]any `json:"cart_options,omitempty"`
}

// PageRender fires on every page request.
type PageRender struct {
	Visit host.Visit `json:"visit"`
}

// PaymentStatus fires on every payment status write.
type PaymentStatus struct {
	Visit     host.Visit           `json:"visit"`
	PaymentID int64                `json:"payment_id"`
	NewStatus domain.PaymentStatus `json:"new_status"`
	OldStatus domain.PaymentStatus `json:"old_status"`
}

// Transition returns the status change carried by the notice.
func (p PaymentStatus) Transition() domain.PaymentStatusTransition {
	return domain.PaymentStatusTransition{
		PaymentID: p.PaymentID,
		OldStatus: p.OldStatus,
		NewStatus: p.NewStatus,
	}
}

// Known reports whether hook names an action Deliver accepts.
func Known(hook string) bool {
	switch hook {
	case HookCartAdd, HookPageRender, HookPaymentStatus:
		return true
	}
	return false
}

// Deliver decodes payload for the named action hook and dispatches it.
// The settings filter is not an action; use FilterSettings.
func Deliver(ctx context.Context, bus *Bus, hook string, payload []byte) error {
	switch hook {
	case HookCartAdd:
		var n CartAdd
		if err := decode(payload, &n); err != nil {
			return fmt.Errorf("decode %s: %w", hook, err)
		}
		bus.CartAdd.Do(ctx, n)
	case HookPageRender:
		var n PageRender
		if err := decode(payload, &n); err != nil {
			return fmt.Errorf("decode %s: %w", hook, err)
		}
		bus.PageRender.Do(ctx, n)
	case HookPaymentStatus:
		var n PaymentStatus
		if err := decode(payload, &n); err != nil {
			return fmt.Errorf("decode %s: %w", hook, err)
		}
		bus.PaymentStatus.Do(ctx, n)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHook, hook)
	}
	return nil
}

// FilterSettings decodes a settings list and returns it after the filter chain.
func FilterSettings(ctx context.Context, bus *Bus, payload []byte) ([]domain.SettingField, error) {
	var fields []domain.SettingField
	if err := decode(payload, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", HookGeneralSettings, err)
	}
	if fields == nil {
		fields = []domain.SettingField{}
	}
	return bus.GeneralSettings.Apply(ctx, fields), nil
}

func decode(payload []byte, dst any) error {
	if len(payload) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(payload, dst)
}
