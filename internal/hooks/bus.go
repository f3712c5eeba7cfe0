// Package hooks is the typed event bus the host integration layer exposes.
//
// Subscribers register callbacks once at startup. Delivery is synchronous and
// runs callbacks in priority order (lower first). A panicking callback is
// recovered and logged so it never interrupts the host operation that fired
// the notification.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
)

// DefaultPriority is used by Add callers that don't care about ordering.
const DefaultPriority = 10

type entry[F any] struct {
	priority int
	fn       F
}

type registry[F any] struct {
	mu      sync.RWMutex
	entries []entry[F]
}

func (r *registry[F]) add(priority int, fn F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry[F]{priority: priority, fn: fn})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority < r.entries[j].priority
	})
}

func (r *registry[F]) snapshot() []entry[F] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry[F], len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *registry[F]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Action is a notification with no return value.
type Action[T any] struct {
	name string
	reg  registry[func(context.Context, T)]
}

// Add subscribes fn at the given priority.
func (a *Action[T]) Add(priority int, fn func(context.Context, T)) {
	a.reg.add(priority, fn)
}

// Len returns the number of subscribers.
func (a *Action[T]) Len() int { return a.reg.count() }

// Do runs every subscriber with v.
func (a *Action[T]) Do(ctx context.Context, v T) {
	for _, e := range a.reg.snapshot() {
		a.call(ctx, e, v)
	}
}

func (a *Action[T]) call(ctx context.Context, e entry[func(context.Context, T)], v T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hooks: subscriber panicked", "hook", a.name, "priority", e.priority, "panic", fmt.Sprint(r))
		}
	}()
	e.fn(ctx, v)
}

// Filter threads a value through every subscriber.
type Filter[T any] struct {
	name string
	reg  registry[func(context.Context, T) T]
}

// Add subscribes fn at the given priority.
func (f *Filter[T]) Add(priority int, fn func(context.Context, T) T) {
	f.reg.add(priority, fn)
}

// Len returns the number of subscribers.
func (f *Filter[T]) Len() int { return f.reg.count() }

// Apply passes v through each subscriber in order. A subscriber that panics
// is skipped and the value it received is carried forward.
func (f *Filter[T]) Apply(ctx context.Context, v T) T {
	for _, e := range f.reg.snapshot() {
		v = f.call(ctx, e, v)
	}
	return v
}

func (f *Filter[T]) call(ctx context.Context, e entry[func(context.Context, T) T], v T) (out T) {
	out = v
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hooks: filter panicked", "hook", f.name, "priority", e.priority, "panic", fmt.Sprint(r))
			out = v
		}
	}()
	return e.fn(ctx, v)
}

// Bus holds one typed channel per host notification.
type Bus struct {
	CartAdd         Action[CartAdd]
	PageRender      Action[PageRender]
	PaymentStatus   Action[PaymentStatus]
	GeneralSettings Filter[[]domain.SettingField]
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	b := &Bus{}
	b.CartAdd.name = HookCartAdd
	b.PageRender.name = HookPageRender
	b.PaymentStatus.name = HookPaymentStatus
	b.GeneralSettings.name = HookGeneralSettings
	return b
}
