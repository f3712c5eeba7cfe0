// Package webhook receives host notifications over HTTP and dispatches them
// on the hook bus.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/commerce-tracker/internal/hooks"
	"github.com/ignite/commerce-tracker/internal/pkg/httputil"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
)

// maxBody caps a single notification payload.
const maxBody = 1 << 20

// Forwarder hands an action notification to another process for dispatch.
type Forwarder interface {
	Publish(ctx context.Context, hook string, payload []byte) error
}

type Handler struct {
	bus            *hooks.Bus
	allowedOrigins []string
	forwarder      Forwarder
}

func NewHandler(bus *hooks.Bus, allowedOrigins []string) *Handler {
	return &Handler{bus: bus, allowedOrigins: allowedOrigins}
}

// SetForwarder makes HandleHook enqueue actions instead of dispatching them
// in the request.
func (h *Handler) SetForwarder(f Forwarder) {
	h.forwarder = f
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(h.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.allowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Get("/health", h.HandleHealth)
	r.Post("/hooks/settings/general", h.HandleSettings)
	r.Post("/hooks/{hook}", h.HandleHook)
	return r
}

// HandleHook accepts an action notification. Tracking outcomes are never
// reported back: once the payload decodes, the host gets 202.
func (h *Handler) HandleHook(w http.ResponseWriter, r *http.Request) {
	hook := chi.URLParam(r, "hook")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		httputil.BadRequest(w, "unreadable body")
		return
	}

	if h.forwarder != nil {
		h.forward(w, r, hook, body)
		return
	}

	if err := hooks.Deliver(r.Context(), h.bus, hook, body); err != nil {
		if errors.Is(err, hooks.ErrUnknownHook) {
			httputil.NotFound(w, err.Error())
			return
		}
		logger.Warn("webhook: rejected notification", "hook", hook, "error", err)
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, hook string, body []byte) {
	if !hooks.Known(hook) {
		httputil.NotFound(w, "unknown hook: "+hook)
		return
	}
	if !json.Valid(body) {
		httputil.BadRequest(w, "invalid JSON payload")
		return
	}
	if err := h.forwarder.Publish(r.Context(), hook, body); err != nil {
		logger.Error("webhook: forward failed", "hook", hook, "error", err)
		httputil.Error(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}
	httputil.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// HandleSettings runs the host's general settings list through the filter chain.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		httputil.BadRequest(w, "unreadable body")
		return
	}
	fields, err := hooks.FilterSettings(r.Context(), h.bus, body)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, fields)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}
