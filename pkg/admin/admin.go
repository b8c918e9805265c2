// Package admin provides the /admin/* control plane used by the gateway simulator
// for state management, callback delivery and request inspection.
package admin

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/webhook"
)

// StateStore is implemented by anything whose state the admin plane manages.
type StateStore interface {
	// Snapshot returns the full state as a JSON-serializable value.
	Snapshot() any
	// LoadState replaces the full state from a JSON body.
	LoadState(data []byte) error
	// Reset clears all state and reloads seed data.
	Reset()
}

// WebhookFlusher is implemented by components holding undelivered callbacks.
type WebhookFlusher interface {
	FlushWebhooks() error
}

// DeliveryLog is optionally implemented by a WebhookFlusher to expose attempts.
type DeliveryLog interface {
	Deliveries() []webhook.Delivery
}

// Handler provides the shared admin endpoints.
type Handler struct {
	state   StateStore
	flusher WebhookFlusher
	mw      *httpcore.Middleware
	extra   []func(chi.Router)
}

// NewHandler creates a new admin handler. mw may be nil when no request log is kept.
func NewHandler(state StateStore, mw *httpcore.Middleware) *Handler {
	return &Handler{
		state: state,
		mw:    mw,
	}
}

// SetFlusher sets the webhook flusher (optional).
func (h *Handler) SetFlusher(f WebhookFlusher) {
	h.flusher = f
}

// Extend registers additional routes under /admin.
func (h *Handler) Extend(fn func(r chi.Router)) {
	h.extra = append(h.extra, fn)
}

// Routes mounts the admin endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/reset", h.handleReset)
		r.Get("/state", h.handleGetState)
		r.Post("/state", h.handleLoadState)
		r.Get("/requests", h.handleGetRequests)
		r.Post("/webhooks/flush", h.handleFlushWebhooks)
		r.Get("/webhooks", h.handleListDeliveries)
		r.Get("/health", h.handleHealth)
		for _, fn := range h.extra {
			fn(r)
		}
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.state.Reset()
	if h.mw != nil {
		h.mw.ReqLog.Clear()
	}
	httpcore.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	httpcore.JSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) handleLoadState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpcore.Error(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if err := h.state.LoadState(body); err != nil {
		httpcore.Error(w, http.StatusBadRequest, "failed to load state: "+err.Error())
		return
	}
	httpcore.JSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func (h *Handler) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	if h.mw == nil {
		httpcore.JSON(w, http.StatusOK, []httpcore.RequestLogEntry{})
		return
	}
	httpcore.JSON(w, http.StatusOK, h.mw.ReqLog.Entries())
}

func (h *Handler) handleFlushWebhooks(w http.ResponseWriter, r *http.Request) {
	if h.flusher == nil {
		httpcore.JSON(w, http.StatusOK, map[string]string{"status": "no webhooks configured"})
		return
	}
	if err := h.flusher.FlushWebhooks(); err != nil {
		httpcore.Error(w, http.StatusInternalServerError, "flush failed: "+err.Error())
		return
	}
	httpcore.JSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (h *Handler) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	dl, ok := h.flusher.(DeliveryLog)
	if !ok {
		httpcore.JSON(w, http.StatusOK, []webhook.Delivery{})
		return
	}
	httpcore.JSON(w, http.StatusOK, dl.Deliveries())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpcore.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
