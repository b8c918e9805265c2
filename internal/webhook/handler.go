package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewayapi"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/reconcile"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
)

// Reconciler applies a normalized event.
type Reconciler interface {
	Apply(ctx context.Context, in reconcile.Input) (reconcile.Result, error)
}

// Verifier confirms a reference against the gateways' status APIs.
type Verifier interface {
	Verify(ctx context.Context, reference string) (gatewayapi.Verification, error)
}

// Options configures a Handler. Verifier and Health are optional; their
// endpoints are not mounted when nil.
type Options struct {
	Routes   []Route
	Engine   Reconciler
	Verifier Verifier
	Health   *Health
	Logger   *slog.Logger
}

// Handler serves the webhook, verify and health endpoints.
type Handler struct {
	routes   []Route
	engine   Reconciler
	verifier Verifier
	health   *Health
	logger   *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		routes:   opts.Routes,
		engine:   opts.Engine,
		verifier: opts.Verifier,
		health:   opts.Health,
		logger:   logger,
	}
}

// Mount registers the endpoints on r.
func (h *Handler) Mount(r chi.Router) {
	for _, rt := range h.routes {
		r.Post(rt.Path(), h.Callback(rt))
	}
	if h.verifier != nil {
		r.Get("/verify", h.verify)
		r.Get("/verify/", h.verify)
		r.Get("/verify/{reference}", h.verify)
	}
	if h.health != nil {
		r.Get("/health", h.health.ServeHTTP)
	}
}

// Callback returns the handler for one gateway route.
func (h *Handler) Callback(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.logger.With("gateway", rt.Gateway)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				log.Warn("callback body too large", "limit", tooLarge.Limit)
				httpcore.JSON(w, http.StatusRequestEntityTooLarge, Response{Error: "Payload too large"})
				return
			}
			log.Error("reading callback body", "error", err)
			h.respond(w, rt, Internal, "")
			return
		}

		o, detail := h.process(r.Context(), log, rt, body, r.Header)
		h.respond(w, rt, o, detail)
	}
}

func (h *Handler) process(ctx context.Context, log *slog.Logger, rt Route, body []byte, header http.Header) (Outcome, string) {
	ev, err := rt.Parse(body)
	if err != nil {
		log.Warn("malformed callback", "error", err)
		return Malformed, ""
	}
	log = log.With("reference", ev.Reference, "event", ev.EventType, "status", ev.Status)

	if !rt.Verify(body, header) {
		log.Warn("invalid callback signature")
		return BadSignature, ""
	}
	if rt.Handles != nil && !rt.Handles(ev.EventType) {
		log.Info("event not processed")
		return Ignored, ""
	}
	if strings.TrimSpace(ev.Reference) == "" {
		log.Warn("callback carries no transaction reference")
		return Unusable, msgNoReference
	}

	if rt.CrossCheck != nil {
		cc, err := gatewayapi.CrossVerify(ctx, rt.CrossCheck, ev.Reference, ev.Status)
		switch {
		case errors.Is(err, gatewayapi.ErrMismatch):
			log.Warn("cross verification mismatch", "observed", cc.Observed)
			return Mismatch, ""
		case err != nil:
			log.Error("cross verification failed", "error", err)
			return Rejected, "Verification failed"
		}
	}

	res, err := h.engine.Apply(ctx, reconcile.Input{
		Reference: ev.Reference,
		Status:    ev.Status,
		Payment:   ev,
	})
	if err != nil {
		log.Error("webhook processing failed", "error", err)
		return Internal, ""
	}
	if !res.Success {
		if res.ValidationError != "" {
			return Rejected, res.ValidationError
		}
		return Rejected, res.Error
	}
	return Processed, ""
}

func (h *Handler) respond(w http.ResponseWriter, rt Route, o Outcome, detail string) {
	p := rt.Policy
	if p == nil {
		p = StrictPolicy{}
	}
	code, body := p.Respond(o, detail)
	httpcore.JSON(w, code, body)
}

type verifyResponse struct {
	Success   bool              `json:"success"`
	Gateway   normalize.Gateway `json:"gateway"`
	Reference string            `json:"reference"`
	Status    normalize.Status  `json:"status"`
	Amount    decimal.Decimal   `json:"amount"`
	Currency  string            `json:"currency"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(chi.URLParam(r, "reference"))
	if ref == "" {
		httpcore.JSON(w, http.StatusBadRequest, Response{Error: "Reference is required"})
		return
	}

	v, err := h.verifier.Verify(r.Context(), ref)
	switch {
	case err == nil:
		httpcore.JSON(w, http.StatusOK, verifyResponse{
			Success:   true,
			Gateway:   v.Gateway,
			Reference: ref,
			Status:    v.Status,
			Amount:    v.Amount,
			Currency:  v.Currency,
		})
	case errors.Is(err, gatewayapi.ErrNotFound):
		httpcore.JSON(w, http.StatusNotFound, Response{Error: "Transaction not found on any gateway"})
	default:
		h.logger.Error("verify failed", "reference", ref, "error", err)
		httpcore.JSON(w, http.StatusInternalServerError, Response{Error: "Verification failed"})
	}
}
