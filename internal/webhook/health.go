package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewayapi"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/kv"
)

// GatewayHealth is the probe result for one gateway.
type GatewayHealth struct {
	Configured bool   `json:"configured"`
	Tested     bool   `json:"tested"`
	Working    bool   `json:"working"`
	Error      string `json:"error,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Report is the body of GET /health.
type Report struct {
	Status    string                   `json:"status"`
	Database  string                   `json:"database,omitempty"`
	Gateways  map[string]GatewayHealth `json:"gateways"`
	CheckedAt time.Time                `json:"checkedAt"`
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthOptions configures a Health checker.
type HealthOptions struct {
	Queriers []gatewayapi.Querier
	// Production skips probes that would touch live OPay state.
	Production bool
	DB         Pinger
	// Cache holds the last report for TTL. A nil Cache gets an in-memory store.
	Cache  kv.Store[Report]
	TTL    time.Duration
	Logger *slog.Logger
}

// Health probes every gateway and caches the report.
type Health struct {
	opts HealthOptions
	now  func() time.Time
}

const reportKey = "health"

func NewHealth(opts HealthOptions) *Health {
	if opts.Cache == nil {
		opts.Cache = kv.NewMemory[Report]("health")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Health{opts: opts, now: time.Now}
}

// Check returns the cached report, probing again once it expires.
func (h *Health) Check(ctx context.Context) Report {
	if r, ok := h.opts.Cache.Get(reportKey); ok {
		return r
	}
	r := h.probe(ctx)
	if h.opts.TTL > 0 {
		h.opts.Cache.Set(reportKey, r, h.opts.TTL)
	}
	return r
}

// Invalidate drops the cached report.
func (h *Health) Invalidate() {
	h.opts.Cache.Expire(reportKey)
}

func (h *Health) probe(ctx context.Context) Report {
	r := Report{
		Status:    "ok",
		Gateways:  make(map[string]GatewayHealth, len(h.opts.Queriers)),
		CheckedAt: h.now().UTC(),
	}
	for _, q := range h.opts.Queriers {
		gh := h.probeOne(ctx, q)
		if gh.Tested && !gh.Working {
			r.Status = "degraded"
		}
		r.Gateways[q.Gateway().Slug()] = gh
	}
	if h.opts.DB != nil {
		r.Database = "ok"
		if err := h.opts.DB.Ping(ctx); err != nil {
			h.opts.Logger.Error("database ping failed", "error", err)
			r.Database = "unreachable"
			r.Status = "unavailable"
		}
	}
	return r
}

func (h *Health) probeOne(ctx context.Context, q gatewayapi.Querier) GatewayHealth {
	gh := GatewayHealth{Configured: q.Configured()}
	if !gh.Configured {
		gh.Note = "credentials not configured"
		return gh
	}
	if h.opts.Production && q.Gateway() == normalize.OPay {
		gh.Note = "probe skipped in production"
		return gh
	}
	gh.Tested = true
	if err := q.Probe(ctx); err != nil {
		h.opts.Logger.Warn("gateway probe failed", "gateway", q.Gateway(), "error", err)
		gh.Error = err.Error()
		return gh
	}
	gh.Working = true
	return gh
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep := h.Check(r.Context())
	code := http.StatusOK
	if rep.Status == "unavailable" {
		code = http.StatusServiceUnavailable
	}
	httpcore.JSON(w, code, rep)
}
