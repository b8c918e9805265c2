package gatewaysim

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/admin"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/webhook"
)

// Secrets are the credentials the simulated gateways expect and sign with.
type Secrets struct {
	FlutterwaveKey  string `yaml:"flutterwave_key"`
	FlutterwaveHash string `yaml:"flutterwave_hash"`
	PaystackKey     string `yaml:"paystack_key"`
	OPayKey         string `yaml:"opay_key"`
	OPayMerchantID  string `yaml:"opay_merchant_id"`
}

// Config configures a Simulator.
type Config struct {
	Secrets Secrets
	// WebhookURL is the base URL of the reconciliation service. Callbacks go to
	// WebhookURL + /webhook/{gateway}.
	WebhookURL  string
	AutoDeliver bool
	Seeds       []Transaction
	Logger      *slog.Logger
	HTTPClient  *http.Client
	RetryDelay  time.Duration
}

// Simulator serves the three gateway APIs from one ledger.
type Simulator struct {
	cfg        Config
	ledger     *Ledger
	dispatcher *webhook.Dispatcher
	logger     *slog.Logger
}

func New(cfg Config) (*Simulator, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ledger, err := NewLedger(cfg.Seeds)
	if err != nil {
		return nil, err
	}

	secrets := map[string]string{
		normalize.Flutterwave.Slug(): cfg.Secrets.FlutterwaveHash,
		normalize.Paystack.Slug():    cfg.Secrets.PaystackKey,
		normalize.OPay.Slug():        cfg.Secrets.OPayKey,
	}
	endpoints := make(map[string]webhook.Endpoint, len(secrets))
	for slug, signer := range Signers() {
		endpoints[slug] = webhook.Endpoint{Path: "/webhook/" + slug, Signer: signer, Secret: secrets[slug]}
	}

	d := webhook.NewDispatcher(webhook.Config{
		URL:         cfg.WebhookURL,
		Endpoints:   endpoints,
		Logger:      cfg.Logger,
		EventPrefix: "cb",
		AutoDeliver: cfg.AutoDeliver,
		HTTPClient:  cfg.HTTPClient,
		RetryDelay:  cfg.RetryDelay,
	})
	return &Simulator{cfg: cfg, ledger: ledger, dispatcher: d, logger: cfg.Logger}, nil
}

// Ledger exposes the transaction store.
func (s *Simulator) Ledger() *Ledger { return s.ledger }

// Dispatcher exposes the callback queue.
func (s *Simulator) Dispatcher() *webhook.Dispatcher { return s.dispatcher }

// Notify queues the callback a gateway would send for tx. An empty event picks the
// usual one for its status.
func (s *Simulator) Notify(tx Transaction, event string) (webhook.Event, error) {
	if event == "" {
		event = EventType(tx)
	}
	body, err := CallbackBody(tx, event)
	if err != nil {
		return webhook.Event{}, err
	}
	evt := s.dispatcher.Enqueue(tx.Gateway, event, body)
	s.logger.Info("callback queued", "event_id", evt.ID, "gateway", tx.Gateway, "reference", tx.Reference, "event", event)
	return evt, nil
}

// Snapshot implements admin.StateStore.
func (s *Simulator) Snapshot() any {
	return map[string]any{
		"transactions": s.ledger.Snapshot(),
		"queued":       s.dispatcher.QueuedEvents(),
	}
}

// LoadState implements admin.StateStore.
func (s *Simulator) LoadState(data []byte) error {
	return s.ledger.LoadState(data)
}

// Reset implements admin.StateStore.
func (s *Simulator) Reset() {
	s.ledger.Reset()
	s.dispatcher.Reset()
}

// Admin builds the /admin control plane, including the transaction seeding routes.
func (s *Simulator) Admin(mw *httpcore.Middleware) *admin.Handler {
	h := admin.NewHandler(s, mw)
	h.SetFlusher(s.dispatcher)
	h.Extend(func(r chi.Router) {
		r.Post("/transactions", s.handleSeed)
		r.Get("/transactions", s.handleList)
		r.Post("/transactions/{gateway}/{reference}/notify", s.handleNotify)
	})
	return h
}

// Mount registers the gateway APIs and the admin plane on r.
func (s *Simulator) Mount(r chi.Router, mw *httpcore.Middleware) {
	s.Routes(r)
	s.Admin(mw).Routes(r)
}

type seedRequest struct {
	Transaction
	// Notify queues the matching callback after storing the transaction.
	Notify bool   `json:"notify"`
	Event  string `json:"event"`
}

// POST /admin/transactions
func (s *Simulator) handleSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpcore.Error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	tx, err := s.ledger.Put(req.Transaction)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	resp := map[string]any{"transaction": tx}
	if req.Notify || req.Event != "" {
		evt, err := s.Notify(tx, req.Event)
		if err != nil {
			httpcore.Error(w, http.StatusInternalServerError, "queue callback: "+err.Error())
			return
		}
		resp["event"] = evt
	}
	httpcore.JSON(w, http.StatusCreated, resp)
}

// GET /admin/transactions?gateway=
func (s *Simulator) handleList(w http.ResponseWriter, r *http.Request) {
	var out []Transaction
	for _, g := range normalize.Gateways {
		if q := r.URL.Query().Get("gateway"); q != "" && q != g.Slug() {
			continue
		}
		out = append(out, s.ledger.List(g)...)
	}
	if out == nil {
		out = []Transaction{}
	}
	httpcore.JSON(w, http.StatusOK, out)
}

// POST /admin/transactions/{gateway}/{reference}/notify?event=
func (s *Simulator) handleNotify(w http.ResponseWriter, r *http.Request) {
	probe := Transaction{Gateway: chi.URLParam(r, "gateway")}
	g, err := probe.gateway()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	tx, ok := s.ledger.Get(g, chi.URLParam(r, "reference"))
	if !ok {
		httpcore.Error(w, http.StatusNotFound, fmt.Sprintf("no %s transaction %q", g.Slug(), chi.URLParam(r, "reference")))
		return
	}
	evt, err := s.Notify(tx, r.URL.Query().Get("event"))
	if err != nil {
		httpcore.Error(w, http.StatusInternalServerError, "queue callback: "+err.Error())
		return
	}
	httpcore.JSON(w, http.StatusAccepted, evt)
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownGateway), errors.Is(err, ErrNoReference):
		httpcore.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpcore.Error(w, http.StatusInternalServerError, err.Error())
	}
}
