package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewayapi"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/guard"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/inventory"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/reconcile"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store/storetest"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/webhook"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/testutil"
)

const (
	flwHash    = "flw-secret-hash"
	paystackSK = "sk_test_paystack"
	opaySK     = "OPAYPRV_TEST"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type guardCall struct {
	reference string
	status    normalize.Status
	event     normalize.Event
}

// recordingGuard records every call before delegating.
type recordingGuard struct {
	inner reconcile.Validator
	mu    sync.Mutex
	calls []guardCall
}

func (g *recordingGuard) Validate(ctx context.Context, ref string, status normalize.Status, ev normalize.Event) (guard.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, guardCall{ref, status, ev})
	g.mu.Unlock()
	return g.inner.Validate(ctx, ref, status, ev)
}

func (g *recordingGuard) Calls() []guardCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]guardCall(nil), g.calls...)
}

type stubQuerier struct {
	gateway    normalize.Gateway
	configured bool
	status     normalize.Status
	err        error
	probes     int
}

func (s *stubQuerier) Gateway() normalize.Gateway { return s.gateway }
func (s *stubQuerier) Configured() bool           { return s.configured }
func (s *stubQuerier) Verify(context.Context, string) (gatewayapi.Verification, error) {
	return gatewayapi.Verification{Gateway: s.gateway, Status: s.status}, s.err
}
func (s *stubQuerier) Probe(context.Context) error {
	s.probes++
	return s.err
}

type failingEngine struct{}

func (failingEngine) Apply(context.Context, reconcile.Input) (reconcile.Result, error) {
	return reconcile.Result{}, errors.New("database is locked")
}

type setup struct {
	mode       signature.Mode
	crossCheck gatewayapi.Querier
	engine     webhook.Reconciler
	verifier   webhook.Verifier
	maxBody    int64
}

type harness struct {
	store  *store.Store
	guard  *recordingGuard
	client *testutil.Client
}

func newHarness(t *testing.T, cfg setup) *harness {
	t.Helper()
	s := storetest.New(t)
	g := &recordingGuard{inner: guard.New(s)}

	var engine webhook.Reconciler = reconcile.New(s, g, inventory.New(s), quiet)
	if cfg.engine != nil {
		engine = cfg.engine
	}

	routes := webhook.Routes(webhook.RouteConfig{
		Mode:           cfg.mode,
		Secrets:        webhook.Secrets{Flutterwave: flwHash, Paystack: paystackSK, OPay: opaySK},
		Normalize:      normalize.DefaultConfig(),
		OPayCrossCheck: cfg.crossCheck,
	})
	h := webhook.New(webhook.Options{
		Routes:   routes,
		Engine:   engine,
		Verifier: cfg.verifier,
		Health:   webhook.NewHealth(webhook.HealthOptions{DB: s, Logger: quiet}),
		Logger:   quiet,
	})

	srv := httpcore.New(&httpcore.Config{Name: "payrecon-test", MaxBodyBytes: cfg.maxBody}, quiet)
	h.Mount(srv.Router)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &harness{store: s, guard: g, client: testutil.NewClient(t, ts)}
}

func paystackBody(event, ref, status string, kobo int64, email string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"id":4099260516,"reference":%q,"amount":%d,"currency":"NGN","status":%q,"channel":"card","paid_at":"2024-05-01T10:00:00Z","customer":{"email":%q,"first_name":"Ada","last_name":"Obi"}}}`,
		event, ref, kobo, status, email))
}

func (h *harness) postPaystack(body []byte) *testutil.Response {
	return h.client.PostRaw("/webhook/paystack", body, map[string]string{
		signature.PaystackHeader: signature.SignPaystack(body, paystackSK),
	})
}

func flutterwaveBody(event, ref, status, amount string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"id":285959875,"tx_ref":%q,"flw_ref":"FLW-MOCK-1","amount":%s,"currency":"NGN","status":%q,"payment_type":"card","created_at":"2024-05-01T10:00:00.000Z","customer":{"email":"ada@example.com","name":"Ada Obi"}}}`,
		event, ref, amount, status))
}

func (h *harness) postFlutterwave(t *testing.T, body []byte) *testutil.Response {
	t.Helper()
	sig, err := signature.SignFlutterwave(body, flwHash)
	require.NoError(t, err)
	return h.client.PostRaw("/webhook/flutterwave", body, map[string]string{signature.FlutterwaveHeader: sig})
}

func opayBody(t *testing.T, ref, status string, kobo int64, secret string) []byte {
	t.Helper()
	p := normalize.OPayPayload{
		Amount:        normalize.NewOPayAmount(decimal.NewFromInt(kobo)),
		Channel:       "Web",
		Country:       "NG",
		Currency:      "NGN",
		Reference:     ref,
		Status:        status,
		Timestamp:     "2024-05-01T10:00:00Z",
		Token:         "220524130407",
		TransactionID: "220524130407000001",
	}
	cb := normalize.OPayCallback{
		Payload: p,
		SHA512:  signature.SignOPay(p.SignatureFields(), secret),
		Type:    normalize.OPayTransactionStatus,
	}
	body, err := json.Marshal(cb)
	require.NoError(t, err)
	return body
}

func (h *harness) postOPay(body []byte) *testutil.Response {
	return h.client.PostRaw("/webhook/opay", body, nil)
}

func (h *harness) order(t *testing.T, id string) *store.Order {
	t.Helper()
	o, err := h.store.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (h *harness) payments(t *testing.T, orderID string) []store.Payment {
	t.Helper()
	ps, err := h.store.ListPaymentsByOrder(context.Background(), orderID)
	require.NoError(t, err)
	return ps
}

func (h *harness) tracking(t *testing.T, orderID string) []store.OrderTracking {
	t.Helper()
	tr, err := h.store.ListTracking(context.Background(), orderID)
	require.NoError(t, err)
	return tr
}

func TestPaystackChargeSuccessEndToEnd(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	fx := storetest.SeedOrder(t, h.store, "O-001", "100")

	resp := h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "O-001", "success", 10000, "o-001@example.com"))
	resp.AssertStatus(http.StatusOK)
	assert.Equal(t, map[string]any{"success": true, "message": "Webhook processed"}, resp.JSONMap())

	assert.Equal(t, store.PaymentCompleted, h.order(t, fx.Order.ID).PaymentStatus)

	ps := h.payments(t, fx.Order.ID)
	require.Len(t, ps, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(ps[0].Amount), "amount %s", ps[0].Amount)
	assert.Equal(t, "PAYSTACK", ps[0].Method)

	tr := h.tracking(t, fx.Order.ID)
	require.Len(t, tr, 1)
	assert.Equal(t, store.OrderProcessing, tr[0].Status)

	calls := h.guard.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, normalize.Paystack, calls[0].event.Gateway)
	assert.Equal(t, "PAYSTACK", string(calls[0].event.Gateway))
	assert.True(t, decimal.NewFromInt(100).Equal(calls[0].event.Amount))
}

func TestReplayedSuccessIsIdempotent(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	product := storetest.SeedProduct(t, h.store, "paracetamol", 10)
	fx := storetest.SeedOrder(t, h.store, "O-002", "100", store.OrderItem{
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(50),
	})
	body := paystackBody(normalize.PaystackChargeSuccess, "O-002", "success", 10000, "o-002@example.com")

	h.postPaystack(body).AssertStatus(http.StatusOK)
	h.postPaystack(body).AssertStatus(http.StatusOK).AssertBodyContains("Webhook processed")

	assert.Len(t, h.tracking(t, fx.Order.ID), 1)
	ps := h.payments(t, fx.Order.ID)
	require.Len(t, ps, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(ps[0].Amount))

	moves, err := h.store.ListMovements(context.Background(), fx.Order.ID, store.MovementOut)
	require.NoError(t, err)
	assert.Len(t, moves, 1)

	p, err := h.store.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity)
}

func TestStrictGatewaysRejectBadSignatures(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	fx := storetest.SeedOrder(t, h.store, "O-003", "100")

	ps := paystackBody(normalize.PaystackChargeSuccess, "O-003", "success", 10000, "")
	h.client.PostRaw("/webhook/paystack", ps, map[string]string{
		signature.PaystackHeader: signature.SignPaystack(ps, "sk_wrong"),
	}).AssertStatus(http.StatusBadRequest).AssertBodyContains("Invalid signature")

	h.client.PostRaw("/webhook/paystack", ps, nil).AssertStatus(http.StatusBadRequest)

	fw := flutterwaveBody(normalize.FlutterwaveChargeCompleted, "O-003", "successful", "100")
	h.client.PostRaw("/webhook/flutterwave", fw, map[string]string{
		signature.FlutterwaveHeader: "not-the-hash",
	}).AssertStatus(http.StatusBadRequest).AssertBodyContains("Invalid signature")

	assert.Equal(t, store.PaymentPending, h.order(t, fx.Order.ID).PaymentStatus)
	assert.Empty(t, h.payments(t, fx.Order.ID))
	assert.Empty(t, h.guard.Calls(), "nothing runs before authentication")
}

// Bypass is a development convenience. These requests carry no signature at all.
func TestBypassModeAcceptsUnsignedCallbacks(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Bypass})
	fx := storetest.SeedOrder(t, h.store, "O-004", "100")

	h.client.PostRaw("/webhook/paystack",
		paystackBody(normalize.PaystackChargeSuccess, "O-004", "success", 10000, ""), nil,
	).AssertStatus(http.StatusOK)
	assert.Equal(t, store.PaymentCompleted, h.order(t, fx.Order.ID).PaymentStatus)

	body := paystackBody(normalize.PaystackChargeSuccess, "O-004", "success", 10000, "")
	h.client.PostRaw("/webhook/paystack", body, map[string]string{
		signature.PaystackHeader: signature.SignPaystack(body, "sk_wrong"),
	}).AssertStatus(http.StatusBadRequest)
}

func TestUnhandledEventsAreAcknowledged(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	fx := storetest.SeedOrder(t, h.store, "O-005", "100")

	h.postPaystack(paystackBody("transfer.success", "O-005", "success", 10000, "")).
		AssertStatus(http.StatusOK).
		AssertBodyContains("Event not processed")
	h.postFlutterwave(t, flutterwaveBody("transfer.completed", "O-005", "successful", "100")).
		AssertStatus(http.StatusOK).
		AssertBodyContains("Event not processed")

	assert.Equal(t, store.PaymentPending, h.order(t, fx.Order.ID).PaymentStatus)
	assert.Empty(t, h.payments(t, fx.Order.ID))
}

func TestMalformedJSONReturnsGenericError(t *testing.T) {
	for _, gw := range []string{"flutterwave", "paystack", "opay"} {
		t.Run(gw, func(t *testing.T) {
			h := newHarness(t, setup{mode: signature.Bypass})
			resp := h.client.PostRaw("/webhook/"+gw, []byte(`{"event": "charge.success", "data": `), nil)
			resp.AssertStatus(http.StatusInternalServerError)
			assert.Equal(t, map[string]any{"success": false, "error": "Webhook processing failed"}, resp.JSONMap())
			resp.AssertBodyNotContains("unexpected")

			orphans, err := h.store.ListOrphanPayments(context.Background())
			require.NoError(t, err)
			assert.Empty(t, orphans)
		})
	}
}

func TestAmountMismatchSurfacesValidationError(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	fx := storetest.SeedOrder(t, h.store, "O-006", "100")

	h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "O-006", "success", 5000, "")).
		AssertStatus(http.StatusInternalServerError).
		AssertBodyContains("amount mismatch")

	assert.Equal(t, store.PaymentPending, h.order(t, fx.Order.ID).PaymentStatus)
	assert.Empty(t, h.payments(t, fx.Order.ID))
}

func TestMissingReference(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "", "success", 5000, "")).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("Missing transaction reference")

	h.postOPay(opayBody(t, "", "SUCCESS", 5000, opaySK)).
		AssertStatus(http.StatusOK).
		AssertBodyContains(`"success":false`)
}

func TestOrphanFallback(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	c := storetest.SeedCustomer(t, h.store, "walkin@example.com")

	h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "NO-ORDER-1", "success", 2500, "walkin@example.com")).
		AssertStatus(http.StatusOK)

	orphans, err := h.store.ListOrphanPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Nil(t, orphans[0].OrderID)
	assert.Equal(t, c.ID, orphans[0].CustomerID)
	assert.True(t, decimal.NewFromInt(25).Equal(orphans[0].Amount))

	h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "NO-ORDER-2", "success", 2500, "stranger@example.com")).
		AssertStatus(http.StatusInternalServerError).
		AssertBodyContains(reconcile.ErrUnresolvable.Error())

	h.postOPay(opayBody(t, "NO-ORDER-3", "SUCCESS", 2500, opaySK)).
		AssertStatus(http.StatusOK).
		AssertBodyContains(`"success":false`)
}

func TestFlutterwaveChargeCompleted(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	fx := storetest.SeedOrder(t, h.store, "O-007", "2500.50")

	h.postFlutterwave(t, flutterwaveBody(normalize.FlutterwaveChargeCompleted, "O-007", "successful", "2500.5")).
		AssertStatus(http.StatusOK).
		AssertBodyContains("Webhook processed")

	o := h.order(t, fx.Order.ID)
	assert.Equal(t, store.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, "FLUTTERWAVE", o.PaymentMethod)

	ps := h.payments(t, fx.Order.ID)
	require.Len(t, ps, 1)
	assert.Equal(t, "FLW-MOCK-1", ps[0].GatewayReference)
}

func TestPaystackFailureThenRefund(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce})
	fx := storetest.SeedOrder(t, h.store, "O-008", "100")

	h.postPaystack(paystackBody(normalize.PaystackChargeFailed, "O-008", "failed", 10000, "")).AssertStatus(http.StatusOK)
	assert.Equal(t, store.PaymentFailed, h.order(t, fx.Order.ID).PaymentStatus)

	h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "O-008", "success", 10000, "")).AssertStatus(http.StatusOK)
	h.postPaystack(paystackBody(normalize.PaystackRefundProcessed, "O-008", "processed", 10000, "")).AssertStatus(http.StatusOK)
	assert.Equal(t, store.PaymentRefunded, h.order(t, fx.Order.ID).PaymentStatus)

	ps := h.payments(t, fx.Order.ID)
	require.Len(t, ps, 1, "every event for one reference lands on one payment row")
	assert.Equal(t, store.PaymentRefunded, ps[0].Status)
}

func TestOPayProcessesVerifiedCallback(t *testing.T) {
	cross := &stubQuerier{gateway: normalize.OPay, configured: true, status: normalize.StatusSuccess}
	h := newHarness(t, setup{mode: signature.Enforce, crossCheck: cross})
	fx := storetest.SeedOrder(t, h.store, "O-009", "491.60")

	h.postOPay(opayBody(t, "O-009", "SUCCESS", 49160, opaySK)).
		AssertStatus(http.StatusOK).
		AssertBodyContains("Webhook processed")

	ps := h.payments(t, fx.Order.ID)
	require.Len(t, ps, 1)
	assert.True(t, decimal.RequireFromString("491.60").Equal(ps[0].Amount))
	assert.Equal(t, "OPAY", ps[0].Method)
}

func TestOPayGracefulFailureContract(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		h := newHarness(t, setup{mode: signature.Enforce})
		fx := storetest.SeedOrder(t, h.store, "O-010", "100")

		resp := h.postOPay(opayBody(t, "O-010", "SUCCESS", 10000, "wrong-secret"))
		resp.AssertStatus(http.StatusOK)
		assert.Equal(t, false, resp.JSONMap()["success"])
		assert.Empty(t, h.payments(t, fx.Order.ID))
	})

	t.Run("cross verification mismatch", func(t *testing.T) {
		cross := &stubQuerier{gateway: normalize.OPay, configured: true, status: normalize.StatusFailed}
		h := newHarness(t, setup{mode: signature.Enforce, crossCheck: cross})
		fx := storetest.SeedOrder(t, h.store, "O-011", "100")

		h.postOPay(opayBody(t, "O-011", "SUCCESS", 10000, opaySK)).
			AssertStatus(http.StatusOK).
			AssertBodyContains("Verification mismatch")
		assert.Equal(t, store.PaymentPending, h.order(t, fx.Order.ID).PaymentStatus)
		assert.Empty(t, h.guard.Calls())
	})

	t.Run("cross verification unavailable", func(t *testing.T) {
		cross := &stubQuerier{gateway: normalize.OPay, configured: true, err: errors.New("dial tcp: timeout")}
		h := newHarness(t, setup{mode: signature.Enforce, crossCheck: cross})
		storetest.SeedOrder(t, h.store, "O-012", "100")

		h.postOPay(opayBody(t, "O-012", "SUCCESS", 10000, opaySK)).
			AssertStatus(http.StatusOK).
			AssertBodyContains("Verification failed")
	})

	t.Run("validation failure", func(t *testing.T) {
		h := newHarness(t, setup{mode: signature.Enforce})
		storetest.SeedOrder(t, h.store, "O-013", "100")

		h.postOPay(opayBody(t, "O-013", "SUCCESS", 100, opaySK)).
			AssertStatus(http.StatusOK).
			AssertBodyContains("amount mismatch")
	})

	t.Run("exception", func(t *testing.T) {
		h := newHarness(t, setup{mode: signature.Enforce, engine: failingEngine{}})

		resp := h.postOPay(opayBody(t, "O-014", "SUCCESS", 10000, opaySK))
		resp.AssertStatus(http.StatusInternalServerError)
		resp.AssertBodyContains("Webhook processing failed").AssertBodyNotContains("locked")
	})

	t.Run("unhandled type", func(t *testing.T) {
		h := newHarness(t, setup{mode: signature.Enforce})
		body := strings.Replace(string(opayBody(t, "O-015", "SUCCESS", 10000, opaySK)),
			normalize.OPayTransactionStatus, "refund-status", 1)
		h.postOPay([]byte(body)).AssertStatus(http.StatusOK).AssertBodyContains("Event not processed")
	})
}

func TestStrictGatewayInfraErrorIsGeneric(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Enforce, engine: failingEngine{}})
	resp := h.postPaystack(paystackBody(normalize.PaystackChargeSuccess, "O-016", "success", 10000, ""))
	resp.AssertStatus(http.StatusInternalServerError)
	assert.Equal(t, "Webhook processing failed", resp.JSONMap()["error"])
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h := newHarness(t, setup{mode: signature.Bypass, maxBody: 64})
	h.client.PostRaw("/webhook/paystack",
		paystackBody(normalize.PaystackChargeSuccess, "O-017", "success", 10000, "someone@example.com"), nil,
	).AssertStatus(http.StatusRequestEntityTooLarge)
}

type stubVerifier struct {
	v   gatewayapi.Verification
	err error
}

func (s stubVerifier) Verify(context.Context, string) (gatewayapi.Verification, error) {
	return s.v, s.err
}

func TestVerifyEndpoint(t *testing.T) {
	found := stubVerifier{v: gatewayapi.Verification{
		Gateway:  normalize.Paystack,
		Status:   normalize.StatusSuccess,
		Amount:   decimal.NewFromInt(100),
		Currency: "NGN",
	}}

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t, setup{verifier: found})
		m := h.client.Get("/verify/O-001").AssertStatus(http.StatusOK).JSONMap()
		assert.Equal(t, true, m["success"])
		assert.Equal(t, "PAYSTACK", m["gateway"])
		assert.Equal(t, "O-001", m["reference"])
		assert.Equal(t, "SUCCESS", m["status"])
		assert.Equal(t, "100", m["amount"])
		assert.Equal(t, "NGN", m["currency"])
	})

	t.Run("missing reference", func(t *testing.T) {
		h := newHarness(t, setup{verifier: found})
		h.client.Get("/verify").AssertStatus(http.StatusBadRequest)
		h.client.Get("/verify/").AssertStatus(http.StatusBadRequest)
		h.client.Get("/verify/%20").AssertStatus(http.StatusBadRequest)
	})

	t.Run("not found", func(t *testing.T) {
		h := newHarness(t, setup{verifier: stubVerifier{err: gatewayapi.ErrNotFound}})
		h.client.Get("/verify/O-404").AssertStatus(http.StatusNotFound)
	})

	t.Run("service error", func(t *testing.T) {
		h := newHarness(t, setup{verifier: stubVerifier{err: fmt.Errorf("%w: boom", gatewayapi.ErrAllFailed)}})
		h.client.Get("/verify/O-500").AssertStatus(http.StatusInternalServerError).AssertBodyNotContains("boom")
	})
}

func TestPolicies(t *testing.T) {
	cases := []struct {
		outcome     webhook.Outcome
		strict, ack int
		success     bool
	}{
		{webhook.Processed, http.StatusOK, http.StatusOK, true},
		{webhook.Ignored, http.StatusOK, http.StatusOK, true},
		{webhook.BadSignature, http.StatusBadRequest, http.StatusOK, false},
		{webhook.Unusable, http.StatusBadRequest, http.StatusOK, false},
		{webhook.Mismatch, http.StatusBadRequest, http.StatusOK, false},
		{webhook.Rejected, http.StatusInternalServerError, http.StatusOK, false},
		{webhook.Malformed, http.StatusInternalServerError, http.StatusInternalServerError, false},
		{webhook.Internal, http.StatusInternalServerError, http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		code, body := webhook.StrictPolicy{}.Respond(tc.outcome, "")
		assert.Equal(t, tc.strict, code, "strict outcome %d", tc.outcome)
		assert.Equal(t, tc.success, body.Success, "strict outcome %d", tc.outcome)

		code, body = webhook.AcknowledgePolicy{}.Respond(tc.outcome, "")
		assert.Equal(t, tc.ack, code, "ack outcome %d", tc.outcome)
		assert.Equal(t, tc.success, body.Success, "ack outcome %d", tc.outcome)
	}

	_, body := webhook.StrictPolicy{}.Respond(webhook.Rejected, "amount mismatch for O-1")
	assert.Equal(t, "amount mismatch for O-1", body.Error)
}
