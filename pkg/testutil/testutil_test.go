package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer answers like the webhook service and the simulator admin plane.
func newTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook/{gateway}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("X-Paystack-Signature") != "sig" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid signature"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"gateway": r.PathValue("gateway"),
			"raw":     string(body),
		})
	})

	mux.HandleFunc("GET /echo-headers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		headers := map[string]string{}
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		json.NewEncoder(w).Encode(headers)
	})

	mux.HandleFunc("GET /admin/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /admin/reset", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
	})
	mux.HandleFunc("GET /admin/state", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"transactions": map[string]any{}})
	})
	mux.HandleFunc("POST /admin/state", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "loaded"})
	})
	mux.HandleFunc("POST /admin/transactions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"transaction": body})
	})
	mux.HandleFunc("GET /admin/requests", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{{"method": "GET", "path": "/bank"}})
	})
	mux.HandleFunc("POST /admin/webhooks/flush", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "flushed"})
	})

	return httptest.NewServer(mux)
}

func TestNewClient(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	c := NewClient(t, srv)
	if c.BaseURL != srv.URL {
		t.Errorf("expected BaseURL=%s, got %s", srv.URL, c.BaseURL)
	}
}

func TestNewClientURL(t *testing.T) {
	c := NewClientURL(t, "http://localhost:8080/")
	if c.BaseURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL)
	}
}

func TestPostRawKeepsBodyBytes(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	raw := []byte(`{"event": "charge.success",  "data": {}}`)
	resp := NewClient(t, srv).PostRaw("/webhook/paystack", raw, map[string]string{"X-Paystack-Signature": "sig"})
	resp.AssertStatus(http.StatusOK)

	m := resp.JSONMap()
	if m["raw"] != string(raw) {
		t.Errorf("body was altered: %v", m["raw"])
	}
	if m["gateway"] != "paystack" {
		t.Errorf("expected gateway=paystack, got %v", m["gateway"])
	}
}

func TestPostRawWithoutSignature(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	NewClient(t, srv).PostRaw("/webhook/paystack", []byte(`{}`), nil).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("Invalid signature").
		AssertBodyNotContains(`"success":true`)
}

func TestDoWithHeaders(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := NewClient(t, srv).DoWithHeaders(http.MethodGet, "/echo-headers", nil, map[string]string{"verif-hash": "abc"})
	var headers map[string]string
	resp.JSON(&headers)
	if headers["Verif-Hash"] != "abc" {
		t.Errorf("expected Verif-Hash=abc, got %+v", headers)
	}
}

func TestAdminClient(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	ac := NewAdminClient(NewClient(t, srv))

	ac.Health().AssertStatus(http.StatusOK).AssertBodyContains("ok")
	ac.Reset().AssertStatus(http.StatusOK).AssertBodyContains("reset")
	ac.GetState().AssertStatus(http.StatusOK).AssertBodyContains("transactions")
	ac.LoadState(map[string]any{"transactions": map[string]any{}}).AssertStatus(http.StatusOK)
	ac.GetRequests().AssertStatus(http.StatusOK).AssertBodyContains("/bank")
	ac.FlushWebhooks().AssertStatus(http.StatusOK).AssertBodyContains("flushed")

	resp := ac.SeedTransaction(map[string]any{"gateway": "opay", "reference": "O-1"})
	resp.AssertStatus(http.StatusCreated)
	var out struct {
		Transaction map[string]any `json:"transaction"`
	}
	resp.JSON(&out)
	if out.Transaction["reference"] != "O-1" {
		t.Errorf("unexpected seed response: %+v", out)
	}
}
