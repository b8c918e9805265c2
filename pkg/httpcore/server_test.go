package httpcore

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// JSON helper
// ---------------------------------------------------------------------------

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]string{"key": "value"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if body["key"] != "value" {
		t.Errorf("expected key=value, got %+v", body)
	}
}

func TestJSONNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Error helper
// ---------------------------------------------------------------------------

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "something went wrong")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %+v", body)
	}
	if errObj["message"] != "something went wrong" {
		t.Errorf("unexpected message: %v", errObj["message"])
	}
	if errObj["type"] != "Bad Request" {
		t.Errorf("expected type 'Bad Request', got %v", errObj["type"])
	}
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

func TestNewServerDefaults(t *testing.T) {
	cfg := &Config{Name: "test"}
	s := New(cfg, quietLogger())

	if s.Router == nil || s.Logger == nil || s.Middleware() == nil {
		t.Fatal("expected router, logger and middleware to be set")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("expected default body limit 1MiB, got %d", cfg.MaxBodyBytes)
	}
}

func TestServerServeHTTPRecordsRequests(t *testing.T) {
	s := New(&Config{Name: "test"}, quietLogger())
	s.Router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusTeapot, map[string]string{"pong": "yes"})
	})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	entries := s.Middleware().ReqLog.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 logged request, got %d", len(entries))
	}
	if entries[0].StatusCode != http.StatusTeapot || entries[0].Path != "/ping" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[0].RequestID == "" {
		t.Error("expected request id to be recorded")
	}
}

func TestServerRecoversFromPanic(t *testing.T) {
	s := New(&Config{Name: "test"}, quietLogger())
	s.Router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "kaboom") {
		t.Errorf("panic value leaked to the caller: %s", rec.Body.String())
	}
}

func TestServerBodyLimit(t *testing.T) {
	s := New(&Config{Name: "test", MaxBodyBytes: 8}, quietLogger())
	s.Router.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			Error(w, http.StatusRequestEntityTooLarge, "too large")
			return
		}
		JSON(w, http.StatusOK, nil)
	})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123456789abcdef")))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
