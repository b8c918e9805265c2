package gatewaysim

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
)

// Routes mounts the read APIs of all three gateways.
func (s *Simulator) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.bearer(s.cfg.Secrets.FlutterwaveKey))
		r.Get("/v3/transactions/verify_by_reference", s.flutterwaveVerify)
		r.Get("/v3/banks/{country}", s.flutterwaveBanks)
	})
	r.Group(func(r chi.Router) {
		r.Use(s.bearer(s.cfg.Secrets.PaystackKey))
		r.Get("/transaction/verify/{reference}", s.paystackVerify)
		r.Get("/bank", s.paystackBanks)
	})
	r.Post("/api/v1/international/cashier/status", s.opayStatus)
}

// bearer rejects calls without the expected key. An empty key accepts any token.
func (s *Simulator) bearer(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || (key != "" && token != key) {
				httpcore.JSON(w, http.StatusUnauthorized, map[string]any{
					"status":  false,
					"message": "Invalid authorization key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GET /v3/transactions/verify_by_reference?tx_ref=
func (s *Simulator) flutterwaveVerify(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("tx_ref")
	tx, ok := s.ledger.Get(normalize.Flutterwave, ref)
	if !ok {
		httpcore.JSON(w, http.StatusNotFound, map[string]any{
			"status":  "error",
			"message": "No transaction was found for this id",
			"data":    nil,
		})
		return
	}
	httpcore.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Transaction fetched successfully",
		"data": map[string]any{
			"id":           tx.ID,
			"tx_ref":       tx.Reference,
			"flw_ref":      flwRef(tx),
			"amount":       json.Number(tx.Amount.String()),
			"currency":     tx.Currency,
			"status":       tx.Status,
			"payment_type": tx.Channel,
			"created_at":   tx.CreatedAt,
		},
	})
}

// GET /v3/banks/{country}
func (s *Simulator) flutterwaveBanks(w http.ResponseWriter, r *http.Request) {
	httpcore.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Banks fetched successfully",
		"data":    banks(chi.URLParam(r, "country")),
	})
}

// GET /transaction/verify/{reference}
func (s *Simulator) paystackVerify(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.ledger.Get(normalize.Paystack, chi.URLParam(r, "reference"))
	if !ok {
		httpcore.JSON(w, http.StatusBadRequest, map[string]any{
			"status":  false,
			"message": "Transaction reference not found",
		})
		return
	}
	httpcore.JSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "Verification successful",
		"data": map[string]any{
			"id":        tx.ID,
			"reference": tx.Reference,
			"amount":    json.Number(kobo(tx.Amount).String()),
			"currency":  tx.Currency,
			"status":    tx.Status,
			"channel":   tx.Channel,
			"paid_at":   tx.CreatedAt,
		},
	})
}

// GET /bank
func (s *Simulator) paystackBanks(w http.ResponseWriter, r *http.Request) {
	httpcore.JSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "Banks retrieved",
		"data":    banks("NG"),
	})
}

// POST /api/v1/international/cashier/status
//
// OPay signs the status request body with the merchant secret. Errors come back as
// 200 with a non-success code, the way the cashier API does.
func (s *Simulator) opayStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpcore.Error(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if key := s.cfg.Secrets.OPayKey; key != "" {
		want := "Bearer " + signature.SignOPayRequest(body, key)
		if r.Header.Get("Authorization") != want {
			opayError(w, "02001", "request signature is invalid")
			return
		}
	}
	if m := s.cfg.Secrets.OPayMerchantID; m != "" && r.Header.Get("MerchantId") != m {
		opayError(w, "02002", "merchant not found")
		return
	}

	var req struct {
		Country   string `json:"country"`
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Reference == "" {
		opayError(w, "02000", "reference is required")
		return
	}

	tx, ok := s.ledger.Get(normalize.OPay, req.Reference)
	if !ok {
		opayError(w, "02006", "order not found")
		return
	}
	httpcore.JSON(w, http.StatusOK, map[string]any{
		"code":    "00000",
		"message": "SUCCESSFUL",
		"data": map[string]any{
			"reference": tx.Reference,
			"orderNo":   tx.ID,
			"status":    tx.Status,
			"amount": map[string]any{
				"total":    json.Number(kobo(tx.Amount).String()),
				"currency": tx.Currency,
			},
		},
	})
}

func opayError(w http.ResponseWriter, code, msg string) {
	httpcore.JSON(w, http.StatusOK, map[string]any{"code": code, "message": msg, "data": nil})
}

type bank struct {
	ID      int    `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

func banks(country string) []bank {
	country = strings.ToUpper(country)
	if country != "NG" {
		return []bank{}
	}
	return []bank{
		{ID: 1, Code: "044", Name: "Access Bank", Country: country},
		{ID: 2, Code: "058", Name: "Guaranty Trust Bank", Country: country},
		{ID: 3, Code: "999992", Name: "OPay Digital Services", Country: country},
	}
}
