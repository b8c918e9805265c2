package gatewayapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
)

const flutterwaveBaseURL = "https://api.flutterwave.com"

// Flutterwave queries the v3 API with the account secret key.
type Flutterwave struct {
	caller
	secretKey string
}

func NewFlutterwave(secretKey string, opts Options) *Flutterwave {
	return &Flutterwave{caller: newCaller(normalize.Flutterwave, flutterwaveBaseURL, opts), secretKey: secretKey}
}

func (c *Flutterwave) Configured() bool { return c.secretKey != "" }

type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TxRef    string          `json:"tx_ref"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
		Status   string          `json:"status"`
	} `json:"data"`
}

// Verify looks a transaction up by merchant reference.
func (c *Flutterwave) Verify(ctx context.Context, reference string) (Verification, error) {
	if !c.Configured() {
		return Verification{}, ErrNotConfigured
	}
	var out flutterwaveVerifyResponse
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	code, err := c.do(ctx, http.MethodGet, path, nil, bearer(c.secretKey), &out)
	if err != nil {
		return Verification{}, notFoundOn(code, err, http.StatusNotFound, http.StatusBadRequest)
	}
	if !strings.EqualFold(out.Status, "success") || out.Data.TxRef == "" {
		return Verification{}, fmt.Errorf("%w: %s", ErrNotFound, out.Message)
	}
	return Verification{
		Gateway:       normalize.Flutterwave,
		Reference:     out.Data.TxRef,
		Status:        normalize.FlutterwaveStatus(out.Data.Status),
		GatewayStatus: out.Data.Status,
		Amount:        out.Data.Amount,
		Currency:      strings.ToUpper(out.Data.Currency),
	}, nil
}

// Probe lists Nigerian banks, a read-only call that needs a valid key.
func (c *Flutterwave) Probe(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	_, err := c.do(ctx, http.MethodGet, "/v3/banks/NG", nil, bearer(c.secretKey), nil)
	return err
}
