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

const paystackBaseURL = "https://api.paystack.co"

// Paystack queries the REST API with the account secret key.
type Paystack struct {
	caller
	secretKey string
}

func NewPaystack(secretKey string, opts Options) *Paystack {
	return &Paystack{caller: newCaller(normalize.Paystack, paystackBaseURL, opts), secretKey: secretKey}
}

func (c *Paystack) Configured() bool { return c.secretKey != "" }

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Reference string          `json:"reference"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		Status    string          `json:"status"`
	} `json:"data"`
}

// Verify fetches a transaction by reference. Paystack reports amounts in kobo.
func (c *Paystack) Verify(ctx context.Context, reference string) (Verification, error) {
	if !c.Configured() {
		return Verification{}, ErrNotConfigured
	}
	var out paystackVerifyResponse
	code, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, bearer(c.secretKey), &out)
	if err != nil {
		return Verification{}, notFoundOn(code, err, http.StatusNotFound, http.StatusBadRequest)
	}
	if !out.Status || out.Data.Reference == "" {
		return Verification{}, fmt.Errorf("%w: %s", ErrNotFound, out.Message)
	}
	return Verification{
		Gateway:       normalize.Paystack,
		Reference:     out.Data.Reference,
		Status:        normalize.PaystackStatus(out.Data.Status),
		GatewayStatus: out.Data.Status,
		Amount:        normalize.Minor.ToMajor(out.Data.Amount),
		Currency:      strings.ToUpper(out.Data.Currency),
	}, nil
}

// Probe lists one bank.
func (c *Paystack) Probe(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	_, err := c.do(ctx, http.MethodGet, "/bank?perPage=1", nil, bearer(c.secretKey), nil)
	return err
}
