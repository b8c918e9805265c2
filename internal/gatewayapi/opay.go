package gatewayapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
)

const (
	opayBaseURL    = "https://liveapi.opaycheckout.com"
	opayStatusPath = "/api/v1/international/cashier/status"
	opayOK         = "00000"

	// ProbeReference is queried by the health probe. The gateway is expected to
	// answer that it does not exist.
	ProbeReference = "health-probe"
)

// OPay queries the cashier API. Status requests are signed with the secret key and
// carry the merchant id.
type OPay struct {
	caller
	secretKey  string
	merchantID string
	country    string
}

func NewOPay(secretKey, merchantID string, opts Options) *OPay {
	return &OPay{
		caller:     newCaller(normalize.OPay, opayBaseURL, opts),
		secretKey:  secretKey,
		merchantID: merchantID,
		country:    "NG",
	}
}

func (c *OPay) Configured() bool { return c.secretKey != "" && c.merchantID != "" }

type opayStatusRequest struct {
	Country   string `json:"country"`
	Reference string `json:"reference"`
}

type opayStatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Reference string               `json:"reference"`
		OrderNo   string               `json:"orderNo"`
		Status    string               `json:"status"`
		Amount    normalize.OPayAmount `json:"amount"`
	} `json:"data"`
}

func (c *OPay) status(ctx context.Context, reference string) (opayStatusResponse, error) {
	body, err := json.Marshal(opayStatusRequest{Country: c.country, Reference: reference})
	if err != nil {
		return opayStatusResponse{}, err
	}
	headers := bearer(signature.SignOPayRequest(body, c.secretKey))
	headers["MerchantId"] = c.merchantID

	var out opayStatusResponse
	if _, err := c.do(ctx, http.MethodPost, opayStatusPath, body, headers, &out); err != nil {
		return opayStatusResponse{}, err
	}
	return out, nil
}

// Verify queries the cashier status API. A non-success code is treated as unknown
// reference.
func (c *OPay) Verify(ctx context.Context, reference string) (Verification, error) {
	if !c.Configured() {
		return Verification{}, ErrNotConfigured
	}
	out, err := c.status(ctx, reference)
	if err != nil {
		return Verification{}, err
	}
	if out.Code != opayOK {
		return Verification{}, fmt.Errorf("%w: %s %s", ErrNotFound, out.Code, out.Message)
	}
	ref := out.Data.Reference
	if ref == "" {
		ref = reference
	}
	return Verification{
		Gateway:       normalize.OPay,
		Reference:     ref,
		Status:        normalize.OPayStatus(out.Data.Status),
		GatewayStatus: out.Data.Status,
		Amount:        normalize.Minor.ToMajor(out.Data.Amount.Total),
		Currency:      strings.ToUpper(out.Data.Amount.Currency),
	}, nil
}

// Probe queries ProbeReference. Any well-formed answer, including "not found",
// proves the credentials and the endpoint work.
func (c *OPay) Probe(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	_, err := c.status(ctx, ProbeReference)
	return err
}

// CrossCheck compares a callback's claimed status with the gateway's own answer.
type CrossCheck struct {
	Claimed  normalize.Status
	Observed normalize.Status
	Matched  bool
}

// ErrMismatch is returned by CrossVerify when the statuses disagree.
var ErrMismatch = errors.New("verification mismatch")

// CrossVerify re-queries reference and compares the observed status with claimed.
// A refund claim also matches a charge the gateway still reports as SUCCESS.
func CrossVerify(ctx context.Context, q Querier, reference string, claimed normalize.Status) (CrossCheck, error) {
	v, err := q.Verify(ctx, reference)
	if err != nil {
		return CrossCheck{Claimed: claimed}, err
	}
	cc := CrossCheck{Claimed: claimed, Observed: v.Status}
	cc.Matched = claimed == v.Status ||
		(claimed == normalize.StatusRefunded && v.Status == normalize.StatusSuccess)
	if !cc.Matched {
		return cc, fmt.Errorf("%w: claimed %s, gateway reports %s", ErrMismatch, claimed, v.Status)
	}
	return cc, nil
}
