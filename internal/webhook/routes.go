package webhook

import (
	"net/http"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewayapi"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
)

// Route is everything the dispatcher needs to know about one gateway.
type Route struct {
	Gateway normalize.Gateway
	// Verify authenticates the raw body and headers.
	Verify func(body []byte, h http.Header) bool
	// Parse normalizes the raw body. Errors wrap normalize.ErrMalformedPayload.
	Parse func(body []byte) (normalize.Event, error)
	// Handles reports whether an event type is acted on.
	Handles func(eventType string) bool
	Policy  Policy
	// CrossCheck, when set, is asked to confirm the claimed status before
	// anything is written.
	CrossCheck gatewayapi.Querier
}

// Path is the URL the route is mounted at.
func (rt Route) Path() string {
	return "/webhook/" + rt.Gateway.Slug()
}

// Secrets are the per-gateway signing secrets.
type Secrets struct {
	// Flutterwave is the dashboard "secret hash".
	Flutterwave string
	// Paystack is the account secret key.
	Paystack string
	OPay     string
}

// RouteConfig builds the standard route table.
type RouteConfig struct {
	Mode      signature.Mode
	Secrets   Secrets
	Normalize normalize.Config
	// OPayCrossCheck enables cross-verification of OPay callbacks when non-nil.
	OPayCrossCheck gatewayapi.Querier
}

func oneOf(types ...string) func(string) bool {
	return func(t string) bool {
		for _, v := range types {
			if v == t {
				return true
			}
		}
		return false
	}
}

// Routes returns the Flutterwave, Paystack and OPay routes.
func Routes(rc RouteConfig) []Route {
	return []Route{
		{
			Gateway: normalize.Flutterwave,
			Verify: func(body []byte, h http.Header) bool {
				return signature.VerifyFlutterwave(rc.Mode, body, h.Get(signature.FlutterwaveHeader), rc.Secrets.Flutterwave)
			},
			Parse: func(body []byte) (normalize.Event, error) {
				return normalize.ParseFlutterwave(body, rc.Normalize)
			},
			Handles: oneOf(normalize.FlutterwaveChargeCompleted, normalize.FlutterwaveRefundCompleted),
			Policy:  StrictPolicy{},
		},
		{
			Gateway: normalize.Paystack,
			Verify: func(body []byte, h http.Header) bool {
				return signature.VerifyPaystack(rc.Mode, body, h.Get(signature.PaystackHeader), rc.Secrets.Paystack)
			},
			Parse: func(body []byte) (normalize.Event, error) {
				return normalize.ParsePaystack(body, rc.Normalize)
			},
			Handles: oneOf(normalize.PaystackChargeSuccess, normalize.PaystackChargeFailed, normalize.PaystackRefundProcessed),
			Policy:  StrictPolicy{},
		},
		{
			Gateway: normalize.OPay,
			Verify: func(body []byte, _ http.Header) bool {
				cb, err := normalize.DecodeOPay(body)
				if err != nil {
					return false
				}
				return signature.VerifyOPay(rc.Mode, cb.Payload.SignatureFields(), cb.SHA512, rc.Secrets.OPay)
			},
			Parse: func(body []byte) (normalize.Event, error) {
				return normalize.ParseOPay(body, rc.Normalize)
			},
			Handles:    oneOf(normalize.OPayTransactionStatus),
			Policy:     AcknowledgePolicy{},
			CrossCheck: rc.OPayCrossCheck,
		},
	}
}
