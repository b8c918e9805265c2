// Package webhook receives payment gateway callbacks and turns them into
// reconciliation calls. Each gateway is a Route; the HTTP status answered to the
// gateway is chosen by the route's Policy, since that status steers its retries.
package webhook

import "net/http"

// Outcome classifies how far a callback got through the pipeline.
type Outcome int

const (
	// Processed means the reconciliation engine accepted the event.
	Processed Outcome = iota
	// Ignored means the event type is not one the service acts on.
	Ignored
	// BadSignature means the callback failed authentication.
	BadSignature
	// Unusable means the callback parsed but cannot be reconciled, such as a
	// missing transaction reference.
	Unusable
	// Mismatch means the gateway's status API disagreed with the callback.
	Mismatch
	// Rejected means reconciliation ran and reported failure. The detail
	// carries the reason.
	Rejected
	// Malformed means the body was not valid JSON for the gateway.
	Malformed
	// Internal means an infrastructure error interrupted processing.
	Internal
)

// Response is the JSON envelope returned to gateways.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	msgProcessed    = "Webhook processed"
	msgNotProcessed = "Event not processed"
	msgBadSignature = "Invalid signature"
	msgMismatch     = "Verification mismatch"
	msgFailed       = "Webhook processing failed"
	msgNoReference  = "Missing transaction reference"
)

// Policy maps an outcome to the status code and body sent back to a gateway.
type Policy interface {
	Respond(o Outcome, detail string) (int, Response)
}

// StrictPolicy answers with 4xx and 5xx codes so the gateway retries what may
// succeed later and stops on what never will.
type StrictPolicy struct{}

func (StrictPolicy) Respond(o Outcome, detail string) (int, Response) {
	switch o {
	case Processed:
		return http.StatusOK, Response{Success: true, Message: msgProcessed}
	case Ignored:
		return http.StatusOK, Response{Success: true, Message: msgNotProcessed}
	case BadSignature:
		return http.StatusBadRequest, Response{Error: msgBadSignature}
	case Unusable:
		return http.StatusBadRequest, Response{Error: orDefault(detail, msgNoReference)}
	case Mismatch:
		return http.StatusBadRequest, Response{Error: msgMismatch}
	case Rejected:
		return http.StatusInternalServerError, Response{Error: orDefault(detail, msgFailed)}
	default:
		return http.StatusInternalServerError, Response{Error: msgFailed}
	}
}

// AcknowledgePolicy answers 200 for everything except malformed bodies and
// infrastructure errors. It suits gateways that retry any non-200 for days.
type AcknowledgePolicy struct{}

func (AcknowledgePolicy) Respond(o Outcome, detail string) (int, Response) {
	switch o {
	case Processed:
		return http.StatusOK, Response{Success: true, Message: msgProcessed}
	case Ignored:
		return http.StatusOK, Response{Success: true, Message: msgNotProcessed}
	case BadSignature:
		return http.StatusOK, Response{Error: msgBadSignature}
	case Unusable:
		return http.StatusOK, Response{Error: orDefault(detail, msgNoReference)}
	case Mismatch:
		return http.StatusOK, Response{Message: msgMismatch}
	case Rejected:
		return http.StatusOK, Response{Error: orDefault(detail, msgFailed)}
	default:
		return http.StatusInternalServerError, Response{Error: msgFailed}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
