package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Paystack event types the dispatcher acts on.
const (
	PaystackChargeSuccess   = "charge.success"
	PaystackChargeFailed    = "charge.failed"
	PaystackRefundProcessed = "refund.processed"
)

type paystackCallback struct {
	Event string       `json:"event"`
	Data  paystackData `json:"data"`
}

type paystackData struct {
	ID                   flexString  `json:"id"`
	Reference            string      `json:"reference"`
	TransactionReference string      `json:"transaction_reference"`
	Amount               flexDecimal `json:"amount"`
	Currency             string      `json:"currency"`
	Status               string      `json:"status"`
	Channel              string      `json:"channel"`
	PaidAt               string      `json:"paid_at"`
	Customer             struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	Metadata json.RawMessage `json:"metadata"`
}

// PaystackStatus maps Paystack's vocabulary: success, failed, pending; anything else is abandoned.
func PaystackStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return StatusSuccess
	case "failed":
		return StatusFailed
	case "pending":
		return StatusPending
	default:
		return StatusAbandoned
	}
}

// ParsePaystack normalizes a Paystack callback. Amounts arrive in kobo and are divided by 100.
func ParsePaystack(body []byte, cfg Config) (Event, error) {
	var cb paystackCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return Event{}, fmt.Errorf("paystack: %w: %v", ErrMalformedPayload, err)
	}

	d := cb.Data
	reference := d.Reference
	if reference == "" {
		reference = d.TransactionReference
	}

	status := PaystackStatus(d.Status)
	switch cb.Event {
	case PaystackRefundProcessed:
		status = StatusRefunded
	case PaystackChargeFailed:
		status = StatusFailed
	}

	name := strings.TrimSpace(d.Customer.FirstName + " " + d.Customer.LastName)

	return Event{
		Gateway:          Paystack,
		EventType:        cb.Event,
		Reference:        reference,
		Status:           status,
		GatewayStatus:    d.Status,
		Amount:           Minor.ToMajor(d.Amount.Decimal),
		Currency:         strings.ToUpper(d.Currency),
		GatewayReference: string(d.ID),
		Channel:          d.Channel,
		CustomerEmail:    d.Customer.Email,
		CustomerName:     name,
		PaidAt:           parseTime(d.PaidAt),
		Items:            itemsFromMetadata(d.Metadata, cfg.itemsUnit(Paystack)),
	}, nil
}
