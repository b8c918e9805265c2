package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Flutterwave event types the dispatcher acts on.
const (
	FlutterwaveChargeCompleted = "charge.completed"
	FlutterwaveRefundCompleted = "refund.completed"
)

type flutterwaveCallback struct {
	Event    string          `json:"event"`
	Data     flutterwaveData `json:"data"`
	MetaData json.RawMessage `json:"meta_data"`
}

type flutterwaveData struct {
	ID          flexString  `json:"id"`
	TxRef       string      `json:"tx_ref"`
	FlwRef      string      `json:"flw_ref"`
	Amount      flexDecimal `json:"amount"`
	Currency    string      `json:"currency"`
	Status      string      `json:"status"`
	PaymentType string      `json:"payment_type"`
	CreatedAt   string      `json:"created_at"`
	Customer    struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
	Meta json.RawMessage `json:"meta"`
}

// FlutterwaveStatus maps Flutterwave's vocabulary: successful, failed, pending; anything else is abandoned.
func FlutterwaveStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "successful":
		return StatusSuccess
	case "failed":
		return StatusFailed
	case "pending":
		return StatusPending
	default:
		return StatusAbandoned
	}
}

// ParseFlutterwave normalizes a Flutterwave callback. Amounts are already in major units.
func ParseFlutterwave(body []byte, cfg Config) (Event, error) {
	var cb flutterwaveCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return Event{}, fmt.Errorf("flutterwave: %w: %v", ErrMalformedPayload, err)
	}

	d := cb.Data
	status := FlutterwaveStatus(d.Status)
	if cb.Event == FlutterwaveRefundCompleted {
		status = StatusRefunded
	}

	unit := cfg.itemsUnit(Flutterwave)
	items := itemsFromMetadata(cb.MetaData, unit)
	if items == nil {
		items = itemsFromMetadata(d.Meta, unit)
	}

	gatewayRef := d.FlwRef
	if gatewayRef == "" {
		gatewayRef = string(d.ID)
	}

	return Event{
		Gateway:          Flutterwave,
		EventType:        cb.Event,
		Reference:        d.TxRef,
		Status:           status,
		GatewayStatus:    d.Status,
		Amount:           d.Amount.Decimal,
		Currency:         strings.ToUpper(d.Currency),
		GatewayReference: gatewayRef,
		Channel:          d.PaymentType,
		CustomerEmail:    d.Customer.Email,
		CustomerName:     d.Customer.Name,
		PaidAt:           parseTime(d.CreatedAt),
		Items:            items,
	}, nil
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
