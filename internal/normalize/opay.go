package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
	"github.com/shopspring/decimal"
)

// OPayTransactionStatus is the only OPay callback type the dispatcher acts on.
const OPayTransactionStatus = "transaction-status"

// OPayCallback is the envelope OPay posts: the signed payload, its signature and a type.
type OPayCallback struct {
	Payload OPayPayload `json:"payload"`
	SHA512  string      `json:"sha512"`
	Type    string      `json:"type"`
}

// OPayPayload is the transaction body of an OPay callback.
type OPayPayload struct {
	Amount        OPayAmount      `json:"amount"`
	Channel       string          `json:"channel"`
	Country       string          `json:"country"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference"`
	Refunded      bool            `json:"refunded"`
	Status        string          `json:"status"`
	Timestamp     string          `json:"timestamp"`
	Token         string          `json:"token"`
	TransactionID string          `json:"transactionId"`
	UpdatedAt     string          `json:"updated_at"`
	Customer      OPayCustomer    `json:"userInfo"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// OPayCustomer is the optional payer block.
type OPayCustomer struct {
	Email string `json:"userEmail"`
	Name  string `json:"userName"`
}

// OPayAmount is either a {total, currency} object or a bare numeric string, always
// in minor units. Raw keeps the string form that OPay signs.
type OPayAmount struct {
	Total    decimal.Decimal
	Currency string
	Raw      string
	object   bool
}

func (a *OPayAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Total    flexString `json:"total"`
			Currency string     `json:"currency"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		a.object = true
		a.Currency = obj.Currency
		return a.setRaw(string(obj.Total))
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	return a.setRaw(string(s))
}

func (a *OPayAmount) setRaw(s string) error {
	a.Raw = strings.TrimSpace(s)
	if a.Raw == "" {
		a.Total = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(a.Raw)
	if err != nil {
		return fmt.Errorf("opay amount %q: %w", a.Raw, err)
	}
	a.Total = d
	return nil
}

func (a OPayAmount) MarshalJSON() ([]byte, error) {
	if a.object {
		return json.Marshal(struct {
			Total    string `json:"total"`
			Currency string `json:"currency,omitempty"`
		}{a.Raw, a.Currency})
	}
	return json.Marshal(a.Raw)
}

// NewOPayAmount builds a numeric-string amount from a minor-unit value.
func NewOPayAmount(minor decimal.Decimal) OPayAmount {
	return OPayAmount{Total: minor, Raw: minor.String()}
}

// SignatureFields returns the eight fields OPay signs, in canonical form.
func (p OPayPayload) SignatureFields() signature.OPayFields {
	return signature.OPayFields{
		Amount:        p.Amount.Raw,
		Currency:      p.currency(),
		Reference:     p.Reference,
		Refunded:      p.Refunded,
		Status:        p.Status,
		Timestamp:     p.Timestamp,
		Token:         p.Token,
		TransactionID: p.TransactionID,
	}
}

func (p OPayPayload) currency() string {
	if p.Currency != "" {
		return p.Currency
	}
	return p.Amount.Currency
}

// OPayStatus maps OPay's vocabulary case-insensitively.
func OPayStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS", "SUCCESSFUL":
		return StatusSuccess
	case "FAIL", "FAILED":
		return StatusFailed
	case "PENDING", "INITIAL":
		return StatusPending
	default:
		return StatusAbandoned
	}
}

// DecodeOPay unmarshals the callback envelope without normalizing it, so the
// dispatcher can verify the signature on the payload first.
func DecodeOPay(body []byte) (OPayCallback, error) {
	var cb OPayCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return OPayCallback{}, fmt.Errorf("opay: %w: %v", ErrMalformedPayload, err)
	}
	return cb, nil
}

// ParseOPay normalizes an OPay callback. Amounts are minor units and are divided by 100.
func ParseOPay(body []byte, cfg Config) (Event, error) {
	cb, err := DecodeOPay(body)
	if err != nil {
		return Event{}, err
	}
	return cb.Event(cfg), nil
}

// Event normalizes an already decoded callback.
func (cb OPayCallback) Event(cfg Config) Event {
	p := cb.Payload
	status := OPayStatus(p.Status)
	if p.Refunded {
		status = StatusRefunded
	}
	return Event{
		Gateway:          OPay,
		EventType:        cb.Type,
		Reference:        p.Reference,
		Status:           status,
		GatewayStatus:    p.Status,
		Amount:           Minor.ToMajor(p.Amount.Total),
		Currency:         strings.ToUpper(p.currency()),
		GatewayReference: p.TransactionID,
		Channel:          p.Channel,
		CustomerEmail:    p.Customer.Email,
		CustomerName:     p.Customer.Name,
		PaidAt:           parseTime(p.Timestamp),
		Items:            itemsFromMetadata(p.Metadata, cfg.itemsUnit(OPay)),
	}
}
