// Package normalize maps each gateway's callback payload, status vocabulary and
// monetary units into one internal Event.
package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedPayload is returned when a callback body is not the JSON shape a gateway sends.
var ErrMalformedPayload = errors.New("malformed payload")

// Gateway identifies a payment provider.
type Gateway string

const (
	Flutterwave Gateway = "FLUTTERWAVE"
	Paystack    Gateway = "PAYSTACK"
	OPay        Gateway = "OPAY"
)

// Gateways lists every supported provider in the order they are tried by /verify.
var Gateways = []Gateway{Flutterwave, Paystack, OPay}

// Slug is the lower-case form used in routes and config keys.
func (g Gateway) Slug() string {
	return strings.ToLower(string(g))
}

// Status is the internal payment outcome shared by all gateways.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusPending   Status = "PENDING"
	StatusAbandoned Status = "ABANDONED"
	StatusRefunded  Status = "REFUNDED"
)

// Unit is the monetary unit a gateway uses for a value.
type Unit int

const (
	// Major units, e.g. naira.
	Major Unit = iota
	// Minor units, e.g. kobo. Divided by 100 on the way in.
	Minor
)

// ParseUnit parses "major" or "minor"; anything else is Major.
func ParseUnit(s string) Unit {
	if strings.EqualFold(strings.TrimSpace(s), "minor") {
		return Minor
	}
	return Major
}

// ToMajor converts an amount in unit u to major units.
func (u Unit) ToMajor(amount decimal.Decimal) decimal.Decimal {
	if u == Minor {
		return amount.Shift(-2)
	}
	return amount
}

// Item is a line item carried in callback metadata, used to backfill orders
// that were created without items. UnitPrice is always in major units.
type Item struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Name      string          `json:"name,omitempty"`
	SKU       string          `json:"sku,omitempty"`
}

// Event is a normalized payment callback.
type Event struct {
	Gateway          Gateway         `json:"gateway"`
	EventType        string          `json:"eventType"`
	Reference        string          `json:"reference"`
	Status           Status          `json:"status"`
	GatewayStatus    string          `json:"gatewayStatus"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	GatewayReference string          `json:"gatewayReference,omitempty"`
	Channel          string          `json:"channel,omitempty"`
	CustomerEmail    string          `json:"customerEmail,omitempty"`
	CustomerName     string          `json:"customerName,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	Items            []Item          `json:"items,omitempty"`
}

// Config carries the per-gateway unit convention for item prices in metadata.
type Config struct {
	ItemsUnit map[Gateway]Unit
}

// DefaultConfig matches how checkout writes metadata for each gateway: Flutterwave
// items in naira, Paystack and OPay items in kobo.
func DefaultConfig() Config {
	return Config{ItemsUnit: map[Gateway]Unit{
		Flutterwave: Major,
		Paystack:    Minor,
		OPay:        Minor,
	}}
}

func (c Config) itemsUnit(g Gateway) Unit {
	if u, ok := c.ItemsUnit[g]; ok {
		return u
	}
	return Major
}
