package gatewaysim

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/webhook"
)

// kobo converts a major-unit amount to the integer minor units Paystack and OPay use.
func kobo(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Round(0)
}

type metaItem struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
	Name      string      `json:"name,omitempty"`
	SKU       string      `json:"sku,omitempty"`
}

type metadata struct {
	Items []metaItem `json:"items"`
}

// metadataFor renders items the way checkout does for g: Flutterwave metadata in
// naira, Paystack and OPay in kobo.
func metadataFor(g normalize.Gateway, items []Item) *metadata {
	if len(items) == 0 {
		return nil
	}
	md := &metadata{Items: make([]metaItem, 0, len(items))}
	for _, it := range items {
		price := it.UnitPrice
		if g != normalize.Flutterwave {
			price = kobo(price)
		}
		md.Items = append(md.Items, metaItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: json.Number(price.String()),
			Name:      it.Name,
			SKU:       it.SKU,
		})
	}
	return md
}

// EventType picks the callback event for tx when none is given.
func EventType(tx Transaction) string {
	g, _ := tx.gateway()
	switch g {
	case normalize.Flutterwave:
		if tx.Refunded {
			return normalize.FlutterwaveRefundCompleted
		}
		return normalize.FlutterwaveChargeCompleted
	case normalize.Paystack:
		switch {
		case tx.Refunded:
			return normalize.PaystackRefundProcessed
		case strings.EqualFold(tx.Status, "failed"):
			return normalize.PaystackChargeFailed
		}
		return normalize.PaystackChargeSuccess
	default:
		return normalize.OPayTransactionStatus
	}
}

type flutterwaveCallback struct {
	Event    string          `json:"event"`
	Data     flutterwaveData `json:"data"`
	MetaData *metadata       `json:"meta_data,omitempty"`
}

type flutterwaveData struct {
	ID          string      `json:"id"`
	TxRef       string      `json:"tx_ref"`
	FlwRef      string      `json:"flw_ref"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Status      string      `json:"status"`
	PaymentType string      `json:"payment_type"`
	CreatedAt   string      `json:"created_at"`
	Customer    struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
}

type paystackCallback struct {
	Event string       `json:"event"`
	Data  paystackData `json:"data"`
}

type paystackData struct {
	ID        string      `json:"id"`
	Reference string      `json:"reference"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Status    string      `json:"status"`
	Channel   string      `json:"channel"`
	PaidAt    string      `json:"paid_at"`
	Customer  struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	Metadata *metadata `json:"metadata,omitempty"`
}

func flwRef(tx Transaction) string {
	id := strings.ReplaceAll(tx.ID, "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	return "FLW-" + strings.ToUpper(id)
}

func opayPayload(tx Transaction) normalize.OPayPayload {
	p := normalize.OPayPayload{
		Amount:        normalize.NewOPayAmount(kobo(tx.Amount)),
		Channel:       tx.Channel,
		Country:       "NG",
		Currency:      tx.Currency,
		Reference:     tx.Reference,
		Refunded:      tx.Refunded,
		Status:        tx.Status,
		Timestamp:     tx.CreatedAt.UTC().Format(time.RFC3339),
		Token:         tx.ID,
		TransactionID: tx.ID,
		UpdatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
		Customer:      normalize.OPayCustomer{Email: tx.CustomerEmail, Name: tx.CustomerName},
	}
	if md := metadataFor(normalize.OPay, tx.Items); md != nil {
		raw, _ := json.Marshal(md)
		p.Metadata = raw
	}
	return p
}

// CallbackBody renders the unsigned body the gateway would POST for tx.
func CallbackBody(tx Transaction, event string) ([]byte, error) {
	g, err := tx.gateway()
	if err != nil {
		return nil, err
	}
	if event == "" {
		event = EventType(tx)
	}
	created := tx.CreatedAt.UTC().Format(time.RFC3339)

	switch g {
	case normalize.Flutterwave:
		cb := flutterwaveCallback{Event: event, MetaData: metadataFor(g, tx.Items)}
		cb.Data = flutterwaveData{
			ID:          tx.ID,
			TxRef:       tx.Reference,
			FlwRef:      flwRef(tx),
			Amount:      json.Number(tx.Amount.String()),
			Currency:    tx.Currency,
			Status:      tx.Status,
			PaymentType: tx.Channel,
			CreatedAt:   created,
		}
		cb.Data.Customer.Email = tx.CustomerEmail
		cb.Data.Customer.Name = tx.CustomerName
		return json.Marshal(cb)

	case normalize.Paystack:
		cb := paystackCallback{Event: event}
		cb.Data = paystackData{
			ID:        tx.ID,
			Reference: tx.Reference,
			Amount:    json.Number(kobo(tx.Amount).String()),
			Currency:  tx.Currency,
			Status:    tx.Status,
			Channel:   tx.Channel,
			PaidAt:    created,
			Metadata:  metadataFor(g, tx.Items),
		}
		cb.Data.Customer.Email = tx.CustomerEmail
		first, last, _ := strings.Cut(tx.CustomerName, " ")
		cb.Data.Customer.FirstName = first
		cb.Data.Customer.LastName = last
		return json.Marshal(cb)

	default:
		return json.Marshal(normalize.OPayCallback{Payload: opayPayload(tx), Type: event})
	}
}

// Signers returns the callback signer for each gateway slug.
func Signers() map[string]webhook.Signer {
	return map[string]webhook.Signer{
		normalize.Flutterwave.Slug(): webhook.SignerFunc(func(body []byte, secret string) ([]byte, map[string]string, error) {
			sig, err := signature.SignFlutterwave(body, secret)
			if err != nil {
				return nil, nil, err
			}
			return body, map[string]string{signature.FlutterwaveHeader: sig}, nil
		}),
		normalize.Paystack.Slug(): webhook.SignerFunc(func(body []byte, secret string) ([]byte, map[string]string, error) {
			return body, map[string]string{signature.PaystackHeader: signature.SignPaystack(body, secret)}, nil
		}),
		normalize.OPay.Slug(): webhook.SignerFunc(func(body []byte, secret string) ([]byte, map[string]string, error) {
			cb, err := normalize.DecodeOPay(body)
			if err != nil {
				return nil, nil, err
			}
			cb.SHA512 = signature.SignOPay(cb.Payload.SignatureFields(), secret)
			signed, err := json.Marshal(cb)
			if err != nil {
				return nil, nil, fmt.Errorf("encode opay callback: %w", err)
			}
			return signed, nil, nil
		}),
	}
}
