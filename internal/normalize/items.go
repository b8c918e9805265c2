package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexDecimal accepts a JSON number or a numeric string.
type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if strings.TrimSpace(string(s)) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(string(s)))
	if err != nil {
		return err
	}
	f.Decimal = d
	return nil
}

type rawItem struct {
	ProductID flexString  `json:"productId"`
	Quantity  flexString  `json:"quantity"`
	UnitPrice flexDecimal `json:"unitPrice"`
	Name      string      `json:"name"`
	SKU       string      `json:"sku"`
}

// decodeMaybeString unwraps a value that may be JSON-encoded inside a JSON string.
func decodeMaybeString(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return json.RawMessage(s)
}

// itemsFromMetadata pulls an items array out of a metadata value. The metadata and
// the items field may each be an object/array or a JSON string. Extraction is best
// effort: anything unreadable yields no items.
func itemsFromMetadata(metadata json.RawMessage, unit Unit) []Item {
	metadata = decodeMaybeString(metadata)
	if len(metadata) == 0 || metadata[0] != '{' {
		return nil
	}
	var holder struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(metadata, &holder); err != nil {
		return nil
	}
	return parseItems(holder.Items, unit)
}

func parseItems(raw json.RawMessage, unit Unit) []Item {
	raw = decodeMaybeString(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var rows []rawItem
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		qty, err := strconv.Atoi(strings.TrimSpace(string(r.Quantity)))
		if err != nil || qty <= 0 || r.ProductID == "" {
			continue
		}
		items = append(items, Item{
			ProductID: string(r.ProductID),
			Quantity:  qty,
			UnitPrice: unit.ToMajor(r.UnitPrice.Decimal),
			Name:      r.Name,
			SKU:       r.SKU,
		})
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
