// Package gatewaysim is an in-memory stand-in for the Flutterwave, Paystack and
// OPay APIs the reconciliation service talks to. It answers the status and bank
// lookups the service makes and can push correctly signed callbacks at it.
package gatewaysim

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/kv"
)

var (
	ErrUnknownGateway = errors.New("unknown gateway")
	ErrNoReference    = errors.New("reference is required")
)

// Transaction is one payment as a gateway sees it. Amount is in major units; the
// API handlers convert to kobo where the real gateway would.
type Transaction struct {
	ID            string          `json:"id" yaml:"id"`
	Gateway       string          `json:"gateway" yaml:"gateway"`
	Reference     string          `json:"reference" yaml:"reference"`
	Amount        decimal.Decimal `json:"amount" yaml:"amount"`
	Currency      string          `json:"currency" yaml:"currency"`
	Status        string          `json:"status" yaml:"status"`
	Refunded      bool            `json:"refunded,omitempty" yaml:"refunded"`
	Channel       string          `json:"channel,omitempty" yaml:"channel"`
	CustomerEmail string          `json:"customerEmail,omitempty" yaml:"customer_email"`
	CustomerName  string          `json:"customerName,omitempty" yaml:"customer_name"`
	Items         []Item          `json:"items,omitempty" yaml:"items"`
	CreatedAt     time.Time       `json:"createdAt" yaml:"created_at"`
}

// Item is a line item carried in callback metadata. UnitPrice is in major units.
type Item struct {
	ProductID string          `json:"productId" yaml:"product_id"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"unit_price"`
	Name      string          `json:"name,omitempty" yaml:"name"`
	SKU       string          `json:"sku,omitempty" yaml:"sku"`
}

// gateway resolves the slug.
func (t Transaction) gateway() (normalize.Gateway, error) {
	for _, g := range normalize.Gateways {
		if strings.EqualFold(t.Gateway, g.Slug()) || strings.EqualFold(t.Gateway, string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownGateway, t.Gateway)
}

func key(g normalize.Gateway, reference string) string {
	return g.Slug() + ":" + reference
}

// defaultStatus is each gateway's word for a successful charge.
func defaultStatus(g normalize.Gateway) string {
	switch g {
	case normalize.Flutterwave:
		return "successful"
	case normalize.Paystack:
		return "success"
	default:
		return "SUCCESS"
	}
}

// Ledger holds the transactions every simulated gateway knows about.
type Ledger struct {
	txs   *kv.Memory[Transaction]
	seeds []Transaction
	now   func() time.Time
}

// NewLedger creates a ledger preloaded with seeds. Reset returns to them.
func NewLedger(seeds []Transaction) (*Ledger, error) {
	l := &Ledger{txs: kv.NewMemory[Transaction]("tx"), now: time.Now}
	for _, s := range seeds {
		tx, err := l.Put(s)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", s.Reference, err)
		}
		l.seeds = append(l.seeds, tx)
	}
	return l, nil
}

// Put validates tx, fills defaults and stores it, replacing any transaction with
// the same gateway and reference.
func (l *Ledger) Put(tx Transaction) (Transaction, error) {
	g, err := tx.gateway()
	if err != nil {
		return Transaction{}, err
	}
	if strings.TrimSpace(tx.Reference) == "" {
		return Transaction{}, ErrNoReference
	}
	tx.Gateway = g.Slug()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Currency == "" {
		tx.Currency = "NGN"
	}
	if tx.Status == "" {
		tx.Status = defaultStatus(g)
	}
	if tx.Channel == "" {
		tx.Channel = "card"
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.now().UTC()
	}
	l.txs.Set(key(g, tx.Reference), tx, 0)
	return tx, nil
}

// Get looks a transaction up.
func (l *Ledger) Get(g normalize.Gateway, reference string) (Transaction, bool) {
	return l.txs.Get(key(g, reference))
}

// List returns every transaction held for g.
func (l *Ledger) List(g normalize.Gateway) []Transaction {
	return l.txs.Filter(func(_ string, t Transaction) bool { return t.Gateway == g.Slug() })
}

// Snapshot copies every transaction, keyed by gateway and reference.
func (l *Ledger) Snapshot() map[string]Transaction {
	return l.txs.Snapshot()
}

// LoadState replaces the ledger from a {"transactions": {...}} document.
func (l *Ledger) LoadState(data []byte) error {
	var st struct {
		Transactions map[string]Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	l.txs.LoadSnapshot(st.Transactions)
	return nil
}

// Reset drops everything but the seeds.
func (l *Ledger) Reset() {
	l.txs.Reset()
	for _, s := range l.seeds {
		l.Put(s)
	}
}

// SeedFile is the YAML layout read by --seed-file.
type SeedFile struct {
	Transactions []Transaction `yaml:"transactions"`
}

// LoadSeeds reads a seed file. An empty path yields no seeds.
func LoadSeeds(path string) ([]Transaction, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return sf.Transactions, nil
}
