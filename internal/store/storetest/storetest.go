// Package storetest opens isolated in-memory databases and seeds fixtures for tests.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
)

var seq atomic.Uint64

// New returns a migrated Store on a fresh shared-cache in-memory SQLite database.
// One open connection keeps every query on the same database.
func New(t testing.TB) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := store.Open(store.Config{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}, nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store.New(db)
}

// Fixture is a customer with one pending order.
type Fixture struct {
	Customer *store.Customer
	Order    *store.Order
}

// SeedOrder creates a customer and a PENDING order numbered orderNumber with the given
// total. Items are created when given.
func SeedOrder(t testing.TB, s *store.Store, orderNumber, total string, items ...store.OrderItem) Fixture {
	t.Helper()
	ctx := context.Background()

	c := &store.Customer{Email: strings.ToLower(orderNumber) + "@example.com", Name: "Test Customer"}
	if err := s.CreateCustomer(ctx, c); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	o := &store.Order{
		OrderNumber:   orderNumber,
		CustomerID:    c.ID,
		Status:        store.OrderPending,
		PaymentStatus: store.PaymentPending,
		Total:         decimal.RequireFromString(total),
		Currency:      "NGN",
	}
	if err := s.CreateOrder(ctx, o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	for i := range items {
		items[i].OrderID = o.ID
		if items[i].Subtotal.IsZero() {
			items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		}
	}
	if err := s.CreateOrderItems(ctx, items); err != nil {
		t.Fatalf("seed items: %v", err)
	}
	return Fixture{Customer: c, Order: o}
}

// SeedProduct creates a product with the given stock.
func SeedProduct(t testing.TB, s *store.Store, name string, stock int) *store.Product {
	t.Helper()
	p := &store.Product{Name: name, SKU: strings.ToUpper(name), StockQuantity: stock}
	if err := s.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// SeedCustomer creates a customer without orders.
func SeedCustomer(t testing.TB, s *store.Store, email string) *store.Customer {
	t.Helper()
	c := &store.Customer{Email: email, Name: "Orphan Customer"}
	if err := s.CreateCustomer(context.Background(), c); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}
