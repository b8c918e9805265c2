package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateCustomer inserts a customer with its email lower-cased.
func (s *Store) CreateCustomer(ctx context.Context, c *Customer) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return s.q(ctx).Create(c).Error
}

// FindCustomerByEmail matches case-insensitively.
func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}
	var c Customer
	if err := s.q(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *Product) error {
	return s.q(ctx).Create(p).Error
}

func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := s.q(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// AdjustStock adds delta to a product's stock. It returns ErrNotFound when the
// product does not exist.
func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) error {
	res := s.q(ctx).Model(&Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, o *Order) error {
	return s.q(ctx).Create(o).Error
}

func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := s.q(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// FindOrderByReference matches a gateway reference against the stored payment
// reference or the order number. The oldest match wins.
func (s *Store) FindOrderByReference(ctx context.Context, ref string) (*Order, error) {
	return s.findOrderByReference(s.q(ctx), ref)
}

// LockOrderByReference is FindOrderByReference taking a row lock (SELECT ... FOR
// UPDATE) held until the surrounding transaction ends. SQLite has no row locks and
// serializes writers instead, so the clause is dropped there.
func (s *Store) LockOrderByReference(ctx context.Context, ref string) (*Order, error) {
	return s.findOrderByReference(s.q(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

func (s *Store) findOrderByReference(q *gorm.DB, ref string) (*Order, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	var o Order
	err := q.
		Where("payment_reference = ? OR order_number = ?", ref, ref).
		Order("created_at ASC").
		First(&o).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// OrderPaymentUpdate is the set of order columns a callback may change.
// A nil Status leaves the fulfilment state untouched.
type OrderPaymentUpdate struct {
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	PaymentReference string
	Status           *OrderStatus
}

func (s *Store) UpdateOrderPayment(ctx context.Context, orderID string, u OrderPaymentUpdate) error {
	cols := map[string]any{
		"payment_status":    u.PaymentStatus,
		"payment_reference": u.PaymentReference,
	}
	if u.PaymentMethod != "" {
		cols["payment_method"] = u.PaymentMethod
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	res := s.q(ctx).Model(&Order{}).Where("id = ?", orderID).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountOrderItems(ctx context.Context, orderID string) (int64, error) {
	var n int64
	err := s.q(ctx).Model(&OrderItem{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}

func (s *Store) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	var items []OrderItem
	err := s.q(ctx).Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&items).Error
	return items, err
}

func (s *Store) CreateOrderItems(ctx context.Context, items []OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.q(ctx).Create(&items).Error
}

func (s *Store) CreateTracking(ctx context.Context, t *OrderTracking) error {
	return s.q(ctx).Create(t).Error
}

func (s *Store) ListTracking(ctx context.Context, orderID string) ([]OrderTracking, error) {
	var entries []OrderTracking
	err := s.q(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}
