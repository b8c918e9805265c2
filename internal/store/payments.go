package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertPayment inserts p or, when a row with the same TransactionID exists, updates
// it in a single statement. A nil OrderID or CompletedAt never clears a stored value.
// On return p holds the stored row.
func (s *Store) UpsertPayment(ctx context.Context, p *Payment) error {
	if p.TransactionID == "" {
		return fmt.Errorf("upsert payment: empty transaction id")
	}
	err := s.q(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"order_id":          gorm.Expr("COALESCE(excluded.order_id, payments.order_id)"),
			"customer_id":       gorm.Expr("COALESCE(NULLIF(excluded.customer_id, ''), payments.customer_id)"),
			"amount":            gorm.Expr("excluded.amount"),
			"currency":          gorm.Expr("excluded.currency"),
			"method":            gorm.Expr("excluded.method"),
			"status":            gorm.Expr("excluded.status"),
			"gateway_reference": gorm.Expr("excluded.gateway_reference"),
			"gateway_response":  gorm.Expr("excluded.gateway_response"),
			"completed_at":      gorm.Expr("COALESCE(excluded.completed_at, payments.completed_at)"),
			"updated_at":        gorm.Expr("excluded.updated_at"),
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert payment %s: %w", p.TransactionID, err)
	}

	stored, err := s.FindPaymentByTransaction(ctx, p.TransactionID)
	if err != nil {
		return fmt.Errorf("reload payment %s: %w", p.TransactionID, err)
	}
	*p = *stored
	return nil
}

func (s *Store) FindPaymentByTransaction(ctx context.Context, transactionID string) (*Payment, error) {
	var p Payment
	if err := s.q(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) ListPaymentsByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	var ps []Payment
	err := s.q(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&ps).Error
	return ps, err
}

// ListOrphanPayments returns payments that matched no order, newest first.
func (s *Store) ListOrphanPayments(ctx context.Context) ([]Payment, error) {
	var ps []Payment
	err := s.q(ctx).Where("order_id IS NULL").Order("created_at DESC").Find(&ps).Error
	return ps, err
}

// ListMovements returns an order's movements of one type, oldest first.
func (s *Store) ListMovements(ctx context.Context, orderID string, typ MovementType) ([]InventoryMovement, error) {
	var ms []InventoryMovement
	err := s.q(ctx).
		Where("order_id = ? AND type = ?", orderID, typ).
		Order("created_at ASC, id ASC").
		Find(&ms).Error
	return ms, err
}

// CreateMovement inserts m unless its (order item, type) or reversal already exists.
// It reports whether a row was written.
func (s *Store) CreateMovement(ctx context.Context, m *InventoryMovement) (bool, error) {
	res := s.q(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
