// Package inventory records stock movements for paid and reversed orders.
//
// Both operations are idempotent per order: an OUT movement is written at most once
// per order item and an IN reversal at most once per OUT movement. Stock is only
// adjusted for movements actually written.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
)

// Cause tags why OUT movements were reversed.
type Cause string

const (
	CauseRefunded  Cause = "REFUNDED"
	CauseCancelled Cause = "CANCELLED"
)

const reasonSale = "ORDER_PAID"

// Outcome reports what an inventory call did. Err is nil on success. Callers log it;
// an inventory failure never fails a payment callback.
type Outcome struct {
	OrderID string
	// Written counts movements created by this call.
	Written int
	// Existing counts movements that were already present.
	Existing int
	// MissingProducts lists product ids with a movement but no stock row.
	MissingProducts []string
	Err             error
}

func (o Outcome) OK() bool { return o.Err == nil }

func failed(orderID string, err error) Outcome {
	return Outcome{OrderID: orderID, Err: err}
}

// Service writes movements through the store.
type Service struct {
	store *store.Store
}

func New(s *store.Store) *Service {
	return &Service{store: s}
}

// CreateOutMovementsForOrder writes one OUT movement per order item and decrements
// stock accordingly.
func (s *Service) CreateOutMovementsForOrder(ctx context.Context, orderID string) Outcome {
	out := Outcome{OrderID: orderID}
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		items, err := tx.ListOrderItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		for _, item := range items {
			m := &store.InventoryMovement{
				OrderID:     orderID,
				OrderItemID: item.ID,
				ProductID:   item.ProductID,
				Type:        store.MovementOut,
				Quantity:    item.Quantity,
				Reason:      reasonSale,
			}
			if err := s.apply(ctx, tx, m, -item.Quantity, &out); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return failed(orderID, fmt.Errorf("create out movements for %s: %w", orderID, err))
	}
	return out
}

// RollbackOutMovementsForOrder writes an IN reversal for every OUT movement of the
// order and restores stock.
func (s *Service) RollbackOutMovementsForOrder(ctx context.Context, orderID string, cause Cause) Outcome {
	out := Outcome{OrderID: orderID}
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		outs, err := tx.ListMovements(ctx, orderID, store.MovementOut)
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		for _, o := range outs {
			reversed := o.ID
			m := &store.InventoryMovement{
				OrderID:     orderID,
				OrderItemID: o.OrderItemID,
				ProductID:   o.ProductID,
				Type:        store.MovementIn,
				Quantity:    o.Quantity,
				Reason:      string(cause),
				ReversalOf:  &reversed,
			}
			if err := s.apply(ctx, tx, m, o.Quantity, &out); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return failed(orderID, fmt.Errorf("rollback out movements for %s: %w", orderID, err))
	}
	return out
}

func (s *Service) apply(ctx context.Context, tx *store.Store, m *store.InventoryMovement, delta int, out *Outcome) error {
	created, err := tx.CreateMovement(ctx, m)
	if err != nil {
		return fmt.Errorf("write %s movement for item %s: %w", m.Type, m.OrderItemID, err)
	}
	if !created {
		out.Existing++
		return nil
	}
	out.Written++
	err = tx.AdjustStock(ctx, m.ProductID, delta)
	if errors.Is(err, store.ErrNotFound) {
		out.MissingProducts = append(out.MissingProducts, m.ProductID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("adjust stock for %s: %w", m.ProductID, err)
	}
	return nil
}
