// Package reconcile applies one normalized payment event to order, payment and
// inventory state.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/guard"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/inventory"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
)

// ErrUnresolvable is the failure reported when neither an order nor a customer matches.
var ErrUnresolvable = errors.New("order not found and customer unresolvable")

// Validator is the pre-write amount and state check.
type Validator interface {
	Validate(ctx context.Context, reference string, status normalize.Status, ev normalize.Event) (guard.Result, error)
}

// Inventory receives stock effects after the reconciling transaction commits.
type Inventory interface {
	CreateOutMovementsForOrder(ctx context.Context, orderID string) inventory.Outcome
	RollbackOutMovementsForOrder(ctx context.Context, orderID string, cause inventory.Cause) inventory.Outcome
}

// Input is one event to apply. Status is normally Payment.Status.
type Input struct {
	Reference string
	Status    normalize.Status
	Payment   normalize.Event
}

// Result describes what Apply did. A false Success carries either ValidationError
// or Error; nothing was written in that case.
type Result struct {
	Success          bool                `json:"success"`
	AlreadyProcessed bool                `json:"alreadyProcessed,omitempty"`
	Orphan           bool                `json:"orphan,omitempty"`
	Status           store.PaymentStatus `json:"status,omitempty"`
	OrderID          string              `json:"orderId,omitempty"`
	PaymentID        string              `json:"paymentId,omitempty"`
	ValidationError  string              `json:"validationError,omitempty"`
	Error            string              `json:"error,omitempty"`
}

// DBStatus maps a normalized status onto the stored payment status.
func DBStatus(s normalize.Status) store.PaymentStatus {
	switch s {
	case normalize.StatusSuccess:
		return store.PaymentCompleted
	case normalize.StatusFailed:
		return store.PaymentFailed
	case normalize.StatusPending:
		return store.PaymentPending
	case normalize.StatusAbandoned:
		return store.PaymentCancelled
	case normalize.StatusRefunded:
		return store.PaymentRefunded
	default:
		return store.PaymentStatus(s)
	}
}

// Engine reconciles events. It is safe for concurrent use.
type Engine struct {
	store     *store.Store
	guard     Validator
	inventory Inventory
	logger    *slog.Logger
	now       func() time.Time
}

func New(s *store.Store, g Validator, inv Inventory, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     s,
		guard:     g,
		inventory: inv,
		logger:    logger,
		now:       time.Now,
	}
}

// sideEffect is an inventory call deferred until after commit.
type sideEffect struct {
	orderID  string
	out      bool
	rollback inventory.Cause
}

// Apply validates the event, then runs the order and payment writes in one
// transaction. Inventory effects follow the commit and never change the result.
// A returned error means the transaction was rolled back.
func (e *Engine) Apply(ctx context.Context, in Input) (Result, error) {
	if in.Status == "" {
		in.Status = in.Payment.Status
	}
	log := e.logger.With(
		"gateway", in.Payment.Gateway,
		"reference", in.Reference,
		"status", in.Status,
		"event", in.Payment.EventType,
	)

	check, err := e.guard.Validate(ctx, in.Reference, in.Status, in.Payment)
	if err != nil {
		return Result{}, fmt.Errorf("validate %s: %w", in.Reference, err)
	}
	if !check.Success {
		log.Warn("payment validation failed", "error", check.Error)
		return Result{ValidationError: check.Error}, nil
	}

	var (
		res    Result
		effect *sideEffect
	)
	err = e.store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		res, effect, err = e.apply(ctx, tx, in)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("reconcile %s: %w", in.Reference, err)
	}

	switch {
	case res.AlreadyProcessed:
		log.Info("payment already processed", "order_id", res.OrderID)
	case res.Orphan:
		log.Warn("orphan payment recorded", "payment_id", res.PaymentID)
	case res.ValidationError != "":
		log.Warn("payment validation failed", "error", res.ValidationError)
	case !res.Success:
		log.Warn("payment not reconciled", "error", res.Error)
	default:
		log.Info("payment reconciled", "order_id", res.OrderID, "payment_id", res.PaymentID, "db_status", res.Status)
	}

	if effect != nil {
		e.runSideEffect(ctx, log, *effect)
	}
	return res, nil
}

func (e *Engine) apply(ctx context.Context, tx *store.Store, in Input) (Result, *sideEffect, error) {
	ev := in.Payment

	// Concurrent deliveries for one order queue here, so only the first sees the
	// pre-completion status.
	order, err := tx.LockOrderByReference(ctx, in.Reference)
	if errors.Is(err, store.ErrNotFound) {
		res, err := e.recordOrphan(ctx, tx, in)
		return res, nil, err
	}
	if err != nil {
		return Result{}, nil, fmt.Errorf("find order: %w", err)
	}

	// The guard ran before the lock; a delivery that committed since may forbid this move.
	if r := guard.CheckTransition(order.PaymentStatus, in.Status); !r.Success {
		return Result{ValidationError: r.Error}, nil, nil
	}
	if order.PaymentStatus == store.PaymentCompleted && in.Status == normalize.StatusSuccess {
		return Result{Success: true, AlreadyProcessed: true, Status: order.PaymentStatus, OrderID: order.ID}, nil, nil
	}

	prev := order.PaymentStatus
	next := DBStatus(in.Status)

	update := store.OrderPaymentUpdate{
		PaymentStatus:    next,
		PaymentMethod:    string(ev.Gateway),
		PaymentReference: in.Reference,
	}
	if next == store.PaymentCompleted && order.Status == store.OrderPending {
		processing := store.OrderProcessing
		update.Status = &processing
	}
	if err := tx.UpdateOrderPayment(ctx, order.ID, update); err != nil {
		return Result{}, nil, fmt.Errorf("update order: %w", err)
	}

	if err := backfillItems(ctx, tx, order.ID, ev.Items); err != nil {
		return Result{}, nil, err
	}

	p, err := e.upsertPayment(ctx, tx, in, &order.ID, order.CustomerID, order.Currency)
	if err != nil {
		return Result{}, nil, err
	}

	var effect *sideEffect
	switch {
	case next == store.PaymentCompleted && prev != store.PaymentCompleted:
		entry := &store.OrderTracking{
			OrderID: order.ID,
			Status:  store.OrderProcessing,
			Note:    fmt.Sprintf("payment confirmed by %s", ev.Gateway),
		}
		if err := tx.CreateTracking(ctx, entry); err != nil {
			return Result{}, nil, fmt.Errorf("create tracking: %w", err)
		}
		effect = &sideEffect{orderID: order.ID, out: true}
	case next == store.PaymentRefunded && prev != store.PaymentRefunded:
		effect = &sideEffect{orderID: order.ID, rollback: inventory.CauseRefunded}
	case next == store.PaymentCancelled && prev != store.PaymentCancelled:
		effect = &sideEffect{orderID: order.ID, rollback: inventory.CauseCancelled}
	}

	return Result{Success: true, Status: next, OrderID: order.ID, PaymentID: p.ID}, effect, nil
}

func (e *Engine) recordOrphan(ctx context.Context, tx *store.Store, in Input) (Result, error) {
	customer, err := tx.FindCustomerByEmail(ctx, in.Payment.CustomerEmail)
	if errors.Is(err, store.ErrNotFound) {
		return Result{Error: ErrUnresolvable.Error()}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("find customer: %w", err)
	}

	p, err := e.upsertPayment(ctx, tx, in, nil, customer.ID, "")
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Orphan: true, Status: p.Status, PaymentID: p.ID}, nil
}

func (e *Engine) upsertPayment(ctx context.Context, tx *store.Store, in Input, orderID *string, customerID, fallbackCurrency string) (*store.Payment, error) {
	ev := in.Payment
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode gateway response: %w", err)
	}

	currency := ev.Currency
	if currency == "" {
		currency = fallbackCurrency
	}
	status := DBStatus(in.Status)

	p := &store.Payment{
		OrderID:          orderID,
		CustomerID:       customerID,
		TransactionID:    in.Reference,
		Amount:           ev.Amount.Round(2),
		Currency:         currency,
		Method:           string(ev.Gateway),
		Status:           status,
		GatewayReference: ev.GatewayReference,
		GatewayResponse:  datatypes.JSON(raw),
	}
	if status == store.PaymentCompleted {
		completed := e.now().UTC()
		if ev.PaidAt != nil {
			completed = ev.PaidAt.UTC()
		}
		p.CompletedAt = &completed
	}
	if err := tx.UpsertPayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// backfillItems inserts the callback's items only when the order has none.
func backfillItems(ctx context.Context, tx *store.Store, orderID string, items []normalize.Item) error {
	if len(items) == 0 {
		return nil
	}
	n, err := tx.CountOrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	if n > 0 {
		return nil
	}

	rows := make([]store.OrderItem, 0, len(items))
	for _, it := range items {
		price := it.UnitPrice.Round(2)
		rows = append(rows, store.OrderItem{
			OrderID:   orderID,
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Subtotal:  price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	if err := tx.CreateOrderItems(ctx, rows); err != nil {
		return fmt.Errorf("backfill items: %w", err)
	}
	return nil
}

func (e *Engine) runSideEffect(ctx context.Context, log *slog.Logger, se sideEffect) {
	if e.inventory == nil {
		return
	}
	var out inventory.Outcome
	op := "create_out_movements"
	if se.out {
		out = e.inventory.CreateOutMovementsForOrder(ctx, se.orderID)
	} else {
		op = "rollback_out_movements"
		out = e.inventory.RollbackOutMovementsForOrder(ctx, se.orderID, se.rollback)
	}

	if !out.OK() {
		log.Error("inventory update failed; manual reconciliation required",
			"op", op, "order_id", se.orderID, "error", out.Err)
		return
	}
	log.Info("inventory updated",
		"op", op, "order_id", se.orderID, "written", out.Written, "existing", out.Existing)
	if len(out.MissingProducts) > 0 {
		log.Warn("inventory movement for unknown products", "order_id", se.orderID, "products", out.MissingProducts)
	}
}
