package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store/storetest"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := store.Open(store.Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestFindCustomerByEmailIgnoresCase(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.SeedCustomer(t, s, "Ada@Example.com")

	got, err := s.FindCustomerByEmail(ctx, " ADA@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = s.FindCustomerByEmail(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindCustomerByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindOrderByReference(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-001", "100")

	got, err := s.FindOrderByReference(ctx, "O-001")
	require.NoError(t, err)
	assert.Equal(t, fx.Order.ID, got.ID)
	assert.True(t, decimal.NewFromInt(100).Equal(got.Total))

	require.NoError(t, s.UpdateOrderPayment(ctx, fx.Order.ID, store.OrderPaymentUpdate{
		PaymentStatus:    store.PaymentPending,
		PaymentReference: "PSK-abc",
	}))
	got, err = s.FindOrderByReference(ctx, "PSK-abc")
	require.NoError(t, err)
	assert.Equal(t, fx.Order.ID, got.ID)

	_, err = s.FindOrderByReference(ctx, "O-404")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLockOrderByReferenceInsideTransaction(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-010", "75")

	err := s.Transaction(ctx, func(tx *store.Store) error {
		got, err := tx.LockOrderByReference(ctx, "O-010")
		require.NoError(t, err)
		assert.Equal(t, fx.Order.ID, got.ID)

		_, err = tx.LockOrderByReference(ctx, "O-404")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = tx.LockOrderByReference(ctx, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateOrderPayment(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-002", "50")

	processing := store.OrderProcessing
	require.NoError(t, s.UpdateOrderPayment(ctx, fx.Order.ID, store.OrderPaymentUpdate{
		PaymentStatus:    store.PaymentCompleted,
		PaymentMethod:    "PAYSTACK",
		PaymentReference: "O-002",
		Status:           &processing,
	}))

	got, err := s.GetOrder(ctx, fx.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PaymentCompleted, got.PaymentStatus)
	assert.Equal(t, store.OrderProcessing, got.Status)
	assert.Equal(t, "PAYSTACK", got.PaymentMethod)

	err = s.UpdateOrderPayment(ctx, "missing", store.OrderPaymentUpdate{PaymentStatus: store.PaymentFailed})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertPaymentKeepsOneRowPerTransaction(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-003", "491.60")
	orderID := fx.Order.ID

	first := &store.Payment{
		OrderID:         &orderID,
		CustomerID:      fx.Customer.ID,
		TransactionID:   "O-003",
		Amount:          decimal.RequireFromString("491.60"),
		Currency:        "NGN",
		Method:          "OPAY",
		Status:          store.PaymentPending,
		GatewayResponse: datatypes.JSON(`{"status":"PENDING"}`),
	}
	require.NoError(t, s.UpsertPayment(ctx, first))
	require.NotEmpty(t, first.ID)

	now := time.Now().UTC()
	second := &store.Payment{
		TransactionID:   "O-003",
		Amount:          decimal.RequireFromString("491.60"),
		Currency:        "NGN",
		Method:          "OPAY",
		Status:          store.PaymentCompleted,
		GatewayResponse: datatypes.JSON(`{"status":"SUCCESS"}`),
		CompletedAt:     &now,
	}
	require.NoError(t, s.UpsertPayment(ctx, second))

	assert.Equal(t, first.ID, second.ID, "the conflicting insert updates the existing row")
	assert.Equal(t, store.PaymentCompleted, second.Status)
	require.NotNil(t, second.OrderID, "a nil order id does not clear the stored one")
	assert.Equal(t, orderID, *second.OrderID)
	assert.Equal(t, fx.Customer.ID, second.CustomerID)
	assert.NotNil(t, second.CompletedAt)
	assert.JSONEq(t, `{"status":"SUCCESS"}`, string(second.GatewayResponse))

	all, err := s.ListPaymentsByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertPaymentRequiresTransactionID(t *testing.T) {
	s := storetest.New(t)
	err := s.UpsertPayment(context.Background(), &store.Payment{})
	assert.Error(t, err)
}

func TestListOrphanPayments(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	c := storetest.SeedCustomer(t, s, "orphan@example.com")

	require.NoError(t, s.UpsertPayment(ctx, &store.Payment{
		CustomerID:    c.ID,
		TransactionID: "NO-ORDER",
		Amount:        decimal.NewFromInt(10),
		Currency:      "NGN",
		Status:        store.PaymentCompleted,
	}))

	orphans, err := s.ListOrphanPayments(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Nil(t, orphans[0].OrderID)
	assert.Equal(t, c.ID, orphans[0].CustomerID)
}

func TestTransactionRollsBack(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-004", "10")

	err := s.Transaction(ctx, func(tx *store.Store) error {
		require.NoError(t, tx.CreateTracking(ctx, &store.OrderTracking{OrderID: fx.Order.ID, Status: store.OrderProcessing}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	entries, err := s.ListTracking(ctx, fx.Order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAdjustStock(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := storetest.SeedProduct(t, s, "paracetamol", 10)

	require.NoError(t, s.AdjustStock(ctx, p.ID, -3))
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)

	assert.ErrorIs(t, s.AdjustStock(ctx, "missing", 1), store.ErrNotFound)
}

func TestCreateMovementIsUniquePerItemAndType(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-005", "20", store.OrderItem{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)})
	items, err := s.ListOrderItems(ctx, fx.Order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	out := func() *store.InventoryMovement {
		return &store.InventoryMovement{
			OrderID:     fx.Order.ID,
			OrderItemID: items[0].ID,
			ProductID:   "p1",
			Type:        store.MovementOut,
			Quantity:    2,
		}
	}
	created, err := s.CreateMovement(ctx, out())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateMovement(ctx, out())
	require.NoError(t, err)
	assert.False(t, created)

	ms, err := s.ListMovements(ctx, fx.Order.ID, store.MovementOut)
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}

func TestCountOrderItems(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	fx := storetest.SeedOrder(t, s, "O-006", "30",
		store.OrderItem{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		store.OrderItem{ProductID: "p2", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
	)
	n, err := s.CountOrderItems(ctx, fx.Order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.Ping(ctx))
}
