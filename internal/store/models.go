package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// PaymentStatus is the payment state shared by orders and payment rows.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
)

// MovementType is the direction of an inventory movement.
type MovementType string

const (
	MovementOut MovementType = "OUT"
	MovementIn  MovementType = "IN"
)

// Model carries the uuid primary key and creation time every table shares.
type Model struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Customer struct {
	Model
	Email string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name  string `gorm:"size:255" json:"name"`
}

func (Customer) TableName() string { return "customers" }

type Order struct {
	Model
	OrderNumber      string          `gorm:"size:64;uniqueIndex;not null" json:"orderNumber"`
	CustomerID       string          `gorm:"size:36;index;not null" json:"customerId"`
	Status           OrderStatus     `gorm:"size:16;not null;default:PENDING" json:"status"`
	PaymentStatus    PaymentStatus   `gorm:"size:16;not null;default:PENDING" json:"paymentStatus"`
	PaymentMethod    string          `gorm:"size:32" json:"paymentMethod"`
	PaymentReference string          `gorm:"size:128;index" json:"paymentReference"`
	Total            decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	Currency         string          `gorm:"size:8;not null;default:NGN" json:"currency"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	Model
	OrderID   string          `gorm:"size:36;index;not null" json:"orderId"`
	ProductID string          `gorm:"size:64;not null" json:"productId"`
	Name      string          `gorm:"size:255" json:"name"`
	SKU       string          `gorm:"size:64" json:"sku"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unitPrice"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
}

func (OrderItem) TableName() string { return "order_items" }

// Payment is one gateway transaction attempt. OrderID is nil for an orphan payment.
type Payment struct {
	Model
	OrderID          *string         `gorm:"size:36;index" json:"orderId"`
	CustomerID       string          `gorm:"size:36;index" json:"customerId"`
	TransactionID    string          `gorm:"size:128;uniqueIndex;not null" json:"transactionId"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency         string          `gorm:"size:8;not null" json:"currency"`
	Method           string          `gorm:"size:32" json:"method"`
	Status           PaymentStatus   `gorm:"size:16;not null" json:"status"`
	GatewayReference string          `gorm:"size:128" json:"gatewayReference"`
	GatewayResponse  datatypes.JSON  `json:"gatewayResponse"`
	CompletedAt      *time.Time      `json:"completedAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

// OrderTracking is an append-only audit entry.
type OrderTracking struct {
	Model
	OrderID string      `gorm:"size:36;index;not null" json:"orderId"`
	Status  OrderStatus `gorm:"size:16;not null" json:"status"`
	Note    string      `gorm:"size:255" json:"note"`
}

func (OrderTracking) TableName() string { return "order_tracking" }

type Product struct {
	Model
	Name          string `gorm:"size:255" json:"name"`
	SKU           string `gorm:"size:64;index" json:"sku"`
	StockQuantity int    `gorm:"not null;default:0" json:"stockQuantity"`
}

func (Product) TableName() string { return "products" }

// InventoryMovement records a stock change. An OUT movement is unique per order item;
// an IN movement reverses exactly one OUT through ReversalOf.
type InventoryMovement struct {
	Model
	OrderID     string       `gorm:"size:36;index;not null" json:"orderId"`
	OrderItemID string       `gorm:"size:36;uniqueIndex:idx_movement_item_type;not null" json:"orderItemId"`
	ProductID   string       `gorm:"size:64;index;not null" json:"productId"`
	Type        MovementType `gorm:"size:8;uniqueIndex:idx_movement_item_type;not null" json:"type"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	Reason      string       `gorm:"size:64" json:"reason"`
	ReversalOf  *string      `gorm:"size:36;uniqueIndex" json:"reversalOf,omitempty"`
}

func (InventoryMovement) TableName() string { return "inventory_movements" }

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&Customer{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&OrderTracking{},
		&InventoryMovement{},
	}
}
