package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

func (t DiscountType) Valid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	Status          OrderStatus     `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	DeliveryAddress string          `gorm:"type:text;not null" json:"delivery_address"`
	BillingName     string          `gorm:"size:255" json:"billing_name"`
	BillingAddress  string          `gorm:"type:text;not null" json:"billing_address"`
	TaxID           string          `gorm:"column:tax_id;size:50" json:"tax_id"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	User       *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Discounts  []Discount  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"discounts"`
}

// OrderItem snapshots the catalog price at order time; price_at_order is never recomputed.
type OrderItem struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64           `gorm:"not null;uniqueIndex:idx_order_items_order_item,priority:1" json:"order_id"`
	ItemID       int64           `gorm:"not null;uniqueIndex:idx_order_items_order_item,priority:2;index" json:"item_id"`
	Quantity     int32           `gorm:"not null;check:quantity > 0" json:"quantity"`
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_at_order"`

	Item *InventoryItem `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"item,omitempty"`
}

// LineTotal is quantity x price_at_order.
func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.PriceAtOrder.Mul(decimal.NewFromInt32(oi.Quantity))
}

// Discount rows are replaced wholesale on every reapplication; Sequence
// preserves the order in which they were applied.
type Discount struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64           `gorm:"not null;uniqueIndex:idx_discounts_order_sequence,priority:1" json:"order_id"`
	Sequence    int32           `gorm:"not null;uniqueIndex:idx_discounts_order_sequence,priority:2" json:"sequence"`
	Type        DiscountType    `gorm:"column:type;size:20;not null" json:"type"`
	Value       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
