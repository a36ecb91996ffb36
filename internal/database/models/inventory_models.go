package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	GSTNumber *string   `gorm:"column:gst_number;size:15;uniqueIndex" json:"gst_number"`
	Email     *string   `gorm:"size:254" json:"email"`
	Phone     *string   `gorm:"size:15" json:"phone"`
	Address   *string   `gorm:"type:text" json:"address"`
	CreatedBy int64     `gorm:"not null;index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator *User `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
}

// InventoryItem is owned by a user; (user_id, sku) is unique.
type InventoryItem struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64           `gorm:"not null;uniqueIndex:idx_inventory_items_user_sku,priority:1" json:"user_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	SKU            string          `gorm:"column:sku;size:50;not null;uniqueIndex:idx_inventory_items_user_sku,priority:2;index" json:"sku"`
	Quantity       int32           `gorm:"not null;check:quantity >= 0" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	SupplierID     *int64          `gorm:"index" json:"supplier_id"`
	ExpirationDate *time.Time      `gorm:"type:date" json:"expiration_date"`
	Threshold      int32           `gorm:"not null;check:threshold >= 0" json:"threshold"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL" json:"supplier,omitempty"`
}

// IsLowStock reports whether the item sits strictly below its restock threshold.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity < i.Threshold
}
