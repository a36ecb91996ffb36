package handler

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"inventory-system/internal/cache"
	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var csvHeader = []string{"Name", "SKU", "Quantity", "Price", "Supplier", "Expiration Date", "Threshold", "Added By"}

// LowStock returns the caller's items (every item for staff) whose quantity is
// strictly below their threshold, newest first.
func (s *InventoryHandler) LowStock(ctx context.Context, caller utils.Caller) ([]models.InventoryItem, error) {
	key := lowStockKey(caller)
	if items, ok := s.cachedItems(ctx, key); ok {
		return items, nil
	}

	var items []models.InventoryItem
	err := s.scopedItems(ctx, caller).
		Preload("Supplier").
		Where("quantity < threshold").
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}

	if raw, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, raw, cache.CACHE_TTL_SHORT); err != nil {
			s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

// ExportCSV streams the caller's visible inventory to w, one row per item.
func (s *InventoryHandler) ExportCSV(ctx context.Context, caller utils.Caller, w io.Writer) error {
	q := s.db.WithContext(ctx).
		Table("inventory_items").
		Select("inventory_items.name, inventory_items.sku, inventory_items.quantity, inventory_items.price, " +
			"suppliers.name, inventory_items.expiration_date, inventory_items.threshold, users.username").
		Joins("LEFT JOIN suppliers ON suppliers.id = inventory_items.supplier_id").
		Joins("JOIN users ON users.id = inventory_items.user_id").
		Order("inventory_items.created_at DESC, inventory_items.id DESC")
	if !caller.IsStaff {
		q = q.Where("inventory_items.user_id = ?", caller.UserID)
	}

	rows, err := q.Rows()
	if err != nil {
		return fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for rows.Next() {
		var (
			name, sku, owner string
			quantity         int64
			threshold        int64
			price            decimal.Decimal
			supplier         sql.NullString
			expiration       sql.NullTime
		)
		if err := rows.Scan(&name, &sku, &quantity, &price, &supplier, &expiration, &threshold, &owner); err != nil {
			return fmt.Errorf("failed to scan inventory row: %w", err)
		}

		date := ""
		if expiration.Valid {
			date = expiration.Time.Format(dateLayout)
		}

		record := []string{
			name,
			sku,
			strconv.FormatInt(quantity, 10),
			price.StringFixed(2),
			supplier.String,
			date,
			strconv.FormatInt(threshold, 10),
			owner,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate inventory: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
