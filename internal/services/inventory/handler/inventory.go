package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-system/internal/cache"
	"inventory-system/internal/database/models"
	"inventory-system/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	INVENTORY_CACHE_PREFIX = "inventory:"
	LOW_STOCK_CACHE_PREFIX = INVENTORY_CACHE_PREFIX + "low-stock:"
	LOW_STOCK_ALL_KEY      = LOW_STOCK_CACHE_PREFIX + "all"

	dateLayout = "2006-01-02"
)

type InventoryHandler struct {
	db    *gorm.DB
	cache cache.Store
	log   *zap.Logger
}

func NewInventoryHandler(db *gorm.DB, store cache.Store, log *zap.Logger) *InventoryHandler {
	if store == nil {
		store = cache.Noop
	}
	return &InventoryHandler{
		db:    db,
		cache: store,
		log:   log,
	}
}

func lowStockKey(caller utils.Caller) string {
	if caller.IsStaff {
		return LOW_STOCK_ALL_KEY
	}
	return fmt.Sprintf("%s%d", LOW_STOCK_CACHE_PREFIX, caller.UserID)
}

// InvalidateInventoryCaches drops the low-stock views that may contain items of the given owners.
func (s *InventoryHandler) InvalidateInventoryCaches(ctx context.Context, ownerIDs ...int64) {
	keys := []string{LOW_STOCK_ALL_KEY}
	for _, id := range ownerIDs {
		keys = append(keys, fmt.Sprintf("%s%d", LOW_STOCK_CACHE_PREFIX, id))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate inventory caches", zap.Error(err), zap.Strings("keys", keys))
	}
}

type ItemInput struct {
	UserID         *int64          `json:"user_id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Quantity       int32           `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	SupplierID     *int64          `json:"supplier_id"`
	ExpirationDate *string         `json:"expiration_date"`
	Threshold      int32           `json:"threshold"`
}

// ItemPatch carries the fields of an update; nil fields are left untouched.
type ItemPatch struct {
	Name           *string          `json:"name"`
	SKU            *string          `json:"sku"`
	Quantity       *int32           `json:"quantity"`
	Price          *decimal.Decimal `json:"price"`
	SupplierID     *int64           `json:"supplier_id"`
	ClearSupplier  bool             `json:"clear_supplier"`
	ExpirationDate *string          `json:"expiration_date"`
	Threshold      *int32           `json:"threshold"`
}

type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p ListParams) normalize() (limit, offset int) {
	limit = p.PageSize
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, utils.NewValidationError(field, "Date has wrong format. Use YYYY-MM-DD.")
	}
	return &t, nil
}

func validateItemFields(name, sku string, quantity, threshold int32, price decimal.Decimal) error {
	switch {
	case strings.TrimSpace(name) == "":
		return utils.NewValidationError("name", "This field is required.")
	case strings.TrimSpace(sku) == "":
		return utils.NewValidationError("sku", "This field is required.")
	case quantity < 0:
		return utils.NewValidationError("quantity", "Ensure this value is greater than or equal to 0.")
	case threshold < 0:
		return utils.NewValidationError("threshold", "Ensure this value is greater than or equal to 0.")
	case price.IsNegative():
		return utils.NewValidationError("price", "Ensure this value is greater than or equal to 0.")
	}
	return nil
}

// visibleSupplier loads a supplier the caller may reference from an item.
func visibleSupplier(tx *gorm.DB, caller utils.Caller, id int64) error {
	var supplier models.Supplier
	if err := tx.Select("id", "created_by").First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewValidationError("supplier_id", "Supplier not found")
		}
		return fmt.Errorf("failed to load supplier: %w", err)
	}
	if !caller.CanAccess(supplier.CreatedBy) {
		return utils.NewValidationError("supplier_id", "Supplier not found")
	}
	return nil
}

func (s *InventoryHandler) CreateItem(ctx context.Context, caller utils.Caller, in ItemInput) (*models.InventoryItem, error) {
	if err := validateItemFields(in.Name, in.SKU, in.Quantity, in.Threshold, in.Price); err != nil {
		return nil, err
	}
	expiration, err := parseDate("expiration_date", in.ExpirationDate)
	if err != nil {
		return nil, err
	}

	ownerID := caller.UserID
	if in.UserID != nil && *in.UserID != caller.UserID {
		if !caller.IsStaff {
			return nil, utils.NewPermissionError("Only staff can create items for other users")
		}
		ownerID = *in.UserID
	}

	item := models.InventoryItem{
		UserID:         ownerID,
		Name:           strings.TrimSpace(in.Name),
		SKU:            strings.TrimSpace(in.SKU),
		Quantity:       in.Quantity,
		Price:          in.Price.Round(2),
		SupplierID:     in.SupplierID,
		ExpirationDate: expiration,
		Threshold:      in.Threshold,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ownerID != caller.UserID {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", ownerID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to load owner: %w", err)
			}
			if count == 0 {
				return utils.NewValidationError("user_id", "User does not exist")
			}
		}
		if item.SupplierID != nil {
			if err := visibleSupplier(tx, caller, *item.SupplierID); err != nil {
				return err
			}
		}
		if err := checkSKUAvailable(tx, ownerID, item.SKU, 0); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return translateItemWriteError(err, item.SKU)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateInventoryCaches(ctx, ownerID)
	return &item, nil
}

func (s *InventoryHandler) scopedItems(ctx context.Context, caller utils.Caller) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.InventoryItem{})
	if !caller.IsStaff {
		q = q.Where("inventory_items.user_id = ?", caller.UserID)
	}
	return q
}

func (s *InventoryHandler) GetItem(ctx context.Context, caller utils.Caller, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.scopedItems(ctx, caller).Preload("Supplier").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("InventoryItem", id)
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

func (s *InventoryHandler) ListItems(ctx context.Context, caller utils.Caller, params ListParams) ([]models.InventoryItem, int64, error) {
	q := s.scopedItems(ctx, caller)
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	limit, offset := params.normalize()
	var items []models.InventoryItem
	if err := q.Preload("Supplier").Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return items, total, nil
}

func (s *InventoryHandler) UpdateItem(ctx context.Context, caller utils.Caller, id int64, patch ItemPatch) (*models.InventoryItem, error) {
	var (
		item   models.InventoryItem
		wasLow bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.InventoryItem{})
		if !caller.IsStaff {
			q = q.Where("user_id = ?", caller.UserID)
		}
		if err := q.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("InventoryItem", id)
			}
			return fmt.Errorf("failed to load item: %w", err)
		}
		wasLow = item.IsLowStock()

		if patch.Name != nil {
			item.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.SKU != nil {
			item.SKU = strings.TrimSpace(*patch.SKU)
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.Price != nil {
			item.Price = patch.Price.Round(2)
		}
		if patch.Threshold != nil {
			item.Threshold = *patch.Threshold
		}
		if patch.ExpirationDate != nil {
			expiration, err := parseDate("expiration_date", patch.ExpirationDate)
			if err != nil {
				return err
			}
			item.ExpirationDate = expiration
		}
		if patch.ClearSupplier {
			item.SupplierID = nil
		} else if patch.SupplierID != nil {
			if err := visibleSupplier(tx, caller, *patch.SupplierID); err != nil {
				return err
			}
			item.SupplierID = patch.SupplierID
		}

		if err := validateItemFields(item.Name, item.SKU, item.Quantity, item.Threshold, item.Price); err != nil {
			return err
		}
		// Uniqueness is per owner, which differs from the caller when staff edit another user's item.
		if err := checkSKUAvailable(tx, item.UserID, item.SKU, item.ID); err != nil {
			return err
		}

		item.Supplier = nil
		if err := tx.Save(&item).Error; err != nil {
			return translateItemWriteError(err, item.SKU)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateInventoryCaches(ctx, item.UserID)
	if !wasLow && item.IsLowStock() {
		s.log.Warn("item dropped below restock threshold",
			zap.Int64("item_id", item.ID),
			zap.Int64("owner_id", item.UserID),
			zap.String("sku", item.SKU),
			zap.Int32("quantity", item.Quantity),
			zap.Int32("threshold", item.Threshold))
	}
	return &item, nil
}

func (s *InventoryHandler) DeleteItem(ctx context.Context, caller utils.Caller, id int64) error {
	var item models.InventoryItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.InventoryItem{})
		if !caller.IsStaff {
			q = q.Where("user_id = ?", caller.UserID)
		}
		if err := q.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("InventoryItem", id)
			}
			return fmt.Errorf("failed to load item: %w", err)
		}

		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("item_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("failed to check order references: %w", err)
		}
		if refs > 0 {
			return itemInUse()
		}

		if err := tx.Delete(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return itemInUse()
			}
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.InvalidateInventoryCaches(ctx, item.UserID)
	return nil
}

func itemInUse() error {
	return utils.NewValidationError("item", "Item is referenced by existing orders and cannot be deleted")
}

func (s *InventoryHandler) cachedItems(ctx context.Context, key string) ([]models.InventoryItem, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var items []models.InventoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return items, true
}
