package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-system/internal/cache"
	"inventory-system/internal/database/models"
	"inventory-system/internal/metrics"
	"inventory-system/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderHandler struct {
	db     *gorm.DB
	events cache.Publisher
	policy StatusPolicy
	log    *zap.Logger
}

func NewOrderHandler(db *gorm.DB, events cache.Publisher, policy StatusPolicy, log *zap.Logger) *OrderHandler {
	if events == nil {
		events = cache.Noop
	}
	if policy == nil {
		policy = PermissivePolicy{}
	}
	return &OrderHandler{
		db:     db,
		events: events,
		policy: policy,
		log:    log,
	}
}

type OrderLineInput struct {
	ItemID   int64 `json:"item_id"`
	Quantity int32 `json:"quantity"`
}

type CreateOrderInput struct {
	Items           []OrderLineInput `json:"items"`
	DeliveryAddress string           `json:"delivery_address"`
	BillingName     string           `json:"billing_name"`
	BillingAddress  string           `json:"billing_address"`
	TaxID           string           `json:"tax_id"`
	Discounts       []DiscountSpec   `json:"discounts"`
}

type OrderPatch struct {
	DeliveryAddress *string `json:"delivery_address"`
	BillingName     *string `json:"billing_name"`
	BillingAddress  *string `json:"billing_address"`
	TaxID           *string `json:"tax_id"`
}

func validateLines(lines []OrderLineInput) error {
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return utils.NewValidationError("quantity", fmt.Sprintf("Quantity for item %d must be at least 1", l.ItemID))
		}
		if seen[l.ItemID] {
			return utils.NewValidationError("items", fmt.Sprintf("Item %d appears more than once", l.ItemID))
		}
		seen[l.ItemID] = true
	}
	return nil
}

func validateAddresses(delivery, billing string) error {
	if strings.TrimSpace(delivery) == "" {
		return utils.NewValidationError("delivery_address", "This field is required.")
	}
	if strings.TrimSpace(billing) == "" {
		return utils.NewValidationError("billing_address", "This field is required.")
	}
	return nil
}

// CreateOrder prices every line at the item's current price and applies the
// optional discounts. Nothing is written unless every referenced item exists.
func (s *OrderHandler) CreateOrder(ctx context.Context, caller utils.Caller, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, utils.NewPermissionError("No items selected for order")
	}
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}
	if err := validateAddresses(in.DeliveryAddress, in.BillingAddress); err != nil {
		return nil, err
	}
	if err := ValidateDiscounts(in.Discounts); err != nil {
		return nil, err
	}

	order := models.Order{
		UserID:          caller.UserID,
		Status:          models.OrderStatusPending,
		Subtotal:        decimal.Zero,
		TotalAmount:     decimal.Zero,
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
		BillingName:     strings.TrimSpace(in.BillingName),
		BillingAddress:  strings.TrimSpace(in.BillingAddress),
		TaxID:           strings.TrimSpace(in.TaxID),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, line := range in.Items {
			var item models.InventoryItem
			if err := tx.Select("id", "price").First(&item, line.ItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NewNotFoundError("InventoryItem", line.ItemID)
				}
				return fmt.Errorf("failed to load item %d: %w", line.ItemID, err)
			}

			oi := models.OrderItem{
				OrderID:      order.ID,
				ItemID:       item.ID,
				Quantity:     line.Quantity,
				PriceAtOrder: item.Price,
			}
			if err := tx.Create(&oi).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return utils.NewValidationError("items", fmt.Sprintf("Item %d appears more than once", line.ItemID))
				}
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		return replaceDiscounts(tx, &order, in.Discounts)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	if len(in.Discounts) > 0 {
		metrics.DiscountApplications.Inc()
	}
	s.emit(ctx, newOrderEvent(EventOrderCreated, &order, caller.UserID))

	return s.loadOrder(ctx, order.ID)
}

// replaceDiscounts recomputes subtotal from the stored lines, prices specs
// against it and swaps the order's discount rows for the new set.
func replaceDiscounts(tx *gorm.DB, order *models.Order, specs []DiscountSpec) error {
	specs = roundDiscounts(specs)

	var lines []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&lines).Error; err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	subtotal := Subtotal(lines)

	total, err := ApplyDiscounts(subtotal, specs)
	if err != nil {
		return err
	}

	order.Subtotal = subtotal
	order.TotalAmount = total
	if err := tx.Model(order).Updates(map[string]interface{}{
		"subtotal":     subtotal,
		"total_amount": total,
	}).Error; err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&models.Discount{}).Error; err != nil {
		return fmt.Errorf("failed to clear discounts: %w", err)
	}

	if len(specs) == 0 {
		return nil
	}
	rows := make([]models.Discount, len(specs))
	for i, d := range specs {
		rows[i] = models.Discount{
			OrderID:     order.ID,
			Sequence:    int32(i),
			Type:        d.Type,
			Value:       d.Value,
			Description: d.Description,
		}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to store discounts: %w", err)
	}
	return nil
}

// ApplyDiscounts replaces the order's discounts with specs and recomputes its totals.
func (s *OrderHandler) ApplyDiscounts(ctx context.Context, caller utils.Caller, orderID int64, specs []DiscountSpec) (*models.Order, error) {
	if err := ValidateDiscounts(specs); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findScopedOrder(tx, caller, orderID, &order); err != nil {
			return err
		}
		return replaceDiscounts(tx, &order, specs)
	})
	if err != nil {
		return nil, err
	}

	metrics.DiscountApplications.Inc()
	s.emit(ctx, newOrderEvent(EventOrderDiscountsApplied, &order, caller.UserID))

	return s.loadOrder(ctx, orderID)
}

func (s *OrderHandler) UpdateStatus(ctx context.Context, caller utils.Caller, orderID int64, status string) (*models.Order, error) {
	if !caller.IsStaff {
		return nil, utils.NewPermissionError("Only admin can update order status")
	}
	if strings.TrimSpace(status) == "" {
		return nil, utils.NewValidationError("status", "Status is required")
	}
	next := models.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, utils.NewValidationError("status", fmt.Sprintf("'%s' is not a valid status", status))
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFoundError("Order", orderID)
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if !s.policy.Allow(order.Status, next) {
			return utils.NewValidationError("status", fmt.Sprintf("Cannot change status from %s to %s", order.Status, next))
		}
		order.Status = next
		if err := tx.Model(&order).Update("status", next).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusUpdates.WithLabelValues(string(next)).Inc()
	s.emit(ctx, newOrderEvent(EventOrderStatusUpdated, &order, caller.UserID))

	return s.loadOrder(ctx, orderID)
}

func findScopedOrder(tx *gorm.DB, caller utils.Caller, id int64, order *models.Order) error {
	q := tx.Model(&models.Order{})
	if !caller.IsStaff {
		q = q.Where("user_id = ?", caller.UserID)
	}
	if err := q.First(order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NewNotFoundError("Order", id)
		}
		return fmt.Errorf("failed to load order: %w", err)
	}
	return nil
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("OrderItems.Item").
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") })
}

func (s *OrderHandler) loadOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := withDetails(s.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}

func (s *OrderHandler) GetOrder(ctx context.Context, caller utils.Caller, id int64) (*models.Order, error) {
	var order models.Order
	q := withDetails(s.db.WithContext(ctx))
	if err := findScopedOrder(q, caller, id, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the caller's orders, or every order for staff, newest first.
func (s *OrderHandler) ListOrders(ctx context.Context, caller utils.Caller) ([]models.Order, error) {
	q := withDetails(s.db.WithContext(ctx)).Order("created_at DESC, id DESC")
	if !caller.IsStaff {
		q = q.Where("user_id = ?", caller.UserID)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// OrderHistory returns only the caller's own orders, even for staff.
func (s *OrderHandler) OrderHistory(ctx context.Context, caller utils.Caller, status string) ([]models.Order, error) {
	q := withDetails(s.db.WithContext(ctx)).Where("user_id = ?", caller.UserID).Order("created_at DESC, id DESC")
	if status != "" {
		st := models.OrderStatus(strings.ToUpper(status))
		if !st.Valid() {
			return nil, utils.NewValidationError("status", fmt.Sprintf("'%s' is not a valid status", status))
		}
		q = q.Where("status = ?", st)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return orders, nil
}

// UpdateOrder edits shipping and billing details only; status and money
// fields have their own operations.
func (s *OrderHandler) UpdateOrder(ctx context.Context, caller utils.Caller, id int64, patch OrderPatch) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := findScopedOrder(tx, caller, id, &order); err != nil {
			return err
		}

		if patch.DeliveryAddress != nil {
			order.DeliveryAddress = strings.TrimSpace(*patch.DeliveryAddress)
		}
		if patch.BillingName != nil {
			order.BillingName = strings.TrimSpace(*patch.BillingName)
		}
		if patch.BillingAddress != nil {
			order.BillingAddress = strings.TrimSpace(*patch.BillingAddress)
		}
		if patch.TaxID != nil {
			order.TaxID = strings.TrimSpace(*patch.TaxID)
		}
		if err := validateAddresses(order.DeliveryAddress, order.BillingAddress); err != nil {
			return err
		}

		return tx.Model(&order).Updates(map[string]interface{}{
			"delivery_address": order.DeliveryAddress,
			"billing_name":     order.BillingName,
			"billing_address":  order.BillingAddress,
			"tax_id":           order.TaxID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, id)
}

// DeleteOrder removes the order with its lines and discounts.
func (s *OrderHandler) DeleteOrder(ctx context.Context, caller utils.Caller, id int64) error {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findScopedOrder(tx, caller, id, &order); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.Discount{}).Error; err != nil {
			return fmt.Errorf("failed to delete discounts: %w", err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit(ctx, newOrderEvent(EventOrderDeleted, &order, caller.UserID))
	return nil
}
