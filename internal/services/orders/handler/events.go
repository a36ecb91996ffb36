package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-system/internal/database/models"

	"go.uber.org/zap"
)

const (
	EventOrderCreated          = "order.created"
	EventOrderDiscountsApplied = "order.discounts_applied"
	EventOrderStatusUpdated    = "order.status_updated"
	EventOrderDeleted          = "order.deleted"

	ORDER_EVENTS_ALL_CHANNEL = "orders:events:all"
)

type OrderEvent struct {
	EventType   string             `json:"event_type"`
	OrderID     int64              `json:"order_id"`
	UserID      int64              `json:"user_id"`
	ActorID     int64              `json:"actor_id"`
	Status      models.OrderStatus `json:"status"`
	Subtotal    string             `json:"subtotal"`
	TotalAmount string             `json:"total_amount"`
	Timestamp   time.Time          `json:"timestamp"`
}

func newOrderEvent(eventType string, order *models.Order, actorID int64) OrderEvent {
	return OrderEvent{
		EventType:   eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		ActorID:     actorID,
		Status:      order.Status,
		Subtotal:    order.Subtotal.StringFixed(2),
		TotalAmount: order.TotalAmount.StringFixed(2),
		Timestamp:   time.Now().UTC(),
	}
}

func (s *OrderHandler) publishOrderEvent(ctx context.Context, event OrderEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := fmt.Sprintf("orders:events:%s", event.EventType)
	if err := s.events.Publish(ctx, channel, eventJSON); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := s.events.Publish(ctx, ORDER_EVENTS_ALL_CHANNEL, eventJSON); err != nil {
		return fmt.Errorf("failed to publish to all channel: %w", err)
	}

	return nil
}

// emit publishes after commit; delivery failures never fail the request.
func (s *OrderHandler) emit(ctx context.Context, event OrderEvent) {
	if err := s.publishOrderEvent(ctx, event); err != nil {
		s.log.Warn("order event not delivered",
			zap.String("event_type", event.EventType),
			zap.Int64("order_id", event.OrderID),
			zap.Error(err))
	}
}
