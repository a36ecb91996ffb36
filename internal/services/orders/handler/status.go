package handler

import "inventory-system/internal/database/models"

type StatusPolicy interface {
	Allow(from, to models.OrderStatus) bool
}

// PermissivePolicy lets staff move an order to any known status from any state.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(_, to models.OrderStatus) bool {
	return to.Valid()
}

// StrictPolicy follows the fulfilment lifecycle. DELIVERED and CANCELLED are terminal.
type StrictPolicy struct{}

var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

func (StrictPolicy) Allow(from, to models.OrderStatus) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range strictTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func PolicyFor(strict bool) StatusPolicy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}
