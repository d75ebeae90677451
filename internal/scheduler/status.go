package scheduler

import (
	"fmt"

	"farm-service/internal/model"
)

// NextItemStatus returns the order-item status an item moves into when a task
// of the given type completes. The switch is exhaustive over the four
// production task types; anything else is an error rather than a silent no-op.
//
// Completion order is deliberately not enforced: completing HARVEST before
// SEED still moves the item to HARVESTED.
func NextItemStatus(t model.TaskType) (model.OrderItemStatus, error) {
	switch t {
	case model.TaskTypeSoak:
		return model.OrderItemStatusSoaking, nil
	case model.TaskTypeSeed:
		return model.OrderItemStatusGerminating, nil
	case model.TaskTypeMoveToLight:
		return model.OrderItemStatusGrowing, nil
	case model.TaskTypeHarvest:
		return model.OrderItemStatusHarvested, nil
	default:
		return "", fmt.Errorf("no order item status transition for task type %q", t)
	}
}

// OrderReady reports whether every item of an order has been harvested. The
// caller re-reads all sibling items on every harvest event, which keeps the
// check idempotent and safe under out-of-order completion.
func OrderReady(items []model.OrderItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.Status != model.OrderItemStatusHarvested {
			return false
		}
	}
	return true
}
