// Package production composes the pure scheduler with the persistence layer.
// Every exported operation runs inside a single gorm transaction so an order
// is never observable with a partially generated schedule, and a task
// completion commits its cascading status updates as one unit.
package production

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"farm-service/internal/model"
	"farm-service/internal/scheduler"
)

// ItemEdit carries the editable scheduling inputs of an order item. Nil fields
// are left unchanged.
type ItemEdit struct {
	RequestedQuantity *float64
	OveragePercent    *float64
	HarvestDate       *time.Time
}

// CompletionInput is a request to complete a task. ActualTrays and
// ActualYieldQuantity are only meaningful on HARVEST tasks.
type CompletionInput struct {
	CompletedBy         string
	CompletedAt         *time.Time
	Notes               string
	ActualTrays         *int
	ActualYieldQuantity *float64
}

// CreateOrder persists a new order, computes the production schedule for every
// item and generates the production tasks, all in one transaction. On return
// order.Items carries the computed fields and created tasks.
func CreateOrder(db *gorm.DB, order *model.Order) error {
	items := order.Items
	order.Items = nil
	order.Status = model.OrderStatusPending

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := scheduleItem(tx, order.TenantID, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.Items = items
	return nil
}

// scheduleItem computes and stores the schedule for one order item and creates
// its production tasks.
func scheduleItem(tx *gorm.DB, tenantID uint, item *model.OrderItem) error {
	profile, err := findProfile(tx, tenantID, item.CropProfileID)
	if err != nil {
		return err
	}

	sched, err := computeForProfile(profile, item)
	if err != nil {
		return err
	}
	applySchedule(item, sched)
	item.Status = model.OrderItemStatusPending

	if err := tx.Create(item).Error; err != nil {
		return fmt.Errorf("create order item: %w", err)
	}

	specs := scheduler.GenerateTasks(sched, profile.Name, item.RequestedQuantity)
	for _, spec := range specs {
		task := model.Task{
			TenantID:    tenantID,
			OrderItemID: &item.ID,
			Type:        spec.Type,
			Title:       spec.Title,
			Description: spec.Description,
			DueDate:     spec.DueDate,
			Status:      spec.Status,
			Priority:    spec.Priority,
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("create %s task: %w", spec.Type, err)
		}
		item.Tasks = append(item.Tasks, task)
	}
	return nil
}

// RescheduleOrderItem recomputes an item's schedule after its quantity,
// overage or harvest date changed, using the current crop profile snapshot.
// Existing tasks keep their identity and completion state; only their due
// dates are retargeted by type.
func RescheduleOrderItem(db *gorm.DB, tenantID, orderID, itemID uint, edit ItemEdit) (*model.OrderItem, error) {
	var item model.OrderItem

	err := db.Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := tx.Where("id = ? AND order_id = ?", itemID, orderID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderItemNotFound
			}
			return err
		}

		if edit.RequestedQuantity != nil {
			item.RequestedQuantity = *edit.RequestedQuantity
		}
		if edit.OveragePercent != nil {
			item.OveragePercent = *edit.OveragePercent
		}
		if edit.HarvestDate != nil {
			item.HarvestDate = *edit.HarvestDate
		}

		profile, err := findProfile(tx, tenantID, item.CropProfileID)
		if err != nil {
			return err
		}
		sched, err := computeForProfile(profile, &item)
		if err != nil {
			return err
		}
		applySchedule(&item, sched)

		if err := tx.Save(&item).Error; err != nil {
			return fmt.Errorf("save order item: %w", err)
		}

		var tasks []model.Task
		if err := tx.Where("order_item_id = ?", item.ID).Find(&tasks).Error; err != nil {
			return err
		}
		for i := range tasks {
			due, ok := dueDateForType(sched, tasks[i].Type)
			if !ok {
				continue
			}
			if err := tx.Model(&tasks[i]).Update("due_date", due).Error; err != nil {
				return fmt.Errorf("retarget %s task: %w", tasks[i].Type, err)
			}
			tasks[i].DueDate = due
		}
		item.Tasks = tasks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CompleteTask marks a task completed and applies the cascading updates: the
// owning item's status, on harvest the actuals and the crop's yield average,
// and the order-level readiness scan. Completing an already completed task is
// a no-op so the yield update is never applied twice.
func CompleteTask(db *gorm.DB, tenantID, taskID uint, in CompletionInput) (*model.Task, error) {
	if strings.TrimSpace(in.CompletedBy) == "" {
		return nil, ErrIncompleteCompletion
	}

	var task model.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND tenant_id = ?", taskID, tenantID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		switch task.Status {
		case model.TaskStatusCompleted:
			// Already done; never reapply the cascade.
			return nil
		case model.TaskStatusCancelled:
			return ErrTaskCancelled
		}

		completedAt := time.Now().UTC()
		if in.CompletedAt != nil {
			completedAt = *in.CompletedAt
		}
		task.Status = model.TaskStatusCompleted
		task.CompletedAt = &completedAt
		task.CompletedBy = in.CompletedBy
		if in.Notes != "" {
			task.Notes = in.Notes
		}
		task.ActualTrays = in.ActualTrays
		task.ActualYieldQuantity = in.ActualYieldQuantity
		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("save task: %w", err)
		}

		if task.OrderItemID == nil {
			// General farm task, no production cascade.
			return nil
		}
		return propagateCompletion(tx, tenantID, &task, in)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// propagateCompletion applies the item status machine, the harvest actuals and
// yield learning, and the order readiness scan for one completed task.
func propagateCompletion(tx *gorm.DB, tenantID uint, task *model.Task, in CompletionInput) error {
	var item model.OrderItem
	if err := tx.First(&item, *task.OrderItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderItemNotFound
		}
		return err
	}

	next, err := scheduler.NextItemStatus(task.Type)
	if err != nil {
		return err
	}
	item.Status = next

	if task.Type == model.TaskTypeHarvest {
		if in.ActualTrays != nil {
			item.ActualTrays = in.ActualTrays
		}
		if in.ActualYieldQuantity != nil {
			item.ActualYieldQuantity = in.ActualYieldQuantity
		}
		if in.ActualTrays != nil && in.ActualYieldQuantity != nil && *in.ActualTrays > 0 {
			if err := updateCropYield(tx, tenantID, item.CropProfileID, *in.ActualYieldQuantity, *in.ActualTrays); err != nil {
				return err
			}
		}
	}

	if err := tx.Save(&item).Error; err != nil {
		return fmt.Errorf("save order item: %w", err)
	}

	var order model.Order
	if err := tx.First(&order, item.OrderID).Error; err != nil {
		return err
	}
	if order.Status == model.OrderStatusPending {
		order.Status = model.OrderStatusInProgress
	}
	if item.Status == model.OrderItemStatusHarvested && order.Status == model.OrderStatusInProgress {
		var siblings []model.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&siblings).Error; err != nil {
			return err
		}
		if scheduler.OrderReady(siblings) {
			order.Status = model.OrderStatusReady
		}
	}
	if err := tx.Save(&order).Error; err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// updateCropYield folds one harvest observation into the crop's average yield
// per tray as a single UPDATE expression, so two harvests of the same crop
// committing at the same time cannot lose each other's update.
func updateCropYield(tx *gorm.DB, tenantID, cropProfileID uint, actualYieldQuantity float64, actualTrays int) error {
	observed := scheduler.ObservedYieldPerTray(actualYieldQuantity, actualTrays)
	res := tx.Model(&model.CropProfile{}).
		Where("id = ? AND tenant_id = ?", cropProfileID, tenantID).
		Update("average_yield_per_tray", gorm.Expr(
			"CASE WHEN average_yield_per_tray IS NULL OR average_yield_per_tray <= 0 THEN ? "+
				"ELSE ? * ? + ? * average_yield_per_tray END",
			observed,
			scheduler.YieldSmoothing, observed, 1-scheduler.YieldSmoothing,
		))
	if res.Error != nil {
		return fmt.Errorf("update crop yield: %w", res.Error)
	}
	return nil
}

// StartTask moves a TODO task to IN_PROGRESS.
func StartTask(db *gorm.DB, tenantID, taskID uint) (*model.Task, error) {
	var task model.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND tenant_id = ?", taskID, tenantID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		if task.Status != model.TaskStatusTodo {
			return fmt.Errorf("%w: cannot start a %s task", ErrInvalidStatusChange, task.Status)
		}
		task.Status = model.TaskStatusInProgress
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateOrderStatus applies an explicit order status change. DELIVERED is only
// reachable from READY; CANCELLED is reachable from any non-terminal status
// and also cancels the order's open tasks.
func UpdateOrderStatus(db *gorm.DB, tenantID, orderID uint, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		switch status {
		case model.OrderStatusDelivered:
			if order.Status != model.OrderStatusReady {
				return fmt.Errorf("%w: order must be READY to deliver, is %s", ErrInvalidStatusChange, order.Status)
			}
		case model.OrderStatusCancelled:
			if order.Status == model.OrderStatusDelivered || order.Status == model.OrderStatusCancelled {
				return fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidStatusChange, order.Status)
			}
		default:
			return fmt.Errorf("%w: order status cannot be set to %s directly", ErrInvalidStatusChange, status)
		}

		order.Status = status
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		if status == model.OrderStatusCancelled {
			itemIDs := tx.Model(&model.OrderItem{}).Select("id").Where("order_id = ?", order.ID)
			err := tx.Model(&model.Task{}).
				Where("order_item_id IN (?) AND status IN ?", itemIDs,
					[]model.TaskStatus{model.TaskStatusTodo, model.TaskStatusInProgress}).
				Update("status", model.TaskStatusCancelled).Error
			if err != nil {
				return fmt.Errorf("cancel open tasks: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder removes an order with its items and tasks in one transaction.
func DeleteOrder(db *gorm.DB, tenantID, orderID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Where("id = ? AND tenant_id = ?", orderID, tenantID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		itemIDs := tx.Model(&model.OrderItem{}).Select("id").Where("order_id = ?", order.ID)
		if err := tx.Where("order_item_id IN (?)", itemIDs).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

func findProfile(tx *gorm.DB, tenantID, cropProfileID uint) (*model.CropProfile, error) {
	var profile model.CropProfile
	err := tx.Where("id = ? AND tenant_id = ?", cropProfileID, tenantID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCropProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// computeForProfile validates that the profile is schedulable and runs the
// calculator with the item's current inputs.
func computeForProfile(profile *model.CropProfile, item *model.OrderItem) (scheduler.Schedule, error) {
	if !profile.Schedulable() {
		return scheduler.Schedule{}, fmt.Errorf("%w: crop profile %q needs average yield per tray, germination days and light days",
			ErrMissingProductionData, profile.Name)
	}
	soakDays := 0
	if profile.SoakDays != nil {
		soakDays = *profile.SoakDays
	}
	return scheduler.ComputeSchedule(scheduler.ScheduleInput{
		Quantity:            item.RequestedQuantity,
		AverageYieldPerTray: *profile.AverageYieldPerTray,
		OveragePercent:      item.OveragePercent,
		HarvestDate:         item.HarvestDate,
		SoakDays:            soakDays,
		GerminationDays:     *profile.GerminationDays,
		LightDays:           *profile.LightDays,
	})
}

func applySchedule(item *model.OrderItem, sched scheduler.Schedule) {
	soakDate := sched.SoakDate
	seedDate := sched.SeedDate
	moveToLightDate := sched.MoveToLightDate
	item.TraysNeeded = sched.TraysNeeded
	item.RequiresSoaking = sched.RequiresSoaking
	item.SoakDate = &soakDate
	item.SeedDate = &seedDate
	item.MoveToLightDate = &moveToLightDate
	item.HarvestDate = sched.HarvestDate
}

// dueDateForType maps a task type onto the matching date of a schedule.
func dueDateForType(sched scheduler.Schedule, t model.TaskType) (time.Time, bool) {
	switch t {
	case model.TaskTypeSoak:
		return sched.SoakDate, true
	case model.TaskTypeSeed:
		return sched.SeedDate, true
	case model.TaskTypeMoveToLight:
		return sched.MoveToLightDate, true
	case model.TaskTypeHarvest:
		return sched.HarvestDate, true
	default:
		return time.Time{}, false
	}
}
