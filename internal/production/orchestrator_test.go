package production_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"farm-service/internal/model"
	"farm-service/internal/production"
	"farm-service/pkg/database"
)

const testTenant uint = 1

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewTestDB()
	require.NoError(t, err)
	return db
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// seedProfile creates a schedulable sunflower profile: 8 oz/tray, 1 soak day,
// 3 germination days, 5 light days.
func seedProfile(t *testing.T, db *gorm.DB) *model.CropProfile {
	t.Helper()
	profile := &model.CropProfile{
		TenantID:            testTenant,
		Name:                "Sunflower",
		AverageYieldPerTray: ptr(8.0),
		SoakDays:            ptr(1),
		GerminationDays:     ptr(3),
		LightDays:           ptr(5),
		IsActive:            true,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func createOrder(t *testing.T, db *gorm.DB, items ...model.OrderItem) *model.Order {
	t.Helper()
	order := &model.Order{
		TenantID:     testTenant,
		CustomerName: "Green Leaf Cafe",
		Items:        items,
	}
	require.NoError(t, production.CreateOrder(db, order))
	return order
}

func taskOfType(t *testing.T, tasks []model.Task, taskType model.TaskType) *model.Task {
	t.Helper()
	for i := range tasks {
		if tasks[i].Type == taskType {
			return &tasks[i]
		}
	}
	t.Fatalf("no %s task found", taskType)
	return nil
}

func itemTasks(t *testing.T, db *gorm.DB, itemID uint) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, db.Where("order_item_id = ?", itemID).Order("due_date ASC").Find(&tasks).Error)
	return tasks
}

func TestCreateOrder_ComputesScheduleAndTasks(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)

	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, 3, item.TraysNeeded)
	assert.True(t, item.RequiresSoaking)
	assert.Equal(t, model.OrderItemStatusPending, item.Status)
	require.NotNil(t, item.SeedDate)
	assert.Equal(t, date(2024, time.January, 11), *item.SoakDate)
	assert.Equal(t, date(2024, time.January, 12), *item.SeedDate)
	assert.Equal(t, date(2024, time.January, 15), *item.MoveToLightDate)
	assert.Equal(t, date(2024, time.January, 20), item.HarvestDate)

	tasks := itemTasks(t, db, item.ID)
	require.Len(t, tasks, 4)
	assert.Equal(t, model.TaskTypeSoak, tasks[0].Type)
	assert.Equal(t, model.TaskTypeHarvest, tasks[3].Type)
	for _, task := range tasks {
		assert.Equal(t, model.TaskStatusTodo, task.Status)
		assert.Equal(t, testTenant, task.TenantID)
	}

	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestCreateOrder_NoSoakCropGetsThreeTasks(t *testing.T) {
	db := newTestDB(t)
	profile := &model.CropProfile{
		TenantID:            testTenant,
		Name:                "Pea Shoots",
		AverageYieldPerTray: ptr(10.0),
		GerminationDays:     ptr(4),
		LightDays:           ptr(6),
		IsActive:            true,
	}
	require.NoError(t, db.Create(profile).Error)

	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 20,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.February, 10),
	})

	item := order.Items[0]
	assert.False(t, item.RequiresSoaking)
	tasks := itemTasks(t, db, item.ID)
	require.Len(t, tasks, 3)
	assert.Equal(t, model.TaskTypeSeed, tasks[0].Type)
}

func TestCreateOrder_MissingProductionDataRollsBack(t *testing.T) {
	db := newTestDB(t)
	profile := &model.CropProfile{
		TenantID:        testTenant,
		Name:            "Unscheduled Basil",
		GerminationDays: ptr(5),
		// no average yield, no light days
	}
	require.NoError(t, db.Create(profile).Error)

	order := &model.Order{
		TenantID:     testTenant,
		CustomerName: "Green Leaf Cafe",
		Items: []model.OrderItem{{
			CropProfileID:     profile.ID,
			RequestedQuantity: 16,
			OveragePercent:    10,
			HarvestDate:       date(2024, time.January, 20),
		}},
	}
	err := production.CreateOrder(db, order)

	require.ErrorIs(t, err, production.ErrMissingProductionData)

	// Nothing partial may survive the rollback.
	var orders, items, tasks int64
	db.Model(&model.Order{}).Count(&orders)
	db.Model(&model.OrderItem{}).Count(&items)
	db.Model(&model.Task{}).Count(&tasks)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, tasks)
}

func TestCreateOrder_UnknownProfileRollsBack(t *testing.T) {
	db := newTestDB(t)

	err := production.CreateOrder(db, &model.Order{
		TenantID:     testTenant,
		CustomerName: "Green Leaf Cafe",
		Items: []model.OrderItem{{
			CropProfileID:     999,
			RequestedQuantity: 16,
			HarvestDate:       date(2024, time.January, 20),
		}},
	})

	require.ErrorIs(t, err, production.ErrCropProfileNotFound)
	var orders int64
	db.Model(&model.Order{}).Count(&orders)
	assert.Zero(t, orders)
}

func TestRescheduleOrderItem_RecomputesWithoutDuplicatingTasks(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})
	itemID := order.Items[0].ID

	// Bump overage only: 16 * 1.9 = 30.4 oz -> 4 trays; dates unchanged.
	item, err := production.RescheduleOrderItem(db, testTenant, order.ID, itemID, production.ItemEdit{
		OveragePercent: ptr(90.0),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, item.TraysNeeded)
	assert.Equal(t, date(2024, time.January, 12), *item.SeedDate)

	tasks := itemTasks(t, db, itemID)
	assert.Len(t, tasks, 4, "reschedule must not create duplicate tasks")

	// Move the harvest date: every due date shifts with it.
	item, err = production.RescheduleOrderItem(db, testTenant, order.ID, itemID, production.ItemEdit{
		HarvestDate: ptr(date(2024, time.January, 22)),
	})
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.January, 22), item.HarvestDate)
	assert.Equal(t, date(2024, time.January, 14), *item.SeedDate)

	tasks = itemTasks(t, db, itemID)
	require.Len(t, tasks, 4)
	assert.WithinDuration(t, date(2024, time.January, 13), taskOfType(t, tasks, model.TaskTypeSoak).DueDate, time.Second)
	assert.WithinDuration(t, date(2024, time.January, 14), taskOfType(t, tasks, model.TaskTypeSeed).DueDate, time.Second)
	assert.WithinDuration(t, date(2024, time.January, 17), taskOfType(t, tasks, model.TaskTypeMoveToLight).DueDate, time.Second)
	assert.WithinDuration(t, date(2024, time.January, 22), taskOfType(t, tasks, model.TaskTypeHarvest).DueDate, time.Second)
}

func TestRescheduleOrderItem_KeepsCompletionState(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})
	itemID := order.Items[0].ID

	soak := taskOfType(t, itemTasks(t, db, itemID), model.TaskTypeSoak)
	_, err := production.CompleteTask(db, testTenant, soak.ID, production.CompletionInput{CompletedBy: "ana"})
	require.NoError(t, err)

	_, err = production.RescheduleOrderItem(db, testTenant, order.ID, itemID, production.ItemEdit{
		HarvestDate: ptr(date(2024, time.January, 25)),
	})
	require.NoError(t, err)

	soak = taskOfType(t, itemTasks(t, db, itemID), model.TaskTypeSoak)
	assert.Equal(t, model.TaskStatusCompleted, soak.Status)
	assert.Equal(t, "ana", soak.CompletedBy)
	assert.WithinDuration(t, date(2024, time.January, 16), soak.DueDate, time.Second, "due date still retargeted")
}

func TestCompleteTask_AdvancesItemAndOrder(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})
	itemID := order.Items[0].ID

	seed := taskOfType(t, itemTasks(t, db, itemID), model.TaskTypeSeed)
	task, err := production.CompleteTask(db, testTenant, seed.ID, production.CompletionInput{CompletedBy: "ana"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)

	var item model.OrderItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, model.OrderItemStatusGerminating, item.Status)

	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderStatusInProgress, stored.Status)
}

func TestCompleteTask_BlankCompletedByRejected(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})
	seed := taskOfType(t, itemTasks(t, db, order.Items[0].ID), model.TaskTypeSeed)

	_, err := production.CompleteTask(db, testTenant, seed.ID, production.CompletionInput{CompletedBy: "   "})

	require.ErrorIs(t, err, production.ErrIncompleteCompletion)
	var stored model.Task
	require.NoError(t, db.First(&stored, seed.ID).Error)
	assert.Equal(t, model.TaskStatusTodo, stored.Status, "no mutation on a rejected request")
}

func TestCompleteTask_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := production.CompleteTask(db, testTenant, 12345, production.CompletionInput{CompletedBy: "ana"})
	require.ErrorIs(t, err, production.ErrTaskNotFound)
}

func TestCompleteHarvest_RecordsActualsAndLearnsYield(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})
	itemID := order.Items[0].ID

	harvest := taskOfType(t, itemTasks(t, db, itemID), model.TaskTypeHarvest)
	_, err := production.CompleteTask(db, testTenant, harvest.ID, production.CompletionInput{
		CompletedBy:         "ana",
		ActualTrays:         ptr(3),
		ActualYieldQuantity: ptr(30.0),
	})
	require.NoError(t, err)

	var item model.OrderItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, model.OrderItemStatusHarvested, item.Status)
	require.NotNil(t, item.ActualTrays)
	assert.Equal(t, 3, *item.ActualTrays)
	require.NotNil(t, item.ActualYieldQuantity)
	assert.InDelta(t, 30.0, *item.ActualYieldQuantity, 1e-9)

	// 30/3 observes 10 oz/tray; 0.3*10 + 0.7*8 = 8.6.
	var stored model.CropProfile
	require.NoError(t, db.First(&stored, profile.ID).Error)
	require.NotNil(t, stored.AverageYieldPerTray)
	assert.InDelta(t, 8.6, *stored.AverageYieldPerTray, 1e-9)

	// Single-item order: harvesting it makes the order READY.
	var storedOrder model.Order
	require.NoError(t, db.First(&storedOrder, order.ID).Error)
	assert.Equal(t, model.OrderStatusReady, storedOrder.Status)
}

func TestCompleteHarvest_RecompletionDoesNotReapplyYield(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})
	harvest := taskOfType(t, itemTasks(t, db, order.Items[0].ID), model.TaskTypeHarvest)

	input := production.CompletionInput{
		CompletedBy:         "ana",
		ActualTrays:         ptr(3),
		ActualYieldQuantity: ptr(30.0),
	}
	_, err := production.CompleteTask(db, testTenant, harvest.ID, input)
	require.NoError(t, err)
	_, err = production.CompleteTask(db, testTenant, harvest.ID, input)
	require.NoError(t, err)

	var stored model.CropProfile
	require.NoError(t, db.First(&stored, profile.ID).Error)
	assert.InDelta(t, 8.6, *stored.AverageYieldPerTray, 1e-9, "EMA applied exactly once")
}

func TestOrderReady_RequiresEveryItemHarvested(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db,
		model.OrderItem{
			CropProfileID:     profile.ID,
			RequestedQuantity: 16,
			OveragePercent:    10,
			HarvestDate:       date(2024, time.January, 20),
		},
		model.OrderItem{
			CropProfileID:     profile.ID,
			RequestedQuantity: 8,
			OveragePercent:    10,
			HarvestDate:       date(2024, time.January, 21),
		},
	)

	first := taskOfType(t, itemTasks(t, db, order.Items[0].ID), model.TaskTypeHarvest)
	_, err := production.CompleteTask(db, testTenant, first.ID, production.CompletionInput{CompletedBy: "ana"})
	require.NoError(t, err)

	var stored model.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderStatusInProgress, stored.Status, "one harvested item is not enough")

	second := taskOfType(t, itemTasks(t, db, order.Items[1].ID), model.TaskTypeHarvest)
	_, err = production.CompleteTask(db, testTenant, second.ID, production.CompletionInput{CompletedBy: "ben"})
	require.NoError(t, err)

	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, model.OrderStatusReady, stored.Status)
}

func TestUpdateOrderStatus_DeliverAndCancel(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})

	// Not READY yet: delivering is rejected.
	_, err := production.UpdateOrderStatus(db, testTenant, order.ID, model.OrderStatusDelivered)
	require.ErrorIs(t, err, production.ErrInvalidStatusChange)

	// Cancelling also cancels the open tasks.
	cancelled, err := production.UpdateOrderStatus(db, testTenant, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	for _, task := range itemTasks(t, db, order.Items[0].ID) {
		assert.Equal(t, model.TaskStatusCancelled, task.Status)
	}
}

func TestDeleteOrder_CascadesToItemsAndTasks(t *testing.T) {
	db := newTestDB(t)
	profile := seedProfile(t, db)
	order := createOrder(t, db, model.OrderItem{
		CropProfileID:     profile.ID,
		RequestedQuantity: 16,
		OveragePercent:    10,
		HarvestDate:       date(2024, time.January, 20),
	})

	require.NoError(t, production.DeleteOrder(db, testTenant, order.ID))

	var orders, items, tasks int64
	db.Model(&model.Order{}).Count(&orders)
	db.Model(&model.OrderItem{}).Count(&items)
	db.Model(&model.Task{}).Count(&tasks)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, tasks)
}
