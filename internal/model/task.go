package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskType identifies a production stage. The scheduler generates one task per
// stage for every order item (SOAK only for crops that are soaked).
type TaskType string

const (
	TaskTypeSoak        TaskType = "SOAK"
	TaskTypeSeed        TaskType = "SEED"
	TaskTypeMoveToLight TaskType = "MOVE_TO_LIGHT"
	TaskTypeHarvest     TaskType = "HARVEST"
)

// TaskStatus is the lifecycle status of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// TaskPriority orders tasks on the daily board.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task is a dated unit of farm work. Production tasks belong to an order item;
// OrderItemID is nullable so general farm tasks can share the same table.
type Task struct {
	ID          uint         `json:"id" gorm:"primarykey"`
	TenantID    uint         `json:"tenant_id" gorm:"index;not null;comment:'Tenant this task belongs to'"`
	OrderItemID *uint        `json:"order_item_id" gorm:"index"`
	Type        TaskType     `json:"type" gorm:"type:varchar(20);not null;index"`
	Title       string       `json:"title" gorm:"type:varchar(255);not null"`
	Description string       `json:"description" gorm:"type:text"`
	DueDate     time.Time    `json:"due_date" gorm:"not null;index"`
	Status      TaskStatus   `json:"status" gorm:"type:varchar(20);default:'TODO';index"`
	Priority    TaskPriority `json:"priority" gorm:"type:varchar(10);default:'MEDIUM'"`

	CompletedAt         *time.Time `json:"completed_at"`
	CompletedBy         string     `json:"completed_by" gorm:"type:varchar(100)"`
	ActualTrays         *int       `json:"actual_trays"`
	ActualYieldQuantity *float64   `json:"actual_yield_quantity"`
	Notes               string     `json:"notes" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
