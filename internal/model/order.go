package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the lifecycle status of a customer order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderItemStatus tracks a single line item through the growing stages.
type OrderItemStatus string

const (
	OrderItemStatusPending     OrderItemStatus = "PENDING"
	OrderItemStatusSoaking     OrderItemStatus = "SOAKING"
	OrderItemStatusGerminating OrderItemStatus = "GERMINATING"
	OrderItemStatusGrowing     OrderItemStatus = "GROWING"
	OrderItemStatusHarvested   OrderItemStatus = "HARVESTED"
)

// Order represents a customer order for one or more crops.
type Order struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null;comment:'Tenant this order belongs to'"`
	CustomerName string         `json:"customer_name" gorm:"type:varchar(255);not null"`
	Status       OrderStatus    `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`
	DeliveryDate *time.Time     `json:"delivery_date"`
	Notes        string         `json:"notes" gorm:"type:text"`
	Items        []OrderItem    `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// OrderItem is one crop line on an order. The scheduler fills in the computed
// dates and tray count; they are recomputed whenever quantity, overage or the
// harvest date changes.
type OrderItem struct {
	ID            uint            `json:"id" gorm:"primarykey"`
	OrderID       uint            `json:"order_id" gorm:"index;not null"`
	CropProfileID uint            `json:"crop_profile_id" gorm:"index;not null"`
	CropProfile   *CropProfile    `json:"crop_profile,omitempty"`
	Status        OrderItemStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index"`

	RequestedQuantity float64   `json:"requested_quantity" gorm:"not null"` // ounces
	OveragePercent    float64   `json:"overage_percent" gorm:"default:10"`
	HarvestDate       time.Time `json:"harvest_date" gorm:"not null"`

	// Computed by the scheduler.
	TraysNeeded     int        `json:"trays_needed"`
	RequiresSoaking bool       `json:"requires_soaking"`
	SoakDate        *time.Time `json:"soak_date"`
	SeedDate        *time.Time `json:"seed_date"`
	MoveToLightDate *time.Time `json:"move_to_light_date"`

	// Recorded when the harvest task completes.
	ActualTrays         *int     `json:"actual_trays"`
	ActualYieldQuantity *float64 `json:"actual_yield_quantity"`

	Tasks     []Task         `json:"tasks,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
