package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"farm-service/internal/middleware"
	"farm-service/internal/model"
	"farm-service/internal/production"
	"farm-service/internal/scheduler"
	"farm-service/pkg/database"
	"farm-service/pkg/logger"
	"farm-service/prometheus"
)

// OrderItemRequest is one crop line on an order creation request.
type OrderItemRequest struct {
	CropProfileID     uint     `json:"crop_profile_id" validate:"required"`
	RequestedQuantity float64  `json:"requested_quantity" validate:"required,gt=0"`
	HarvestDate       string   `json:"harvest_date" validate:"required"`
	OveragePercent    *float64 `json:"overage_percent" validate:"omitempty,gte=0,lte=100"`
}

// OrderRequest defines the structure for order creation requests
type OrderRequest struct {
	CustomerName string             `json:"customer_name" validate:"required"`
	DeliveryDate string             `json:"delivery_date"`
	Notes        string             `json:"notes"`
	Items        []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemEditRequest carries the editable scheduling inputs of an item.
type OrderItemEditRequest struct {
	RequestedQuantity *float64 `json:"requested_quantity" validate:"omitempty,gt=0"`
	OveragePercent    *float64 `json:"overage_percent" validate:"omitempty,gte=0,lte=100"`
	HarvestDate       *string  `json:"harvest_date"`
}

// OrderStatusRequest asks for an explicit order status change.
type OrderStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

// defaultOveragePercent buffers the requested quantity against yield variance
// when the customer does not specify one.
const defaultOveragePercent = 10

// CreateOrder handles creating an order with its items; the production
// schedule and tasks for every item are generated in the same transaction.
func CreateOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order := model.Order{
		TenantID:     tenantID,
		CustomerName: req.CustomerName,
		Notes:        req.Notes,
	}
	if req.DeliveryDate != "" {
		deliveryDate, err := parseDate(req.DeliveryDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		order.DeliveryDate = &deliveryDate
	}

	for _, itemReq := range req.Items {
		harvestDate, err := parseDate(itemReq.HarvestDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		overage := float64(defaultOveragePercent)
		if itemReq.OveragePercent != nil {
			overage = *itemReq.OveragePercent
		}
		order.Items = append(order.Items, model.OrderItem{
			CropProfileID:     itemReq.CropProfileID,
			RequestedQuantity: itemReq.RequestedQuantity,
			OveragePercent:    overage,
			HarvestDate:       harvestDate,
		})
	}

	if err := production.CreateOrder(database.GetDB(), &order); err != nil {
		return orderErrorResponse(c, log, err)
	}

	prometheus.RecordOrderOperation("create")
	for _, item := range order.Items {
		prometheus.RecordScheduleComputed(item.TraysNeeded)
	}

	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.String("customer", order.CustomerName),
		zap.Int("items", len(order.Items)))
	return c.JSON(http.StatusCreated, echo.Map{
		"order":    order,
		"warnings": pastSeedDateWarnings(order.Items),
	})
}

// ListOrders handles retrieving all orders with optional status filtering
func ListOrders(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}

	query := database.GetDB().Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []model.Order
	if err := query.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles retrieving a single order with its items and tasks
func GetOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	id := c.Param("id")

	var order model.Order
	err := database.GetDB().
		Preload("Items.CropProfile").
		Preload("Items.Tasks").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&order).Error
	if err != nil {
		log.Warn("Order not found", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles explicit status changes (deliver, cancel)
func UpdateOrderStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := production.UpdateOrderStatus(database.GetDB(), tenantID, orderID, req.Status)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	prometheus.RecordOrderOperation("status_" + string(req.Status))
	log.Info("Order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(order.Status)))
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderItem handles editing an item's scheduling inputs; the schedule is
// recomputed and existing task due dates are retargeted.
func UpdateOrderItem(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	itemID, err := parseUintParam(c, "itemID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var req OrderItemEditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	edit := production.ItemEdit{
		RequestedQuantity: req.RequestedQuantity,
		OveragePercent:    req.OveragePercent,
	}
	if req.HarvestDate != nil {
		harvestDate, err := parseDate(*req.HarvestDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		edit.HarvestDate = &harvestDate
	}

	item, err := production.RescheduleOrderItem(database.GetDB(), tenantID, orderID, itemID, edit)
	if err != nil {
		return orderErrorResponse(c, log, err)
	}

	prometheus.RecordOrderOperation("reschedule_item")
	prometheus.RecordScheduleComputed(item.TraysNeeded)

	log.Info("Order item rescheduled",
		zap.Uint("order_id", orderID),
		zap.Uint("order_item_id", item.ID),
		zap.Int("trays_needed", item.TraysNeeded))
	return c.JSON(http.StatusOK, echo.Map{
		"item":     item,
		"warnings": pastSeedDateWarnings([]model.OrderItem{*item}),
	})
}

// DeleteOrder handles deleting an order with its items and tasks
func DeleteOrder(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if err := production.DeleteOrder(database.GetDB(), tenantID, orderID); err != nil {
		return orderErrorResponse(c, log, err)
	}

	prometheus.RecordOrderOperation("delete")
	log.Info("Order deleted", zap.Uint("order_id", orderID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Order deleted successfully"})
}

// pastSeedDateWarnings flags items whose computed seed date already passed.
// The schedule itself stays valid; whether to act on it is the caller's call.
func pastSeedDateWarnings(items []model.OrderItem) []string {
	warnings := []string{}
	now := today()
	for _, item := range items {
		if item.SeedDate != nil && item.SeedDate.Before(now) {
			warnings = append(warnings, fmt.Sprintf(
				"item %d: seed date %s is in the past", item.ID, item.SeedDate.Format(dateLayout)))
		}
	}
	return warnings
}

// orderErrorResponse maps production errors onto HTTP responses.
func orderErrorResponse(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, production.ErrCropProfileNotFound),
		errors.Is(err, production.ErrOrderNotFound),
		errors.Is(err, production.ErrOrderItemNotFound):
		log.Warn("Order operation target not found", zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, production.ErrMissingProductionData):
		log.Warn("Crop profile not schedulable", zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrInvalidScheduleInput):
		log.Warn("Invalid schedule input", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, production.ErrInvalidStatusChange):
		log.Warn("Invalid order status change", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		log.Error("Order operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Order operation failed"})
	}
}

func parseUintParam(c echo.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return uint(value), nil
}
