package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"farm-service/internal/middleware"
	"farm-service/internal/model"
	"farm-service/internal/production"
	"farm-service/pkg/database"
	"farm-service/pkg/logger"
	"farm-service/prometheus"
)

// TaskCompletionRequest defines the structure for task completion requests
type TaskCompletionRequest struct {
	CompletedBy         string   `json:"completed_by" validate:"required"`
	CompletedAt         *string  `json:"completed_at"` // RFC3339; defaults to now
	Notes               string   `json:"notes"`
	ActualTrays         *int     `json:"actual_trays" validate:"omitempty,gte=0"`
	ActualYieldQuantity *float64 `json:"actual_yield_quantity" validate:"omitempty,gte=0"`
}

// ListTasks handles retrieving tasks with optional filtering by status, type
// and due date range.
func ListTasks(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}

	query := database.GetDB().Where("tenant_id = ?", tenantID)

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if taskType := c.QueryParam("type"); taskType != "" {
		query = query.Where("type = ?", taskType)
	}
	if orderItemID := c.QueryParam("order_item_id"); orderItemID != "" {
		query = query.Where("order_item_id = ?", orderItemID)
	}
	if dueAfter := c.QueryParam("due_after"); dueAfter != "" {
		date, err := parseDate(dueAfter)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		query = query.Where("due_date >= ?", date)
	}
	if dueBefore := c.QueryParam("due_before"); dueBefore != "" {
		date, err := parseDate(dueBefore)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		query = query.Where("due_date <= ?", date)
	}

	var tasks []model.Task
	if err := query.Order("due_date ASC").Find(&tasks).Error; err != nil {
		log.Error("Failed to list tasks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve tasks"})
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetTask handles retrieving a single task by ID
func GetTask(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	id := c.Param("id")

	var task model.Task
	err := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&task).Error
	if err != nil {
		log.Warn("Task not found", zap.String("task_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Task not found"})
	}

	return c.JSON(http.StatusOK, task)
}

// StartTask moves a TODO task to IN_PROGRESS
func StartTask(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	task, err := production.StartTask(database.GetDB(), tenantID, taskID)
	if err != nil {
		return taskErrorResponse(c, log, err)
	}

	log.Info("Task started", zap.Uint("task_id", task.ID), zap.String("type", string(task.Type)))
	return c.JSON(http.StatusOK, task)
}

// CompleteTask marks a task completed and lets the production layer propagate
// item status, yield learning and order readiness.
func CompleteTask(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	var req TaskCompletionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := production.CompletionInput{
		CompletedBy:         req.CompletedBy,
		Notes:               req.Notes,
		ActualTrays:         req.ActualTrays,
		ActualYieldQuantity: req.ActualYieldQuantity,
	}
	if req.CompletedAt != nil {
		completedAt, err := time.Parse(time.RFC3339, *req.CompletedAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid completed_at, expected RFC3339"})
		}
		input.CompletedAt = &completedAt
	}

	task, err := production.CompleteTask(database.GetDB(), tenantID, taskID, input)
	if err != nil {
		return taskErrorResponse(c, log, err)
	}

	prometheus.RecordTaskCompletion(string(task.Type))
	if task.Type == model.TaskTypeHarvest && req.ActualTrays != nil && req.ActualYieldQuantity != nil && *req.ActualTrays > 0 {
		prometheus.YieldUpdatesCounter.Inc()
	}

	log.Info("Task completed",
		zap.Uint("task_id", task.ID),
		zap.String("type", string(task.Type)),
		zap.String("completed_by", task.CompletedBy))
	return c.JSON(http.StatusOK, task)
}

// taskErrorResponse maps production task errors onto HTTP responses.
func taskErrorResponse(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, production.ErrTaskNotFound):
		log.Warn("Task not found", zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, production.ErrIncompleteCompletion):
		log.Warn("Incomplete completion request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, production.ErrTaskCancelled),
		errors.Is(err, production.ErrInvalidStatusChange):
		log.Warn("Invalid task status change", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		log.Error("Task operation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Task operation failed"})
	}
}
