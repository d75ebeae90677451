package scheduler

import (
	"fmt"
	"time"

	"farm-service/internal/model"
)

// TaskSpec describes one production task to be created for an order item.
type TaskSpec struct {
	Type        model.TaskType
	Title       string
	Description string
	DueDate     time.Time
	Status      model.TaskStatus
	Priority    model.TaskPriority
}

// GenerateTasks expands a computed schedule into the production tasks for one
// order item, in chronological order. A SOAK task is only emitted for crops
// that are soaked, so the result has either three or four entries.
func GenerateTasks(s Schedule, cropName string, requestedQuantity float64) []TaskSpec {
	specs := make([]TaskSpec, 0, 4)

	if s.RequiresSoaking {
		specs = append(specs, TaskSpec{
			Type:        model.TaskTypeSoak,
			Title:       fmt.Sprintf("Soak %s seeds", cropName),
			Description: fmt.Sprintf("Soak seeds for %d trays of %s", s.TraysNeeded, cropName),
			DueDate:     s.SoakDate,
			Status:      model.TaskStatusTodo,
			Priority:    model.TaskPriorityMedium,
		})
	}

	specs = append(specs,
		TaskSpec{
			Type:        model.TaskTypeSeed,
			Title:       fmt.Sprintf("Seed %d trays of %s", s.TraysNeeded, cropName),
			Description: fmt.Sprintf("Seed %d trays of %s (%.1f oz ordered)", s.TraysNeeded, cropName, requestedQuantity),
			DueDate:     s.SeedDate,
			Status:      model.TaskStatusTodo,
			Priority:    model.TaskPriorityMedium,
		},
		TaskSpec{
			Type:        model.TaskTypeMoveToLight,
			Title:       fmt.Sprintf("Move %s to light", cropName),
			Description: fmt.Sprintf("Move %d trays of %s from germination to the light rack", s.TraysNeeded, cropName),
			DueDate:     s.MoveToLightDate,
			Status:      model.TaskStatusTodo,
			Priority:    model.TaskPriorityMedium,
		},
		TaskSpec{
			Type:        model.TaskTypeHarvest,
			Title:       fmt.Sprintf("Harvest %s", cropName),
			Description: fmt.Sprintf("Harvest %d trays of %s (%.1f oz ordered)", s.TraysNeeded, cropName, requestedQuantity),
			DueDate:     s.HarvestDate,
			Status:      model.TaskStatusTodo,
			Priority:    model.TaskPriorityMedium,
		},
	)

	return specs
}
