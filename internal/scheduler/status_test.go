package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-service/internal/model"
	"farm-service/internal/scheduler"
)

func TestNextItemStatus_CoversAllTaskTypes(t *testing.T) {
	cases := []struct {
		taskType model.TaskType
		want     model.OrderItemStatus
	}{
		{model.TaskTypeSoak, model.OrderItemStatusSoaking},
		{model.TaskTypeSeed, model.OrderItemStatusGerminating},
		{model.TaskTypeMoveToLight, model.OrderItemStatusGrowing},
		{model.TaskTypeHarvest, model.OrderItemStatusHarvested},
	}

	for _, tc := range cases {
		t.Run(string(tc.taskType), func(t *testing.T) {
			got, err := scheduler.NextItemStatus(tc.taskType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextItemStatus_UnknownTypeIsAnError(t *testing.T) {
	_, err := scheduler.NextItemStatus(model.TaskType("WATER"))
	assert.Error(t, err)
}

func TestOrderReady(t *testing.T) {
	harvested := model.OrderItem{Status: model.OrderItemStatusHarvested}
	growing := model.OrderItem{Status: model.OrderItemStatusGrowing}

	assert.False(t, scheduler.OrderReady(nil))
	assert.False(t, scheduler.OrderReady([]model.OrderItem{harvested, growing}))
	assert.False(t, scheduler.OrderReady([]model.OrderItem{growing}))
	assert.True(t, scheduler.OrderReady([]model.OrderItem{harvested}))
	assert.True(t, scheduler.OrderReady([]model.OrderItem{harvested, harvested}))
}
