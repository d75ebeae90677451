// Package scheduler implements the production scheduling engine: backward
// timeline calculation, task generation, the order-item status machine and
// adaptive yield estimation. Everything in this package is a pure function so
// it can be tested without a database.
package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidScheduleInput is wrapped by all input validation failures of
// ComputeSchedule.
var ErrInvalidScheduleInput = errors.New("invalid schedule input")

// ScheduleInput carries the crop parameters and order line values needed to
// compute a production schedule. SoakDays of zero means the crop is not
// soaked.
type ScheduleInput struct {
	Quantity            float64 // ounces ordered
	AverageYieldPerTray float64 // ounces per tray
	OveragePercent      float64 // buffer on top of Quantity, 0-100
	HarvestDate         time.Time
	SoakDays            int
	GerminationDays     int
	LightDays           int
}

// Schedule is a backward production timeline anchored on the harvest date.
type Schedule struct {
	TraysNeeded     int
	RequiresSoaking bool
	SoakDate        time.Time
	SeedDate        time.Time
	MoveToLightDate time.Time
	HarvestDate     time.Time
}

// ComputeSchedule walks backward from the harvest date through the growing
// stages and sizes the tray count for the overage-adjusted quantity. Tray
// count always rounds up: a fraction of a tray short means a short order.
//
// The result depends only on the input, never on the clock, so recomputing on
// an order edit is safe.
func ComputeSchedule(in ScheduleInput) (Schedule, error) {
	if err := in.validate(); err != nil {
		return Schedule{}, err
	}

	effectiveQuantity := in.Quantity * (1 + in.OveragePercent/100)
	traysNeeded := int(math.Ceil(effectiveQuantity / in.AverageYieldPerTray))
	if traysNeeded < 1 {
		traysNeeded = 1
	}

	requiresSoaking := in.SoakDays > 0

	moveToLightDate := in.HarvestDate.AddDate(0, 0, -in.LightDays)
	seedDate := moveToLightDate.AddDate(0, 0, -in.GerminationDays)
	soakDate := seedDate
	if requiresSoaking {
		soakDate = seedDate.AddDate(0, 0, -in.SoakDays)
	}

	return Schedule{
		TraysNeeded:     traysNeeded,
		RequiresSoaking: requiresSoaking,
		SoakDate:        soakDate,
		SeedDate:        seedDate,
		MoveToLightDate: moveToLightDate,
		HarvestDate:     in.HarvestDate,
	}, nil
}

func (in ScheduleInput) validate() error {
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero, got %v", ErrInvalidScheduleInput, in.Quantity)
	}
	if in.AverageYieldPerTray <= 0 {
		return fmt.Errorf("%w: average yield per tray must be greater than zero, got %v", ErrInvalidScheduleInput, in.AverageYieldPerTray)
	}
	if in.OveragePercent < 0 || in.OveragePercent > 100 {
		return fmt.Errorf("%w: overage percent must be between 0 and 100, got %v", ErrInvalidScheduleInput, in.OveragePercent)
	}
	if in.SoakDays < 0 {
		return fmt.Errorf("%w: soak days must not be negative, got %d", ErrInvalidScheduleInput, in.SoakDays)
	}
	if in.GerminationDays < 0 {
		return fmt.Errorf("%w: germination days must not be negative, got %d", ErrInvalidScheduleInput, in.GerminationDays)
	}
	if in.LightDays < 0 {
		return fmt.Errorf("%w: light days must not be negative, got %d", ErrInvalidScheduleInput, in.LightDays)
	}
	if in.HarvestDate.IsZero() {
		return fmt.Errorf("%w: harvest date is required", ErrInvalidScheduleInput)
	}
	return nil
}
