package model

import (
	"time"

	"gorm.io/gorm"
)

// CropProfile holds the per-variety growing parameters used by the production
// scheduler. AverageYieldPerTray adapts over time from actual harvest results.
type CropProfile struct {
	ID                  uint           `json:"id" gorm:"primarykey"`
	TenantID            uint           `json:"tenant_id" gorm:"index;not null;comment:'Tenant this crop profile belongs to'"`
	Name                string         `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_tenant_crop_name"`
	Variety             string         `json:"variety" gorm:"type:varchar(100)"`
	AverageYieldPerTray *float64       `json:"average_yield_per_tray"` // ounces per 10x20 tray
	SoakDays            *int           `json:"soak_days"`              // nil or 0 means the crop is not soaked
	GerminationDays     *int           `json:"germination_days"`
	LightDays           *int           `json:"light_days"`
	Notes               string         `json:"notes" gorm:"type:text"`
	IsActive            bool           `json:"is_active" gorm:"default:true"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Schedulable reports whether the profile carries enough production data for
// the scheduler to run. SoakDays is optional; the other three are not.
func (p *CropProfile) Schedulable() bool {
	return p.AverageYieldPerTray != nil && *p.AverageYieldPerTray > 0 &&
		p.GerminationDays != nil && p.LightDays != nil
}
