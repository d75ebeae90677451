package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"farm-service/internal/middleware"
	"farm-service/internal/model"
	"farm-service/pkg/database"
	"farm-service/pkg/logger"
)

// CropProfileRequest defines the structure for crop profile creation/update requests
type CropProfileRequest struct {
	Name                string   `json:"name" validate:"required"`
	Variety             string   `json:"variety"`
	AverageYieldPerTray *float64 `json:"average_yield_per_tray" validate:"omitempty,gt=0"`
	SoakDays            *int     `json:"soak_days" validate:"omitempty,gte=0"`
	GerminationDays     *int     `json:"germination_days" validate:"omitempty,gte=0"`
	LightDays           *int     `json:"light_days" validate:"omitempty,gte=0"`
	Notes               string   `json:"notes"`
	IsActive            *bool    `json:"is_active"`
}

// ListCropProfiles handles retrieving all crop profiles with optional filtering
func ListCropProfiles(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}

	query := database.GetDB().Where("tenant_id = ?", tenantID)

	isActive := c.QueryParam("is_active")
	if isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	var profiles []model.CropProfile
	if err := query.Find(&profiles).Error; err != nil {
		log.Error("Failed to list crop profiles", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve crop profiles"})
	}

	return c.JSON(http.StatusOK, profiles)
}

// GetCropProfile handles retrieving a single crop profile by ID
func GetCropProfile(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	id := c.Param("id")

	var profile model.CropProfile
	err := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&profile).Error
	if err != nil {
		log.Warn("Crop profile not found", zap.String("crop_profile_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Crop profile not found"})
	}

	return c.JSON(http.StatusOK, profile)
}

// CreateCropProfile handles creating a new crop profile
func CreateCropProfile(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}

	var req CropProfileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var count int64
	database.GetDB().Model(&model.CropProfile{}).
		Where("name = ? AND tenant_id = ?", req.Name, tenantID).Count(&count)
	if count > 0 {
		log.Warn("Crop profile with this name already exists", zap.String("name", req.Name))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Crop profile with this name already exists"})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	profile := model.CropProfile{
		TenantID:            tenantID,
		Name:                req.Name,
		Variety:             req.Variety,
		AverageYieldPerTray: req.AverageYieldPerTray,
		SoakDays:            req.SoakDays,
		GerminationDays:     req.GerminationDays,
		LightDays:           req.LightDays,
		Notes:               req.Notes,
		IsActive:            isActive,
	}

	if err := database.GetDB().Create(&profile).Error; err != nil {
		log.Error("Failed to create crop profile", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create crop profile"})
	}

	log.Info("Crop profile created",
		zap.Uint("crop_profile_id", profile.ID),
		zap.String("name", profile.Name))
	return c.JSON(http.StatusCreated, profile)
}

// UpdateCropProfile handles updating an existing crop profile
func UpdateCropProfile(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	id := c.Param("id")

	var req CropProfileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("crop_profile_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var profile model.CropProfile
	err := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&profile).Error
	if err != nil {
		log.Warn("Crop profile not found for update", zap.String("crop_profile_id", id), zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Crop profile not found"})
	}

	if req.Name != profile.Name {
		var count int64
		database.GetDB().Model(&model.CropProfile{}).
			Where("name = ? AND tenant_id = ? AND id != ?", req.Name, tenantID, profile.ID).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "Crop profile with this name already exists"})
		}
	}

	profile.Name = req.Name
	profile.Variety = req.Variety
	profile.AverageYieldPerTray = req.AverageYieldPerTray
	profile.SoakDays = req.SoakDays
	profile.GerminationDays = req.GerminationDays
	profile.LightDays = req.LightDays
	profile.Notes = req.Notes
	if req.IsActive != nil {
		profile.IsActive = *req.IsActive
	}

	if err := database.GetDB().Save(&profile).Error; err != nil {
		log.Error("Failed to update crop profile", zap.String("crop_profile_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update crop profile"})
	}

	log.Info("Crop profile updated",
		zap.Uint("crop_profile_id", profile.ID),
		zap.String("name", profile.Name))
	return c.JSON(http.StatusOK, profile)
}

// DeleteCropProfile handles deleting a crop profile (soft delete)
func DeleteCropProfile(c echo.Context) error {
	log := logger.FromEcho(c)
	tenantID, ok := middleware.GetTenantIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant context missing"})
	}
	id := c.Param("id")

	result := database.GetDB().Where("tenant_id = ?", tenantID).Delete(&model.CropProfile{}, id)
	if result.Error != nil {
		log.Error("Failed to delete crop profile", zap.String("crop_profile_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete crop profile"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Crop profile not found"})
	}

	log.Info("Crop profile deleted", zap.String("crop_profile_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Crop profile deleted successfully"})
}
