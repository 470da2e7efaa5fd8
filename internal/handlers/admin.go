package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
	"github.com/example/referdby/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db        *gorm.DB
	processor *services.Processor
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, processor *services.Processor) *AdminHandler {
	return &AdminHandler{db: db, processor: processor}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	var totalProfiles int64
	if err := db.Model(&models.Profile{}).Count(&totalProfiles).Error; err != nil {
		return err
	}

	var totalRestaurants int64
	if err := db.Model(&models.Restaurant{}).Count(&totalRestaurants).Error; err != nil {
		return err
	}

	// Activities by state
	type stateCount struct {
		Type  string `json:"type"`
		Count int64  `json:"count"`
	}
	var stateCounts []stateCount
	if err := db.Model(&models.Activity{}).
		Select("type, count(*) as count").
		Group("type").
		Scan(&stateCounts).Error; err != nil {
		return err
	}

	activitiesByState := make(map[string]int64)
	for _, sc := range stateCounts {
		activitiesByState[sc.Type] = sc.Count
	}

	// Outstanding customer liability
	var outstanding decimal.NullDecimal
	if err := db.Model(&models.Profile{}).
		Select("COALESCE(SUM(current_points), 0)").
		Row().Scan(&outstanding); err != nil {
		return err
	}

	var undistributed decimal.NullDecimal
	if err := db.Model(&models.Activity{}).
		Where("type = ?", models.StateReferralProcessed).
		Select("COALESCE(SUM(undistributed_points), 0)").
		Row().Scan(&undistributed); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_profiles":       totalProfiles,
			"total_restaurants":    totalRestaurants,
			"activities_by_state":  activitiesByState,
			"outstanding_points":   outstanding.Decimal,
			"undistributed_points": undistributed.Decimal,
		},
	})
}

// ListProfiles returns all profiles with pagination, role filter and search.
func (h *AdminHandler) ListProfiles(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.WithContext(c.UserContext()).Model(&models.Profile{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?",
			"%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var profiles []models.Profile
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&profiles).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    profiles,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// RecentActivities returns the most recent 5 activities for the dashboard.
func (h *AdminHandler) RecentActivities(c *fiber.Ctx) error {
	var activities []models.Activity
	if err := h.db.WithContext(c.UserContext()).
		Order("created_at desc").
		Limit(5).
		Find(&activities).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    activities,
	})
}

type deductPointsRequest struct {
	ProfileID    uuid.UUID  `json:"profile_id"`
	RestaurantID *uuid.UUID `json:"restaurant_id"`
	Points       string     `json:"points"`
	Reason       string     `json:"reason"`
}

// DeductPoints records an administrative correction against a profile.
func (h *AdminHandler) DeductPoints(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req deductPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "reason is required")
	}
	points, err := decimal.NewFromString(strings.TrimSpace(req.Points))
	if err != nil {
		return writeSettlementError(c, services.ErrInvalidPoints)
	}

	activity, err := h.processor.DeductPoints(c.UserContext(), actor, services.DeductionInput{
		ProfileID:    req.ProfileID,
		RestaurantID: req.RestaurantID,
		Points:       points,
		Reason:       strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": activity})
}

type updateRoleRequest struct {
	Role         string     `json:"role"`
	RestaurantID *uuid.UUID `json:"restaurant_id"`
}

// UpdateProfileRole promotes or demotes an account. Staff roles must name
// the restaurant they work at.
func (h *AdminHandler) UpdateProfileRole(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if role.IsStaff() && req.RestaurantID == nil {
		return fiber.NewError(fiber.StatusBadRequest, "restaurant_id is required for staff roles")
	}

	db := h.db.WithContext(c.UserContext())
	if req.RestaurantID != nil {
		var count int64
		if err := db.Model(&models.Restaurant{}).Where("id = ?", *req.RestaurantID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return writeSettlementError(c, services.ErrRestaurantNotFound)
		}
	}

	var restaurantID *uuid.UUID
	if role.IsStaff() {
		restaurantID = req.RestaurantID
	}
	result := db.Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]interface{}{"role": role, "restaurant_id": restaurantID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return writeSettlementError(c, services.ErrProfileNotFound)
	}

	var profile models.Profile
	if err := db.First(&profile, "id = ?", id).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": profileSummary(&profile)})
}
