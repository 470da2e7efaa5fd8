package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
)

// RestaurantHandler exposes restaurant settings and redemption hours.
type RestaurantHandler struct {
	db       *gorm.DB
	schedule *services.ScheduleService
}

// NewRestaurantHandler constructs RestaurantHandler.
func NewRestaurantHandler(db *gorm.DB, schedule *services.ScheduleService) *RestaurantHandler {
	return &RestaurantHandler{db: db, schedule: schedule}
}

// GetRestaurant returns one restaurant with its schedules.
func (h *RestaurantHandler) GetRestaurant(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var restaurant models.Restaurant
	if err := h.db.WithContext(c.UserContext()).First(&restaurant, "id = ?", id).Error; err != nil {
		return writeSettlementError(c, notFoundAs(err, services.ErrRestaurantNotFound))
	}
	return c.JSON(fiber.Map{"success": true, "data": restaurant})
}

// RedemptionHours reports whether redemptions are open right now and how many
// hours a week the relevant schedule allows.
func (h *RestaurantHandler) RedemptionHours(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	isTakeaway := c.QueryBool("takeaway", false)

	open, err := h.schedule.IsWithinRedemptionHours(c.UserContext(), id, isTakeaway)
	if err != nil {
		return writeSettlementError(c, err)
	}

	var restaurant models.Restaurant
	if err := h.db.WithContext(c.UserContext()).First(&restaurant, "id = ?", id).Error; err != nil {
		return writeSettlementError(c, notFoundAs(err, services.ErrRestaurantNotFound))
	}
	schedule := restaurant.ScheduleFor(isTakeaway)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"is_open":      open,
			"is_takeaway":  isTakeaway,
			"timezone":     restaurant.Timezone,
			"weekly_hours": services.WeeklyRedemptionHours(schedule).Hours(),
			"schedule":     schedule,
		},
	})
}

// UpdateSchedule replaces a restaurant's redemption hours.
func (h *RestaurantHandler) UpdateSchedule(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := actor.AuthorizeManage(id); err != nil {
		return writeSettlementError(c, err)
	}

	var req services.ScheduleUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	restaurant, err := h.schedule.UpdateSchedule(c.UserContext(), id, req)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": restaurant})
}
