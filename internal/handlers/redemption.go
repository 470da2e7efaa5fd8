package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
)

// RedemptionHandler answers "can I redeem here, and how much".
type RedemptionHandler struct {
	db             *gorm.DB
	eligibility    *services.EligibilityService
	currency       services.Converter
	pointsCurrency string
}

// NewRedemptionHandler constructs RedemptionHandler.
func NewRedemptionHandler(db *gorm.DB, eligibility *services.EligibilityService, currency services.Converter, pointsCurrency string) *RedemptionHandler {
	return &RedemptionHandler{db: db, eligibility: eligibility, currency: currency, pointsCurrency: pointsCurrency}
}

// Eligibility checks the caller, or the customer_id a staff member asks about,
// against the redemption rules of restaurant_id.
func (h *RedemptionHandler) Eligibility(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	restaurantID, err := uuid.Parse(c.Query("restaurant_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid restaurant_id")
	}

	userID := actor.ID
	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid customer_id")
		}
		if customerID != actor.ID {
			if err := actor.AuthorizeSettlement(restaurantID); err != nil {
				return writeSettlementError(c, err)
			}
		}
		userID = customerID
	}

	result, err := h.eligibility.CheckRedemptionEligibility(c.UserContext(), userID, restaurantID)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": result})
}

type validateRedemptionRequest struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	BillTotal    string    `json:"bill_total"`
	Currency     string    `json:"currency"`
	Points       string    `json:"points"`
}

// Validate previews a redemption against the restaurant's cap and the
// caller's balance without writing anything. The bill is converted exactly as
// the processor converts it.
func (h *RedemptionHandler) Validate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req validateRedemptionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	billTotal, err := decimal.NewFromString(strings.TrimSpace(req.BillTotal))
	if err != nil {
		return writeSettlementError(c, services.ErrInvalidAmount)
	}
	points, err := decimal.NewFromString(strings.TrimSpace(req.Points))
	if err != nil {
		return writeSettlementError(c, services.ErrInvalidPoints)
	}

	db := h.db.WithContext(c.UserContext())
	var restaurant models.Restaurant
	if err := db.Select("id", "currency", "max_redemption_percentage").First(&restaurant, "id = ?", req.RestaurantID).Error; err != nil {
		return writeSettlementError(c, notFoundAs(err, services.ErrRestaurantNotFound))
	}
	var profile models.Profile
	if err := db.Select("id", "current_points").First(&profile, "id = ?", actor.ID).Error; err != nil {
		return writeSettlementError(c, notFoundAs(err, services.ErrProfileNotFound))
	}

	bill, err := services.ConvertRedemptionBill(c.UserContext(), h.currency, &restaurant, billTotal, req.Currency, h.pointsCurrency)
	if err != nil {
		return writeSettlementError(c, err)
	}
	warning := services.CheckRedemptionCap(bill, points, &restaurant, profile.CurrentPoints)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"valid":             warning == "",
			"warning":           warning,
			"redeemable_points": services.RedeemablePoints(profile.CurrentPoints),
			"bill_in_points":    bill.InPoints.Amount,
			"points_currency":   h.pointsCurrency,
		},
	})
}
