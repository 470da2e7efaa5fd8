package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/middleware"
	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
	"github.com/example/referdby/internal/utils"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	db             *gorm.DB
	currency       services.Converter
	balances       *services.BalanceCache
	pointsCurrency string
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, currency services.Converter, balances *services.BalanceCache, pointsCurrency string) *ProfileHandler {
	return &ProfileHandler{db: db, currency: currency, balances: balances, pointsCurrency: pointsCurrency}
}

// GetProfile returns the authenticated profile with its point balance.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", userID).Error; err != nil {
		return err
	}

	balance, cached := h.balances.Get(profile.ID)
	if !cached {
		balance = profile.CurrentPoints
		h.balances.Set(profile.ID, balance)
	}

	data := profileSummary(&profile)
	data["current_points"] = balance
	data["display_points"] = services.DisplayPoints(balance)
	data["redeemable_points"] = services.RedeemablePoints(balance)
	data["points_currency"] = h.pointsCurrency
	data["created_at"] = profile.CreatedAt

	// Display only: a missing rate hides the home-currency value instead of failing.
	if profile.HomeCurrency != "" {
		conv, err := h.currency.Convert(c.UserContext(), balance, h.pointsCurrency, profile.HomeCurrency)
		if err != nil {
			log.Printf("[Profile] home currency value for %s unavailable: %v", profile.ID, err)
		} else {
			data["home_currency_value"] = conv.Amount
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

type updateProfileRequest struct {
	FullName     string `json:"full_name"`
	HomeCurrency string `json:"home_currency"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.FullName); name != "" {
		updates["full_name"] = name
	}
	if code := services.NormalizeCurrency(req.HomeCurrency); code != "" {
		if len(code) != 3 {
			return fiber.NewError(fiber.StatusBadRequest, "home_currency must be an ISO 4217 code")
		}
		updates["home_currency"] = code
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	if err := h.db.Model(&models.Profile{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}

	return h.GetProfile(c)
}

// ListPointsHistory returns processed activities that moved the caller's balance.
func (h *ProfileHandler) ListPointsHistory(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Activity{}).
		Where("type IN ?", []models.ActivityState{models.StateReferralProcessed, models.StateRedeemProcessed, models.StatePointsDeducted}).
		Where("user_id = ? OR user_referrer_id = ? OR app_referrer_id = ? OR restaurant_referrer_id = ?", userID, userID, userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.Activity
	if err := query.Order("processed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	earned := decimal.Zero
	for _, item := range items {
		earned = earned.Add(pointsFor(&item, userID.String()))
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"data":            items,
		"page_net_points": earned,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// pointsFor is the share of activity that landed on userID.
func pointsFor(activity *models.Activity, userID string) decimal.Decimal {
	total := decimal.Zero
	if activity.UserID.String() == userID {
		total = total.Add(activity.CustomerPoints)
	}
	if activity.UserReferrerID != nil && activity.UserReferrerID.String() == userID {
		total = total.Add(activity.ReferrerPoints)
	}
	if activity.RestaurantReferrerID != nil && activity.RestaurantReferrerID.String() == userID {
		total = total.Add(activity.RestaurantRecruiterPoints)
	}
	if activity.AppReferrerID != nil && activity.AppReferrerID.String() == userID {
		total = total.Add(activity.AppReferrerPoints)
	}
	return total
}
