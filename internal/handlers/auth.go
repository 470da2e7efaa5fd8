package handlers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
	"github.com/example/referdby/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type registerRequest struct {
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	FullName     string     `json:"full_name"`
	HomeCurrency string     `json:"home_currency"`
	RefererID    *uuid.UUID `json:"referer_id"`
}

// Register creates a customer account, optionally linked to the app referrer
// who invited them.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var existing models.Profile
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if req.RefererID != nil {
		var count int64
		if err := h.db.Model(&models.Profile{}).Where("id = ?", *req.RefererID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "unknown referer")
		}
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	homeCurrency := services.NormalizeCurrency(req.HomeCurrency)
	if homeCurrency == "" {
		homeCurrency = h.cfg.Points.Currency
	}
	profile := models.Profile{
		Email:         email,
		FullName:      strings.TrimSpace(req.FullName),
		PasswordHash:  passwordHash,
		Role:          models.RoleCustomer,
		CurrentPoints: decimal.Zero,
		HomeCurrency:  homeCurrency,
		RefererID:     req.RefererID,
	}

	if err := h.db.Create(&profile).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, profile.ID, profile.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    profileSummary(&profile),
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var profile models.Profile
	if err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(profile.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, profile.ID, profile.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    profileSummary(&profile),
		"token":   token,
	})
}

func profileSummary(profile *models.Profile) fiber.Map {
	return fiber.Map{
		"id":            profile.ID,
		"email":         profile.Email,
		"full_name":     profile.FullName,
		"role":          profile.Role,
		"home_currency": profile.HomeCurrency,
		"restaurant_id": profile.RestaurantID,
	}
}
