package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/models"
	"github.com/example/referdby/internal/services"
	"github.com/example/referdby/internal/utils"
)

const (
	userContextKey  = "currentUserID"
	actorContextKey = "currentActor"
)

// AuthMiddleware validates JWT tokens and loads the authenticated profile's
// id, role and restaurant into context.
func AuthMiddleware(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		userID := claims.UserID

		var profile models.Profile
		if err := db.WithContext(c.UserContext()).
			Select("id", "role", "restaurant_id").
			First(&profile, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
			}
			return err
		}
		if profile.Role != claims.Role {
			return fiber.NewError(fiber.StatusUnauthorized, "role changed, sign in again")
		}

		c.Locals(userContextKey, userID)
		c.Locals(actorContextKey, services.ActorFromProfile(&profile))
		return c.Next()
	}
}

// RequireRole rejects requests whose role fails allow.
func RequireRole(allow func(models.Role) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		if !allow(actor.Role) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetActor extracts the authenticated actor from context.
func GetActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(actorContextKey).(services.Actor)
	return actor, ok
}
