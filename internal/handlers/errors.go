package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/services"
)

// writeSettlementError renders a service error with its stable code and a
// localized message.
func writeSettlementError(c *fiber.Ctx, err error) error {
	info := services.ClassifyError(err)
	if info.Name == services.SettlementErrorInternal.Name {
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(info.Status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"name":      info.Name,
			"code":      info.Code,
			"message":   info.Message[preferredLanguage(c)],
			"detail":    services.DetailFor(err),
			"retryable": info.Retryable,
		},
	})
}

func preferredLanguage(c *fiber.Ctx) string {
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderAcceptLanguage)), "es") {
		return "es"
	}
	return "en"
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// notFoundAs maps gorm's missing-row error onto a domain sentinel.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
