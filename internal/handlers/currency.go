package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/referdby/internal/services"
)

// CurrencyHandler exposes conversions for display.
type CurrencyHandler struct {
	currency services.Converter
}

// NewCurrencyHandler constructs CurrencyHandler.
func NewCurrencyHandler(currency services.Converter) *CurrencyHandler {
	return &CurrencyHandler{currency: currency}
}

// Convert answers GET /currency/convert?amount=&from=&to=.
func (h *CurrencyHandler) Convert(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(c.Query("amount")))
	if err != nil || amount.IsNegative() {
		return writeSettlementError(c, services.ErrInvalidAmount)
	}
	from := services.NormalizeCurrency(c.Query("from"))
	to := services.NormalizeCurrency(c.Query("to"))
	if from == "" || to == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to are required")
	}

	conv, err := h.currency.Convert(c.UserContext(), amount, from, to)
	if err != nil {
		return writeSettlementError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"amount":           amount,
			"from":             from,
			"to":               to,
			"rate":             conv.Rate,
			"converted_amount": conv.Amount,
		},
	})
}
