package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 20
	// MaxPageLimit bounds every list endpoint; larger requests are clamped.
	MaxPageLimit = 100
)

// Pagination is a page of a list endpoint. Limit is always within
// 1..MaxPageLimit and is what handlers echo back as items_per_page.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads the page and limit query params.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page"), 1)
	limit := parseInt(c.Query("limit"), defaultPageLimit)
	if page <= 0 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
