package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return nil
	})

	cases := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Pagination{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=-5", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?page=x&limit=y", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?page=2&limit=500", Pagination{Page: 2, Limit: MaxPageLimit, Offset: MaxPageLimit}},
	}
	for _, tc := range cases {
		_, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
		require.NoError(t, err)
		require.Equal(t, tc.want, got, tc.query)
	}
}
