package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/example/referdby/internal/config"
)

func testPointsConfig() config.PointsConfig {
	return config.PointsConfig{
		Currency:                   "USD",
		CustomerPercent:            decimal.NewFromInt(5),
		ReferrerPercent:            decimal.NewFromInt(2),
		RestaurantRecruiterPercent: decimal.NewFromInt(1),
		AppReferrerPercent:         decimal.NewFromInt(1),
	}
}

func TestCalculatePointsConservation(t *testing.T) {
	calc := NewPointsCalculator(testPointsConfig())
	for _, raw := range []string{"0.01", "1", "7.77", "50", "123.45", "999.99", "10000"} {
		result := calc.CalculatePoints(decimal.RequireFromString(raw))
		sum := result.CustomerPoints.Add(result.ReferrerPoints).Add(result.RestaurantRecruiterPoints).Add(result.AppReferrerPoints)
		require.True(t, sum.Equal(result.RestaurantDeduction), "amount %s: %s != %s", raw, sum, result.RestaurantDeduction)
		require.False(t, result.CustomerPoints.IsNegative())
		require.False(t, result.ReferrerPoints.IsNegative())
	}
}

func TestCalculatePointsSplit(t *testing.T) {
	calc := NewPointsCalculator(testPointsConfig())
	result := calc.CalculatePoints(decimal.NewFromInt(50))
	require.Equal(t, "2.5", result.CustomerPoints.String())
	require.Equal(t, "1", result.ReferrerPoints.String())
	require.Equal(t, "0.5", result.RestaurantRecruiterPoints.String())
	require.Equal(t, "0.5", result.AppReferrerPoints.String())
	require.Equal(t, "4.5", result.RestaurantDeduction.String())
}

func TestCalculatePointsNonPositive(t *testing.T) {
	calc := NewPointsCalculator(testPointsConfig())
	result := calc.CalculatePoints(decimal.NewFromInt(-5))
	require.True(t, result.RestaurantDeduction.IsZero())
	require.True(t, result.CustomerPoints.IsZero())
}

func TestForParticipantsKeepsConservation(t *testing.T) {
	calc := NewPointsCalculator(testPointsConfig())
	result := calc.CalculatePoints(decimal.NewFromInt(50)).ForParticipants(Participants{AppReferrer: true})
	require.True(t, result.ReferrerPoints.IsZero())
	require.True(t, result.RestaurantRecruiterPoints.IsZero())
	require.Equal(t, "0.5", result.AppReferrerPoints.String())
	require.Equal(t, "3", result.RestaurantDeduction.String())
}
