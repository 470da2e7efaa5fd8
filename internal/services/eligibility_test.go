package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/models"
)

func createProcessedActivity(t *testing.T, db *gorm.DB, state models.ActivityState, userID, restaurantID uuid.UUID, at time.Time) {
	t.Helper()
	activity := &models.Activity{
		Type:         state,
		UserID:       userID,
		RestaurantID: restaurantID,
		ProcessedAt:  &at,
		IsActive:     false,
	}
	require.NoError(t, db.Create(activity).Error)
}

func TestCheckRedemptionEligibility(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	restaurant := createRestaurant(t, db, nil)
	customer := createProfile(t, db, models.RoleCustomer, "25.5", nil)
	svc := NewEligibilityService(db, config.RedemptionConfig{Cooldown: 24 * time.Hour, MinVisits: 1}, fixedNow(now))
	ctx := context.Background()

	got, err := svc.CheckRedemptionEligibility(ctx, customer.ID, restaurant.ID)
	require.NoError(t, err)
	require.False(t, got.Eligible)
	require.Contains(t, got.Message, "at least 1 completed visit")

	createProcessedActivity(t, db, models.StateReferralProcessed, customer.ID, restaurant.ID, now.Add(-72*time.Hour))
	got, err = svc.CheckRedemptionEligibility(ctx, customer.ID, restaurant.ID)
	require.NoError(t, err)
	require.True(t, got.Eligible)
	require.Equal(t, int64(1), got.ProcessedVisits)

	createProcessedActivity(t, db, models.StateRedeemProcessed, customer.ID, restaurant.ID, now.Add(-2*time.Hour))
	got, err = svc.CheckRedemptionEligibility(ctx, customer.ID, restaurant.ID)
	require.NoError(t, err)
	require.False(t, got.Eligible)
	require.NotNil(t, got.NextEligibleAt)
	require.True(t, got.NextEligibleAt.Equal(now.Add(22*time.Hour)))

	other := createRestaurant(t, db, nil)
	createProcessedActivity(t, db, models.StateReferralProcessed, customer.ID, other.ID, now.Add(-72*time.Hour))
	got, err = svc.CheckRedemptionEligibility(ctx, customer.ID, other.ID)
	require.NoError(t, err)
	require.True(t, got.Eligible, "cooldown is per restaurant")
}

func TestCheckRedemptionEligibilityNoPoints(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createRestaurant(t, db, nil)
	customer := createProfile(t, db, models.RoleCustomer, "0.75", nil)
	svc := NewEligibilityService(db, config.RedemptionConfig{MinVisits: 0}, nil)

	got, err := svc.CheckRedemptionEligibility(context.Background(), customer.ID, restaurant.ID)
	require.NoError(t, err)
	require.False(t, got.Eligible)
	require.Contains(t, got.Message, "no points")
}

func TestCheckRedemptionEligibilityNotFound(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createRestaurant(t, db, nil)
	customer := createProfile(t, db, models.RoleCustomer, "10", nil)
	svc := NewEligibilityService(db, config.RedemptionConfig{}, nil)

	_, err := svc.CheckRedemptionEligibility(context.Background(), uuid.New(), restaurant.ID)
	require.ErrorIs(t, err, ErrProfileNotFound)
	_, err = svc.CheckRedemptionEligibility(context.Background(), customer.ID, uuid.New())
	require.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestValidatePointsRedemption(t *testing.T) {
	cases := []struct {
		name      string
		bill      string
		points    string
		pct       int
		available string
		warning   string
	}{
		{name: "over cap", bill: "40", points: "30", pct: 50, available: "100", warning: "at most 50%"},
		{name: "boundary accepted", bill: "40", points: "20", pct: 50, available: "100"},
		{name: "fractional bound", bill: "41", points: "20", pct: 50, available: "100"},
		{name: "zero points", bill: "40", points: "0", pct: 0, available: "0"},
		{name: "above balance", bill: "400", points: "11", pct: 100, available: "11.9"},
		{name: "balance floors", bill: "400", points: "12", pct: 100, available: "11.9", warning: "only have 11 points"},
		{name: "not integer", bill: "40", points: "1.5", pct: 50, available: "100", warning: "whole number"},
		{name: "negative", bill: "40", points: "-1", pct: 50, available: "100", warning: "whole number"},
		{name: "zero percent", bill: "40", points: "1", pct: 0, available: "100", warning: "at most 0%"},
		{name: "bad bill", bill: "0", points: "1", pct: 50, available: "100", warning: "Bill total"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePointsRedemption(d(tc.bill), d(tc.points), tc.pct, d(tc.available))
			if tc.warning == "" {
				require.Empty(t, got)
				return
			}
			require.Contains(t, got, tc.warning)
		})
	}
}

func TestValidatePointsRedemptionCapProperty(t *testing.T) {
	for pct := 0; pct <= 100; pct += 5 {
		for bill := int64(1); bill <= 200; bill += 13 {
			limit := decimal.NewFromInt(bill * int64(pct)).Div(decimal.NewFromInt(100))
			boundary := limit.Floor()
			require.Empty(t, ValidatePointsRedemption(decimal.NewFromInt(bill), boundary, pct, d("1000")))
			require.NotEmpty(t, ValidatePointsRedemption(decimal.NewFromInt(bill), boundary.Add(decimal.NewFromInt(1)), pct, d("1000")))
		}
	}
}
