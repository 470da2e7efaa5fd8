package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/example/referdby/internal/models"
)

func thursdayNightSchedule() models.WeeklySchedule {
	schedule := make(models.WeeklySchedule, 7)
	for day := 0; day < 7; day++ {
		schedule[day] = models.DaySchedule{DayOfWeek: day, OpenTime: "00:00", CloseTime: "00:00"}
	}
	schedule[time.Thursday] = models.DaySchedule{DayOfWeek: int(time.Thursday), IsOpen: true, OpenTime: "18:00", CloseTime: "02:00"}
	return schedule
}

func TestIsWithinScheduleWrapsPastMidnight(t *testing.T) {
	schedule := thursdayNightSchedule()
	thursday := time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Thursday, thursday.Weekday())

	cases := []struct {
		at   time.Time
		open bool
	}{
		{thursday.Add(23*time.Hour + 30*time.Minute), true},
		{thursday.Add(25 * time.Hour), true},
		{thursday.Add(34 * time.Hour), false},
		{thursday.Add(18 * time.Hour), true},
		{thursday.Add(17*time.Hour + 59*time.Minute), false},
		{thursday.Add(26 * time.Hour), false},
		{thursday.Add(time.Hour), false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.open, IsWithinSchedule(schedule, tc.at), tc.at.Format(time.RFC1123))
	}
}

func TestIsWithinScheduleEdgeRules(t *testing.T) {
	at := time.Date(2026, 6, 11, 3, 15, 0, 0, time.UTC)
	require.True(t, IsWithinSchedule(nil, at))
	require.True(t, IsWithinSchedule(models.DefaultWeeklySchedule(), at))

	closed := models.DefaultWeeklySchedule()
	for i := range closed {
		closed[i].IsOpen = false
	}
	require.False(t, IsWithinSchedule(closed, at))

	lunch := models.DefaultWeeklySchedule()
	lunch[time.Thursday].OpenTime = "12:00"
	lunch[time.Thursday].CloseTime = "15:00"
	require.False(t, IsWithinSchedule(lunch, at.Add(11*time.Hour+45*time.Minute)))
	require.True(t, IsWithinSchedule(lunch, at.Add(8*time.Hour+45*time.Minute)))
}

func TestIsWithinRedemptionHoursUsesRestaurantTimezone(t *testing.T) {
	db := setupTestDB(t)
	mexico := createRestaurant(t, db, func(r *models.Restaurant) {
		r.Timezone = "America/Mexico_City"
		r.RedemptionSchedule = datatypes.NewJSONType(thursdayNightSchedule())
	})
	utc := createRestaurant(t, db, func(r *models.Restaurant) {
		r.RedemptionSchedule = datatypes.NewJSONType(thursdayNightSchedule())
	})
	ctx := context.Background()

	nowUTC := time.Date(2026, 6, 12, 5, 30, 0, 0, time.UTC)
	svc := NewScheduleService(db, fixedNow(nowUTC))

	open, err := svc.IsWithinRedemptionHours(ctx, mexico.ID, false)
	require.NoError(t, err)
	require.True(t, open)

	open, err = svc.IsWithinRedemptionHours(ctx, utc.ID, false)
	require.NoError(t, err)
	require.False(t, open)

	svc = NewScheduleService(db, fixedNow(time.Date(2026, 6, 12, 16, 0, 0, 0, time.UTC)))
	open, err = svc.IsWithinRedemptionHours(ctx, mexico.ID, false)
	require.NoError(t, err)
	require.False(t, open)

	_, err = svc.IsWithinRedemptionHours(ctx, uuid.New(), false)
	require.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestIsWithinRedemptionHoursTakeawaySchedule(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createRestaurant(t, db, func(r *models.Restaurant) {
		r.UsesSameRedemptionSchedule = false
		r.TakeawayRedemptionSchedule = datatypes.NewJSONType(thursdayNightSchedule())
	})
	svc := NewScheduleService(db, fixedNow(time.Date(2026, 6, 11, 10, 0, 0, 0, time.UTC)))

	dineIn, err := svc.IsWithinRedemptionHours(context.Background(), restaurant.ID, false)
	require.NoError(t, err)
	require.True(t, dineIn)

	takeaway, err := svc.IsWithinRedemptionHours(context.Background(), restaurant.ID, true)
	require.NoError(t, err)
	require.False(t, takeaway)
}

func TestValidateSchedule(t *testing.T) {
	require.NoError(t, ValidateSchedule(models.DefaultWeeklySchedule()))
	require.NoError(t, ValidateSchedule(thursdayNightSchedule()))

	short := models.DefaultWeeklySchedule()[:6]
	require.ErrorIs(t, ValidateSchedule(short), ErrInvalidSchedule)

	dup := models.DefaultWeeklySchedule()
	dup[6].DayOfWeek = 0
	require.ErrorIs(t, ValidateSchedule(dup), ErrInvalidSchedule)

	bad := models.DefaultWeeklySchedule()
	bad[2].CloseTime = "25:00"
	require.ErrorIs(t, ValidateSchedule(bad), ErrInvalidSchedule)

	closedGarbage := models.DefaultWeeklySchedule()
	closedGarbage[2].IsOpen = false
	closedGarbage[2].OpenTime = "later"
	require.NoError(t, ValidateSchedule(closedGarbage))
}

func TestWeeklyRedemptionHours(t *testing.T) {
	require.Equal(t, 7*24*time.Hour, WeeklyRedemptionHours(models.DefaultWeeklySchedule()))
	require.Equal(t, 8*time.Hour, WeeklyRedemptionHours(thursdayNightSchedule()))

	lunch := thursdayNightSchedule()
	lunch[time.Monday] = models.DaySchedule{DayOfWeek: 1, IsOpen: true, OpenTime: "12:30", CloseTime: "15:00"}
	require.Equal(t, 10*time.Hour+30*time.Minute, WeeklyRedemptionHours(lunch))
}

func TestUpdateSchedule(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createRestaurant(t, db, nil)
	svc := NewScheduleService(db, nil)
	schedule := thursdayNightSchedule()
	same := false
	tz := "Europe/Madrid"

	updated, err := svc.UpdateSchedule(context.Background(), restaurant.ID, ScheduleUpdate{
		TakeawayRedemptionSchedule: &schedule,
		UsesSameRedemptionSchedule: &same,
		Timezone:                   &tz,
	})
	require.NoError(t, err)
	require.False(t, updated.UsesSameRedemptionSchedule)
	require.Equal(t, "Europe/Madrid", updated.Timezone)
	require.Equal(t, "18:00", updated.ScheduleFor(true)[time.Thursday].OpenTime)
	require.Equal(t, "00:00", updated.ScheduleFor(false)[time.Thursday].OpenTime)

	bad := "Mars/Olympus"
	_, err = svc.UpdateSchedule(context.Background(), restaurant.ID, ScheduleUpdate{Timezone: &bad})
	require.ErrorIs(t, err, ErrInvalidSchedule)
}
