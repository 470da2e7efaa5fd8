package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/referdby/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createRestaurant(t *testing.T, db *gorm.DB, mutate func(*models.Restaurant)) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{
		Name:                       "Casa Test",
		Currency:                   "USD",
		MaxRedemptionPercentage:    50,
		RedemptionSchedule:         datatypes.NewJSONType(models.DefaultWeeklySchedule()),
		TakeawayRedemptionSchedule: datatypes.NewJSONType(models.DefaultWeeklySchedule()),
		UsesSameRedemptionSchedule: true,
		Timezone:                   "UTC",
		CurrentPoints:              decimal.NewFromInt(1000),
	}
	if mutate != nil {
		mutate(restaurant)
	}
	require.NoError(t, db.Create(restaurant).Error)
	return restaurant
}

func createProfile(t *testing.T, db *gorm.DB, role models.Role, points string, mutate func(*models.Profile)) *models.Profile {
	t.Helper()
	profile := &models.Profile{
		Email:         uuid.NewString() + "@example.com",
		FullName:      "Test " + string(role),
		Role:          role,
		CurrentPoints: decimal.RequireFromString(points),
		HomeCurrency:  "USD",
	}
	if mutate != nil {
		mutate(profile)
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func reloadProfile(t *testing.T, db *gorm.DB, id uuid.UUID) models.Profile {
	t.Helper()
	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", id).Error)
	return profile
}

func reloadRestaurant(t *testing.T, db *gorm.DB, id uuid.UUID) models.Restaurant {
	t.Helper()
	var restaurant models.Restaurant
	require.NoError(t, db.First(&restaurant, "id = ?", id).Error)
	return restaurant
}

func reloadActivity(t *testing.T, db *gorm.DB, id uuid.UUID) models.Activity {
	t.Helper()
	var activity models.Activity
	require.NoError(t, db.First(&activity, "id = ?", id).Error)
	return activity
}

func fixedNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
