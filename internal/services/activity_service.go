package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/models"
)

// ActivityService creates scans and moves them to presented.
type ActivityService struct {
	db  *gorm.DB
	cfg config.RedemptionConfig
	now func() time.Time
}

// NewActivityService constructs an ActivityService.
func NewActivityService(db *gorm.DB, cfg config.RedemptionConfig, now func() time.Time) *ActivityService {
	if now == nil {
		now = time.Now
	}
	return &ActivityService{db: db, cfg: cfg, now: now}
}

// ReferralScanInput identifies a customer checking in for a meal.
type ReferralScanInput struct {
	CustomerID   uuid.UUID  `json:"customer_id"`
	RestaurantID uuid.UUID  `json:"restaurant_id"`
	ReferrerID   *uuid.UUID `json:"referrer_id"`
}

// RedeemScanInput identifies a customer asking to spend points.
type RedeemScanInput struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	IsTakeaway   bool      `json:"is_takeaway"`
}

// RecordReferralScan opens a referral-track activity. The app referrer comes
// from the customer's profile and the recruiter from the restaurant.
func (s *ActivityService) RecordReferralScan(ctx context.Context, actor Actor, in ReferralScanInput) (*models.Activity, error) {
	if err := actor.AuthorizeSettlement(in.RestaurantID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	restaurant, err := loadRestaurant(db, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	customer, err := loadProfile(db, in.CustomerID)
	if err != nil {
		return nil, err
	}

	activity := s.newActivity(models.StateReferralScanned, models.KindMealPurchase, actor, customer, restaurant)
	if in.ReferrerID != nil && *in.ReferrerID != uuid.Nil {
		if *in.ReferrerID == customer.ID {
			return nil, wrapf(ErrForbidden, "customers cannot refer themselves")
		}
		if _, err := loadProfile(db, *in.ReferrerID); err != nil {
			return nil, err
		}
		activity.UserReferrerID = in.ReferrerID
		activity.ActivityType = models.KindReferralUsed
	}
	if customer.RefererID != nil && *customer.RefererID != customer.ID {
		activity.AppReferrerID = customer.RefererID
	}
	if restaurant.RecruitedByID != nil {
		activity.RestaurantReferrerID = restaurant.RecruitedByID
	}

	if err := db.Create(activity).Error; err != nil {
		return nil, fmt.Errorf("create referral scan: %w", err)
	}
	log.Printf("[Activity] referral scan %s for %s at %s", activity.ID, customer.ID, restaurant.ID)
	return activity, nil
}

// RecordRedeemScan opens a redemption-track activity.
func (s *ActivityService) RecordRedeemScan(ctx context.Context, actor Actor, in RedeemScanInput) (*models.Activity, error) {
	if err := actor.AuthorizeSettlement(in.RestaurantID); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	restaurant, err := loadRestaurant(db, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	customer, err := loadProfile(db, in.CustomerID)
	if err != nil {
		return nil, err
	}

	activity := s.newActivity(models.StateRedeemScanned, models.KindRollTokenGenerated, actor, customer, restaurant)
	activity.IsTakeaway = in.IsTakeaway
	if err := db.Create(activity).Error; err != nil {
		return nil, fmt.Errorf("create redeem scan: %w", err)
	}
	log.Printf("[Activity] redeem scan %s for %s at %s", activity.ID, customer.ID, restaurant.ID)
	return activity, nil
}

func (s *ActivityService) newActivity(state models.ActivityState, kind models.ActivityKind, actor Actor, customer *models.Profile, restaurant *models.Restaurant) *models.Activity {
	activity := &models.Activity{
		Type:                 state,
		ActivityType:         kind,
		Currency:             NormalizeCurrency(restaurant.Currency),
		ConversionRate:       decimal.Zero,
		UserID:               customer.ID,
		RestaurantID:         restaurant.ID,
		InitialPointsBalance: customer.CurrentPoints,
		IsActive:             true,
	}
	if actor.ID != uuid.Nil {
		scanner := actor.ID
		activity.ScannerID = &scanner
	}
	if s.cfg.ScanTTL > 0 {
		expires := s.now().Add(s.cfg.ScanTTL)
		activity.ExpiresAt = &expires
	}
	return activity
}

// MarkPresented moves a scanned activity to presented on the same track.
func (s *ActivityService) MarkPresented(ctx context.Context, actor Actor, activityID uuid.UUID) (*models.Activity, error) {
	db := s.db.WithContext(ctx)
	activity, err := loadActivity(db, activityID)
	if err != nil {
		return nil, err
	}
	if err := actor.AuthorizeSettlement(activity.RestaurantID); err != nil {
		return nil, err
	}
	if !activity.IsActive || activity.Type.IsTerminal() {
		return nil, wrapf(ErrAlreadyProcessed, "activity %s is %s", activity.ID, activity.Type)
	}
	next, ok := activity.Type.Presented()
	if !ok {
		return nil, wrapf(ErrAlreadyProcessed, "activity %s is already %s", activity.ID, activity.Type)
	}
	if activity.ExpiresAt != nil && !s.now().Before(*activity.ExpiresAt) {
		return nil, wrapf(ErrActivityExpired, "activity %s expired at %s", activity.ID, activity.ExpiresAt.Format(time.RFC3339))
	}

	res := db.Model(&models.Activity{}).
		Where("id = ? AND type = ? AND is_active = ?", activity.ID, activity.Type, true).
		Updates(map[string]interface{}{"type": next, "updated_at": s.now()})
	if res.Error != nil {
		return nil, fmt.Errorf("mark presented: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, wrapf(ErrAlreadyProcessed, "activity %s changed concurrently", activity.ID)
	}
	return loadActivity(db, activity.ID)
}

// ActivityFilter narrows ListActivities. Limit is used as given; zero means
// a page of 20. Callers bound it with utils.ParsePagination.
type ActivityFilter struct {
	State  models.ActivityState
	Limit  int
	Offset int
}

// ListActivities returns the activities visible to actor, newest first.
// Customers see activities they took part in, staff their restaurant's, admins all.
func (s *ActivityService) ListActivities(ctx context.Context, actor Actor, filter ActivityFilter) ([]models.Activity, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Activity{})
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleServer, models.RoleManager:
		if actor.RestaurantID == nil {
			return nil, 0, wrapf(ErrForbidden, "staff profile has no restaurant")
		}
		query = query.Where("restaurant_id = ?", *actor.RestaurantID)
	case models.RoleCustomer:
		query = query.Where("user_id = ? OR user_referrer_id = ? OR app_referrer_id = ? OR restaurant_referrer_id = ?",
			actor.ID, actor.ID, actor.ID, actor.ID)
	default:
		return nil, 0, wrapf(ErrForbidden, "unknown role %q", actor.Role)
	}
	if filter.State != "" {
		query = query.Where("type = ?", filter.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	var activities []models.Activity
	if err := query.Order("created_at desc").Limit(limit).Offset(filter.Offset).Find(&activities).Error; err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}
	return activities, total, nil
}

func loadActivity(db *gorm.DB, id uuid.UUID) (*models.Activity, error) {
	var activity models.Activity
	if err := db.First(&activity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrapf(ErrActivityNotFound, "activity %s", id)
		}
		return nil, fmt.Errorf("load activity: %w", err)
	}
	return &activity, nil
}

func loadProfile(db *gorm.DB, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrapf(ErrProfileNotFound, "profile %s", id)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}
