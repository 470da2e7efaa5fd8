package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/models"
)

// Eligibility is the outcome of the redemption business rules. Message is
// set whenever Eligible is false.
type Eligibility struct {
	Eligible         bool       `json:"eligible"`
	Message          string     `json:"message,omitempty"`
	ProcessedVisits  int64      `json:"processed_visits"`
	LastRedemptionAt *time.Time `json:"last_redemption_at,omitempty"`
	NextEligibleAt   *time.Time `json:"next_eligible_at,omitempty"`
}

// EligibilityService decides who may redeem where.
type EligibilityService struct {
	db  *gorm.DB
	cfg config.RedemptionConfig
	now func() time.Time
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(db *gorm.DB, cfg config.RedemptionConfig, now func() time.Time) *EligibilityService {
	if now == nil {
		now = time.Now
	}
	return &EligibilityService{db: db, cfg: cfg, now: now}
}

// CheckRedemptionEligibility applies the visit minimum and the cooldown since
// the last processed redemption at the same restaurant. Rule failures come back
// as an ineligible result, not an error.
func (s *EligibilityService) CheckRedemptionEligibility(ctx context.Context, userID, restaurantID uuid.UUID) (Eligibility, error) {
	return s.check(s.db.WithContext(ctx), userID, restaurantID)
}

func (s *EligibilityService) check(db *gorm.DB, userID, restaurantID uuid.UUID) (Eligibility, error) {
	var profile models.Profile
	if err := db.Select("id", "current_points").First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Eligibility{}, wrapf(ErrProfileNotFound, "profile %s", userID)
		}
		return Eligibility{}, fmt.Errorf("load profile: %w", err)
	}
	var restaurantCount int64
	if err := db.Model(&models.Restaurant{}).Where("id = ?", restaurantID).Count(&restaurantCount).Error; err != nil {
		return Eligibility{}, fmt.Errorf("load restaurant: %w", err)
	}
	if restaurantCount == 0 {
		return Eligibility{}, wrapf(ErrRestaurantNotFound, "restaurant %s", restaurantID)
	}

	var result Eligibility
	if err := db.Model(&models.Activity{}).
		Where("user_id = ? AND restaurant_id = ? AND type = ?", userID, restaurantID, models.StateReferralProcessed).
		Count(&result.ProcessedVisits).Error; err != nil {
		return Eligibility{}, fmt.Errorf("count visits: %w", err)
	}

	var last models.Activity
	err := db.Where("user_id = ? AND restaurant_id = ? AND type = ?", userID, restaurantID, models.StateRedeemProcessed).
		Order("processed_at desc").
		First(&last).Error
	switch {
	case err == nil:
		at := last.UpdatedAt
		if last.ProcessedAt != nil {
			at = *last.ProcessedAt
		}
		result.LastRedemptionAt = &at
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Eligibility{}, fmt.Errorf("load last redemption: %w", err)
	}

	if RedeemablePoints(profile.CurrentPoints) < 1 {
		result.Message = "You have no points to redeem yet"
		return result, nil
	}
	if result.ProcessedVisits < int64(s.cfg.MinVisits) {
		result.Message = fmt.Sprintf("You need at least %d completed visit(s) at this restaurant before redeeming", s.cfg.MinVisits)
		return result, nil
	}
	if result.LastRedemptionAt != nil && s.cfg.Cooldown > 0 {
		next := result.LastRedemptionAt.Add(s.cfg.Cooldown)
		if s.now().Before(next) {
			result.NextEligibleAt = &next
			result.Message = fmt.Sprintf("You can redeem again at this restaurant after %s", next.UTC().Format(time.RFC3339))
			return result, nil
		}
	}

	result.Eligible = true
	return result, nil
}

// ValidatePointsRedemption returns a warning naming the violated bound, or ""
// when pointsToRedeem may be applied to billTotal. Points are worth one unit
// of points currency each, so billTotal must already be in points currency.
func ValidatePointsRedemption(billTotal, pointsToRedeem decimal.Decimal, maxRedemptionPercentage int, userAvailablePoints decimal.Decimal) string {
	if pointsToRedeem.IsNegative() || !pointsToRedeem.Equal(pointsToRedeem.Truncate(0)) {
		return "Points to redeem must be a whole number of zero or more"
	}
	available := RedeemablePoints(userAvailablePoints)
	if pointsToRedeem.GreaterThan(decimal.NewFromInt(available)) {
		return fmt.Sprintf("You only have %d points available to redeem", available)
	}

	if !billTotal.IsPositive() {
		return "Bill total must be greater than zero"
	}
	pct := maxRedemptionPercentage
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	limit := billTotal.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
	if pointsToRedeem.GreaterThan(limit) {
		return fmt.Sprintf("Points can cover at most %d%% of the bill (%s), requested %s",
			pct, limit.StringFixed(2), pointsToRedeem.String())
	}
	return ""
}
