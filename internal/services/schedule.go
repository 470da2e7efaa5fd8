package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
)

const minutesPerDay = 24 * 60

// ScheduleService answers redemption-hours questions in the restaurant's
// own timezone.
type ScheduleService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(db *gorm.DB, now func() time.Time) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{db: db, now: now}
}

// IsWithinRedemptionHours reports whether the restaurant accepts dine-in or
// takeaway redemptions right now.
func (s *ScheduleService) IsWithinRedemptionHours(ctx context.Context, restaurantID uuid.UUID, isTakeaway bool) (bool, error) {
	restaurant, err := loadRestaurant(s.db.WithContext(ctx), restaurantID)
	if err != nil {
		return false, err
	}
	return s.isOpen(restaurant, isTakeaway), nil
}

func (s *ScheduleService) isOpen(restaurant *models.Restaurant, isTakeaway bool) bool {
	local := s.now().In(restaurantLocation(restaurant))
	return IsWithinSchedule(restaurant.ScheduleFor(isTakeaway), local)
}

// IsWithinSchedule evaluates schedule at local, which must already be in the
// restaurant's timezone. A window whose close time is earlier than its open
// time runs past midnight into the next day. An empty schedule is always open.
func IsWithinSchedule(schedule models.WeeklySchedule, local time.Time) bool {
	if len(schedule) == 0 {
		return true
	}
	minute := local.Hour()*60 + local.Minute()
	today := int(local.Weekday())
	yesterday := (today + 6) % 7

	for _, entry := range schedule {
		if !entry.IsOpen {
			continue
		}
		opens, closes, err := entryWindow(entry)
		if err != nil {
			log.Printf("[Schedule] ignoring day %d: %v", entry.DayOfWeek, err)
			continue
		}
		switch entry.DayOfWeek {
		case today:
			if opens == closes {
				return true
			}
			if closes > opens && minute >= opens && minute < closes {
				return true
			}
			if closes < opens && minute >= opens {
				return true
			}
		case yesterday:
			if closes < opens && minute < closes {
				return true
			}
		}
	}
	return false
}

// ValidateSchedule requires exactly one entry per weekday and HH:MM times on
// every open day.
func ValidateSchedule(schedule models.WeeklySchedule) error {
	if len(schedule) != 7 {
		return wrapf(ErrInvalidSchedule, "expected 7 days, got %d", len(schedule))
	}
	seen := make(map[int]bool, 7)
	for _, entry := range schedule {
		if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 {
			return wrapf(ErrInvalidSchedule, "day_of_week %d out of range", entry.DayOfWeek)
		}
		if seen[entry.DayOfWeek] {
			return wrapf(ErrInvalidSchedule, "day_of_week %d listed twice", entry.DayOfWeek)
		}
		seen[entry.DayOfWeek] = true
		if !entry.IsOpen {
			continue
		}
		if _, _, err := entryWindow(entry); err != nil {
			return wrapf(ErrInvalidSchedule, "day %d: %v", entry.DayOfWeek, err)
		}
	}
	return nil
}

// WeeklyRedemptionHours totals the open time of a schedule, counting
// midnight-crossing windows in full.
func WeeklyRedemptionHours(schedule models.WeeklySchedule) time.Duration {
	var total int
	for _, entry := range schedule {
		if !entry.IsOpen {
			continue
		}
		opens, closes, err := entryWindow(entry)
		if err != nil {
			continue
		}
		switch {
		case opens == closes:
			total += minutesPerDay
		case closes > opens:
			total += closes - opens
		default:
			total += minutesPerDay - opens + closes
		}
	}
	return time.Duration(total) * time.Minute
}

// ScheduleUpdate carries the schedule fields a manager may change.
type ScheduleUpdate struct {
	RedemptionSchedule         *models.WeeklySchedule `json:"redemption_schedule"`
	TakeawayRedemptionSchedule *models.WeeklySchedule `json:"takeaway_redemption_schedule"`
	UsesSameRedemptionSchedule *bool                  `json:"uses_same_redemption_schedule"`
	Timezone                   *string                `json:"timezone"`
}

// UpdateSchedule validates and stores new redemption hours.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, restaurantID uuid.UUID, update ScheduleUpdate) (*models.Restaurant, error) {
	updates := map[string]interface{}{}
	if update.RedemptionSchedule != nil {
		if err := ValidateSchedule(*update.RedemptionSchedule); err != nil {
			return nil, err
		}
		updates["redemption_schedule"] = datatypes.NewJSONType(*update.RedemptionSchedule)
	}
	if update.TakeawayRedemptionSchedule != nil {
		if err := ValidateSchedule(*update.TakeawayRedemptionSchedule); err != nil {
			return nil, err
		}
		updates["takeaway_redemption_schedule"] = datatypes.NewJSONType(*update.TakeawayRedemptionSchedule)
	}
	if update.UsesSameRedemptionSchedule != nil {
		updates["uses_same_redemption_schedule"] = *update.UsesSameRedemptionSchedule
	}
	if update.Timezone != nil {
		tz := strings.TrimSpace(*update.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, wrapf(ErrInvalidSchedule, "unknown timezone %q", tz)
		}
		updates["timezone"] = tz
	}

	db := s.db.WithContext(ctx)
	if _, err := loadRestaurant(db, restaurantID); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Restaurant{}).Where("id = ?", restaurantID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update schedule: %w", err)
		}
	}
	return loadRestaurant(db, restaurantID)
}

func entryWindow(entry models.DaySchedule) (int, int, error) {
	opens, err := parseClock(entry.OpenTime)
	if err != nil {
		return 0, 0, fmt.Errorf("open_time: %w", err)
	}
	closes, err := parseClock(entry.CloseTime)
	if err != nil {
		return 0, 0, fmt.Errorf("close_time: %w", err)
	}
	return opens, closes, nil
}

// parseClock turns "HH:MM" (seconds tolerated) into minutes after midnight.
func parseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%q has an invalid minute", value)
	}
	return hour*60 + minute, nil
}

func restaurantLocation(restaurant *models.Restaurant) *time.Location {
	tz := strings.TrimSpace(restaurant.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("[Schedule] restaurant %s has unknown timezone %q, using UTC", restaurant.ID, tz)
		return time.UTC
	}
	return loc
}

func loadRestaurant(db *gorm.DB, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := db.First(&restaurant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wrapf(ErrRestaurantNotFound, "restaurant %s", id)
		}
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	return &restaurant, nil
}
