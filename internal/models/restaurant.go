package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DaySchedule is the redemption window for one weekday. Times are "HH:MM" in
// the restaurant's timezone; a close time earlier than the open time runs
// into the next day, and equal times mean the whole day.
type DaySchedule struct {
	DayOfWeek int    `json:"day_of_week"` // 0 = Sunday
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
}

// WeeklySchedule holds one entry per calendar day.
type WeeklySchedule []DaySchedule

// DefaultWeeklySchedule is open all day every day.
func DefaultWeeklySchedule() WeeklySchedule {
	schedule := make(WeeklySchedule, 7)
	for day := 0; day < 7; day++ {
		schedule[day] = DaySchedule{DayOfWeek: day, IsOpen: true, OpenTime: "00:00", CloseTime: "00:00"}
	}
	return schedule
}

// Restaurant carries the redemption rules and the restaurant points account.
type Restaurant struct {
	BaseModel
	Name                       string                             `json:"name"`
	Currency                   string                             `gorm:"size:3" json:"currency"`
	RequireBillPhotos          bool                               `json:"require_bill_photos"`
	MaxRedemptionPercentage    int                                `json:"max_redemption_percentage"`
	RedemptionSchedule         datatypes.JSONType[WeeklySchedule] `json:"redemption_schedule"`
	TakeawayRedemptionSchedule datatypes.JSONType[WeeklySchedule] `json:"takeaway_redemption_schedule"`
	UsesSameRedemptionSchedule bool                               `json:"uses_same_redemption_schedule"`
	Timezone                   string                             `json:"timezone"`
	CurrentPoints              decimal.Decimal                    `gorm:"type:decimal(20,4);not null" json:"current_points"`
	RecruitedByID              *uuid.UUID                         `gorm:"type:uuid" json:"recruited_by_id"`
}

// ScheduleFor returns the schedule that governs dine-in or takeaway redemptions.
func (r *Restaurant) ScheduleFor(isTakeaway bool) WeeklySchedule {
	if isTakeaway && !r.UsesSameRedemptionSchedule {
		return r.TakeawayRedemptionSchedule.Data()
	}
	return r.RedemptionSchedule.Data()
}
