package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityState is the lifecycle state of an activity (the "type" column).
type ActivityState string

const (
	StateReferralScanned   ActivityState = "referral_scanned"
	StateReferralPresented ActivityState = "referral_presented"
	StateReferralProcessed ActivityState = "referral_processed"
	StateRedeemScanned     ActivityState = "redeem_scanned"
	StateRedeemPresented   ActivityState = "redeem_presented"
	StateRedeemProcessed   ActivityState = "redeem_processed"
	StatePointsDeducted    ActivityState = "points_deducted"
)

// ActivityKind is the finer-grained classification of an activity.
type ActivityKind string

const (
	KindMealPurchase        ActivityKind = "meal_purchase"
	KindReferralUsed        ActivityKind = "referral_used"
	KindRestaurantRecruited ActivityKind = "restaurant_recruited"
	KindAppReferralUsed     ActivityKind = "app_referral_used"
	KindRollTokenProcessed  ActivityKind = "roll_token_processed"
	KindRollTokenGenerated  ActivityKind = "roll_token_generated"
	KindPointsAdjustment    ActivityKind = "points_adjustment"
)

// ReferralPendingStates are the states a bill may be processed from.
var ReferralPendingStates = []ActivityState{StateReferralScanned, StateReferralPresented}

// RedeemPendingStates are the states a redemption may be processed from.
var RedeemPendingStates = []ActivityState{StateRedeemScanned, StateRedeemPresented}

// IsTerminal reports whether no further transition is allowed.
func (s ActivityState) IsTerminal() bool {
	switch s {
	case StateReferralProcessed, StateRedeemProcessed, StatePointsDeducted:
		return true
	default:
		return false
	}
}

// IsRedeemTrack reports whether the state belongs to the redemption track.
func (s ActivityState) IsRedeemTrack() bool {
	switch s {
	case StateRedeemScanned, StateRedeemPresented, StateRedeemProcessed:
		return true
	default:
		return false
	}
}

// Presented returns the presented state of the same track.
func (s ActivityState) Presented() (ActivityState, bool) {
	switch s {
	case StateReferralScanned:
		return StateReferralPresented, true
	case StateRedeemScanned:
		return StateRedeemPresented, true
	default:
		return "", false
	}
}

// Activity is one ledger transaction: a bill payment, a redemption or an
// administrative deduction. Point fields are immutable once the state is terminal.
type Activity struct {
	BaseModel
	Type         ActivityState `gorm:"size:32;index" json:"type"`
	ActivityType ActivityKind  `gorm:"size:32" json:"activity_type"`

	AmountSpent    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount_spent"`
	Currency       string          `gorm:"size:3" json:"currency"`
	ConversionRate decimal.Decimal `gorm:"type:decimal(24,12);not null" json:"conversion_rate"`
	PointsRedeemed int64           `gorm:"not null" json:"points_redeemed"`
	IsTakeaway     bool            `json:"is_takeaway"`

	CustomerPoints            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"customer_points"`
	ReferrerPoints            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"referrer_points"`
	RestaurantRecruiterPoints decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"restaurant_recruiter_points"`
	AppReferrerPoints         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"app_referrer_points"`
	RestaurantDeduction       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"restaurant_deduction"`
	RestaurantDeductionAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"restaurant_deduction_amount"`
	UndistributedPoints       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"undistributed_points"`
	InitialPointsBalance      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"initial_points_balance"`

	UserID               uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	UserReferrerID       *uuid.UUID `gorm:"type:uuid;index" json:"user_referrer_id"`
	RestaurantReferrerID *uuid.UUID `gorm:"type:uuid" json:"restaurant_referrer_id"`
	AppReferrerID        *uuid.UUID `gorm:"type:uuid" json:"app_referrer_id"`
	RestaurantID         uuid.UUID  `gorm:"type:uuid;index" json:"restaurant_id"`
	ProcessedByID        *uuid.UUID `gorm:"type:uuid" json:"processed_by_id"`
	ScannerID            *uuid.UUID `gorm:"type:uuid" json:"scanner_id"`

	ReceiptPhoto string     `json:"receipt_photo"`
	Notes        string     `gorm:"type:text" json:"notes"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ProcessedAt  *time.Time `json:"processed_at"`
	IsActive     bool       `gorm:"not null;index" json:"is_active"`
}
