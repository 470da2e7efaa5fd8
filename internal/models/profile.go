package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is an account of any role. CurrentPoints is a denormalized cache of
// the processed activities affecting the profile.
type Profile struct {
	BaseModel
	Email         string          `gorm:"uniqueIndex" json:"email"`
	FullName      string          `json:"full_name"`
	PasswordHash  string          `json:"-"`
	Role          Role            `gorm:"size:16;index" json:"role"`
	CurrentPoints decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"current_points"`
	HomeCurrency  string          `gorm:"size:3" json:"home_currency"`
	RestaurantID  *uuid.UUID      `gorm:"type:uuid;index" json:"restaurant_id"`
	RefererID     *uuid.UUID      `gorm:"type:uuid;index" json:"referer_id"`
}
