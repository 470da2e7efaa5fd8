package services

import (
	"github.com/shopspring/decimal"

	"github.com/example/referdby/internal/config"
)

const pointsPrecision = 2

var hundred = decimal.NewFromInt(100)

// PointsResult is the split of one spend across the settlement roles. All
// values are in points; RestaurantDeduction is their sum.
type PointsResult struct {
	CustomerPoints            decimal.Decimal `json:"customer_points"`
	ReferrerPoints            decimal.Decimal `json:"referrer_points"`
	RestaurantRecruiterPoints decimal.Decimal `json:"restaurant_recruiter_points"`
	AppReferrerPoints         decimal.Decimal `json:"app_referrer_points"`
	RestaurantDeduction       decimal.Decimal `json:"restaurant_deduction"`
}

// Participants says which optional roles are present in a settlement.
type Participants struct {
	Referrer            bool
	RestaurantRecruiter bool
	AppReferrer         bool
}

// PointsCalculator turns a spend into points using configured role percentages.
type PointsCalculator struct {
	cfg config.PointsConfig
}

// NewPointsCalculator constructs a PointsCalculator.
func NewPointsCalculator(cfg config.PointsConfig) *PointsCalculator {
	return &PointsCalculator{cfg: cfg}
}

// Currency is the unit points are denominated in.
func (c *PointsCalculator) Currency() string {
	return c.cfg.Currency
}

// CalculatePoints splits amountSpent (in points currency) across all roles.
// Callers validate that amountSpent is positive.
func (c *PointsCalculator) CalculatePoints(amountSpent decimal.Decimal) PointsResult {
	if !amountSpent.IsPositive() {
		return zeroPoints()
	}
	result := PointsResult{
		CustomerPoints:            share(amountSpent, c.cfg.CustomerPercent),
		ReferrerPoints:            share(amountSpent, c.cfg.ReferrerPercent),
		RestaurantRecruiterPoints: share(amountSpent, c.cfg.RestaurantRecruiterPercent),
		AppReferrerPoints:         share(amountSpent, c.cfg.AppReferrerPercent),
	}
	result.RestaurantDeduction = result.total()
	return result
}

// ForParticipants zeroes the roles nobody holds and recomputes the deduction.
func (r PointsResult) ForParticipants(p Participants) PointsResult {
	out := r
	if !p.Referrer {
		out.ReferrerPoints = decimal.Zero
	}
	if !p.RestaurantRecruiter {
		out.RestaurantRecruiterPoints = decimal.Zero
	}
	if !p.AppReferrer {
		out.AppReferrerPoints = decimal.Zero
	}
	out.RestaurantDeduction = out.total()
	return out
}

func (r PointsResult) total() decimal.Decimal {
	return r.CustomerPoints.
		Add(r.ReferrerPoints).
		Add(r.RestaurantRecruiterPoints).
		Add(r.AppReferrerPoints)
}

func share(amount, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(percent).Div(hundred).RoundFloor(pointsPrecision)
}

func zeroPoints() PointsResult {
	return PointsResult{
		CustomerPoints:            decimal.Zero,
		ReferrerPoints:            decimal.Zero,
		RestaurantRecruiterPoints: decimal.Zero,
		AppReferrerPoints:         decimal.Zero,
		RestaurantDeduction:       decimal.Zero,
	}
}
