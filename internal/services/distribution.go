package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
)

// DistributionRole is a role a user holds within one settlement.
type DistributionRole string

const (
	RoleTagCustomer            DistributionRole = "customer"
	RoleTagReferrer            DistributionRole = "referrer"
	RoleTagRestaurantRecruiter DistributionRole = "restaurant_recruiter"
	RoleTagAppReferrer         DistributionRole = "app_referrer"
)

// DistributionEntry is the summed share of one user across all roles they hold.
type DistributionEntry struct {
	UserID         uuid.UUID          `json:"user_id"`
	Roles          []DistributionRole `json:"roles"`
	Points         decimal.Decimal    `json:"points"`
	InitialBalance decimal.Decimal    `json:"initial_balance"`
}

// HasRole reports whether the entry holds role.
func (e *DistributionEntry) HasRole(role DistributionRole) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SkippedRole is a role share that found no profile and stays with the restaurant.
type SkippedRole struct {
	Role   DistributionRole `json:"role"`
	UserID uuid.UUID        `json:"user_id"`
	Points decimal.Decimal  `json:"points"`
}

// Distribution is the per-user ledger map for one bill.
type Distribution struct {
	Entries map[uuid.UUID]*DistributionEntry
	Skipped []SkippedRole
}

// Total is the sum of points handed out to entries.
func (d *Distribution) Total() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range d.Entries {
		total = total.Add(entry.Points)
	}
	return total
}

// Undistributed is the sum of skipped role shares.
func (d *Distribution) Undistributed() decimal.Decimal {
	total := decimal.Zero
	for _, s := range d.Skipped {
		total = total.Add(s.Points)
	}
	return total
}

// Ordered returns entries sorted by user id so balance rows are always
// locked in the same order.
func (d *Distribution) Ordered() []*DistributionEntry {
	out := make([]*DistributionEntry, 0, len(d.Entries))
	for _, entry := range d.Entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}

// BalanceLookup reads a profile's current point balance.
type BalanceLookup interface {
	PointsBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, bool, error)
}

// DistributionInput names the participants of a bill and the computed points.
type DistributionInput struct {
	CustomerID           uuid.UUID
	UserReferrerID       *uuid.UUID
	AppReferrerID        *uuid.UUID
	RestaurantReferrerID *uuid.UUID
	Activity             *models.Activity
	Points               PointsResult
}

// CreatePointsDistributionMap expands a points result into per-user entries.
// A user holding several roles gets one entry with the roles' points summed.
func CreatePointsDistributionMap(ctx context.Context, lookup BalanceLookup, in DistributionInput) (*Distribution, error) {
	in = in.withActivityDefaults()
	if in.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("distribution: customer id is required")
	}
	balance, ok, err := lookup.PointsBalance(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("distribution: customer balance: %w", err)
	}
	if !ok {
		return nil, wrapf(ErrProfileNotFound, "customer %s", in.CustomerID)
	}

	dist := &Distribution{Entries: map[uuid.UUID]*DistributionEntry{
		in.CustomerID: {
			UserID:         in.CustomerID,
			Roles:          []DistributionRole{RoleTagCustomer},
			Points:         in.Points.CustomerPoints,
			InitialBalance: balance,
		},
	}}

	roles := []struct {
		id     *uuid.UUID
		role   DistributionRole
		points decimal.Decimal
	}{
		{in.UserReferrerID, RoleTagReferrer, in.Points.ReferrerPoints},
		{in.RestaurantReferrerID, RoleTagRestaurantRecruiter, in.Points.RestaurantRecruiterPoints},
		{in.AppReferrerID, RoleTagAppReferrer, in.Points.AppReferrerPoints},
	}
	for _, r := range roles {
		if r.id == nil || *r.id == uuid.Nil {
			continue
		}
		if entry, exists := dist.Entries[*r.id]; exists {
			entry.Roles = append(entry.Roles, r.role)
			entry.Points = entry.Points.Add(r.points)
			continue
		}
		balance, ok, err := lookup.PointsBalance(ctx, *r.id)
		if err != nil {
			return nil, fmt.Errorf("distribution: %s balance: %w", r.role, err)
		}
		if !ok {
			dist.Skipped = append(dist.Skipped, SkippedRole{Role: r.role, UserID: *r.id, Points: r.points})
			continue
		}
		dist.Entries[*r.id] = &DistributionEntry{
			UserID:         *r.id,
			Roles:          []DistributionRole{r.role},
			Points:         r.points,
			InitialBalance: balance,
		}
	}
	return dist, nil
}

// withActivityDefaults fills ids left empty from the referral activity.
func (in DistributionInput) withActivityDefaults() DistributionInput {
	if in.Activity == nil {
		return in
	}
	if in.CustomerID == uuid.Nil {
		in.CustomerID = in.Activity.UserID
	}
	if in.UserReferrerID == nil {
		in.UserReferrerID = in.Activity.UserReferrerID
	}
	if in.RestaurantReferrerID == nil {
		in.RestaurantReferrerID = in.Activity.RestaurantReferrerID
	}
	if in.AppReferrerID == nil {
		in.AppReferrerID = in.Activity.AppReferrerID
	}
	return in
}

type gormBalanceLookup struct {
	db *gorm.DB
}

// NewBalanceLookup reads balances from the profiles table.
func NewBalanceLookup(db *gorm.DB) BalanceLookup {
	return &gormBalanceLookup{db: db}
}

func (l *gormBalanceLookup) PointsBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, bool, error) {
	var profile models.Profile
	err := l.db.WithContext(ctx).Select("id", "current_points").First(&profile, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return profile.CurrentPoints, true, nil
}
