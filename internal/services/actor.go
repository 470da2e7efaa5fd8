package services

import (
	"github.com/google/uuid"

	"github.com/example/referdby/internal/models"
)

// Actor is the authenticated profile performing an operation.
type Actor struct {
	ID           uuid.UUID
	Role         models.Role
	RestaurantID *uuid.UUID
}

// ActorFromProfile builds an Actor from a stored profile.
func ActorFromProfile(profile *models.Profile) Actor {
	return Actor{ID: profile.ID, Role: profile.Role, RestaurantID: profile.RestaurantID}
}

func (a Actor) worksAt(restaurantID uuid.UUID) bool {
	return a.RestaurantID != nil && *a.RestaurantID == restaurantID
}

// AuthorizeSettlement allows admins anywhere and staff at their own restaurant.
func (a Actor) AuthorizeSettlement(restaurantID uuid.UUID) error {
	if !a.Role.CanProcessSettlements() {
		return wrapf(ErrForbidden, "role %q cannot process settlements", a.Role)
	}
	if a.Role == models.RoleAdmin || a.worksAt(restaurantID) {
		return nil
	}
	return wrapf(ErrForbidden, "restaurant %s belongs to other staff", restaurantID)
}

// AuthorizeManage allows admins anywhere and managers of their own restaurant.
func (a Actor) AuthorizeManage(restaurantID uuid.UUID) error {
	if !a.Role.CanManageRestaurant() {
		return wrapf(ErrForbidden, "role %q cannot manage restaurants", a.Role)
	}
	if a.Role == models.RoleAdmin || a.worksAt(restaurantID) {
		return nil
	}
	return wrapf(ErrForbidden, "restaurant %s is managed by someone else", restaurantID)
}

// AuthorizeAdjust allows administrative point corrections.
func (a Actor) AuthorizeAdjust() error {
	if !a.Role.CanAdjustPoints() {
		return wrapf(ErrForbidden, "role %q cannot adjust points", a.Role)
	}
	return nil
}
