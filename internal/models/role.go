package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account kinds.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleServer   Role = "server"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ParseRole converts user input into a Role.
func ParseRole(value string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleCustomer, RoleServer, RoleManager, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// IsStaff reports whether the role belongs to restaurant personnel.
func (r Role) IsStaff() bool {
	switch r {
	case RoleServer, RoleManager:
		return true
	case RoleCustomer, RoleAdmin:
		return false
	default:
		return false
	}
}

// CanProcessSettlements reports whether the role may process bills and redemptions.
func (r Role) CanProcessSettlements() bool {
	switch r {
	case RoleServer, RoleManager, RoleAdmin:
		return true
	case RoleCustomer:
		return false
	default:
		return false
	}
}

// CanManageRestaurant reports whether the role may edit restaurant settings.
func (r Role) CanManageRestaurant() bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	case RoleCustomer, RoleServer:
		return false
	default:
		return false
	}
}

// CanAdjustPoints reports whether the role may issue administrative corrections.
func (r Role) CanAdjustPoints() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleCustomer, RoleServer, RoleManager:
		return false
	default:
		return false
	}
}
