package models

import (
	"github.com/google/uuid"
)

// AuditEvent records settlement side facts that have no column of their own.
type AuditEvent struct {
	BaseModel
	ActivityID *uuid.UUID `gorm:"type:uuid;index" json:"activity_id"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index" json:"actor_id"`
	Action     string     `gorm:"size:64;index" json:"action"`
	Details    string     `gorm:"type:text" json:"details"`
}
