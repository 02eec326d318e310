package models

import (
	"github.com/google/uuid"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a user's membership row in a room. Rows are never deleted,
// only deactivated, so message history keeps its authors.
type Member struct {
	RoomID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName string    `gorm:"not null"`
	AvatarURL   string
	Role        string `gorm:"default:'member';check:role IN ('admin','member')"`
	IsActive    bool   `gorm:"default:true"`
	JoinedAt    time.Time
	LastReadAt  *time.Time
}
