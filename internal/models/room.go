package models

import (
	"github.com/google/uuid"
	"time"
)

const (
	RoomTypeDirect = "direct"
	RoomTypeGroup  = "group"
)

type Room struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID uuid.UUID `gorm:"not null;index"`
	Type     string    `gorm:"not null;check:type IN ('direct','group')"`
	// Name is only set for group rooms; direct rooms take the other
	// member's display name.
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time

	// Denormalized last-message preview for room lists
	LastMessageText   string
	LastMessageAt     *time.Time
	LastMessageSender string

	Members  []Member  `gorm:"foreignKey:RoomID"`
	Messages []Message `gorm:"foreignKey:RoomID"`
}
