package models

import (
	"github.com/google/uuid"
	"time"
)

// Reaction is one user's emoji on one message. The composite key keeps at
// most one row per (message, user, emoji); toggling re-applies this.
type Reaction struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Emoji     string    `gorm:"primaryKey"`
	UserName  string    `gorm:"not null"`
	CreatedAt time.Time
}
