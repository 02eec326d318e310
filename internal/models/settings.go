package models

import (
	"github.com/google/uuid"
	"time"
)

// NotificationSettings is the per-user alerting configuration. One row per
// user, created with defaults on first load and persisted on every change.
type NotificationSettings struct {
	UserID       uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Mode         string      `gorm:"default:'all';check:mode IN ('all','mentions','dnd')"`
	SoundMessage bool        `gorm:"default:true"`
	SoundSystem  bool        `gorm:"default:true"`
	BrowserPush  bool        `gorm:"default:false"`
	QuietEnabled bool        `gorm:"default:false"`
	QuietStart   int         `gorm:"default:22"`
	QuietEnd     int         `gorm:"default:7"`
	MutedRooms   JSONStrings `gorm:"type:jsonb;default:'[]'"`
	UpdatedAt    time.Time
}
