package models

import (
	"github.com/google/uuid"
	"time"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

// MentionAll is the sentinel stored in the mentions list when a message
// targets every active member of the room.
const MentionAll = "all"

type Message struct {
	// ID may be supplied by the sender (a client-generated uuid) so the
	// change-feed echo of an optimistic send dedups against the local copy.
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomID     uuid.UUID `gorm:"not null;index:idx_messages_room_created"`
	SenderID   uuid.UUID `gorm:"not null"`
	SenderName string    `gorm:"not null"`
	Content    string
	Type       string `gorm:"default:'text';check:type IN ('text','image','file','system')"`

	FileURL  string
	FileName string
	FileSize int64

	// Attachments and Mentions are JSON columns; postgres jsonb keeps the
	// row shape stable across message kinds.
	Attachments JSONAttachments `gorm:"type:jsonb;default:'[]'"`
	Mentions    JSONStrings     `gorm:"type:jsonb;default:'[]'"`

	ReplyTo *uuid.UUID `gorm:"type:uuid"`

	IsPinned  bool `gorm:"default:false"`
	IsEdited  bool `gorm:"default:false"`
	IsDeleted bool `gorm:"default:false"`

	CreatedAt time.Time `gorm:"index:idx_messages_room_created"`
	EditedAt  *time.Time

	Room Room `gorm:"foreignKey:RoomID"`
}

// Attachment is a typed cross-entity reference carried by a message
// (order, task, product and the like).
type Attachment struct {
	Kind  string `json:"kind"`
	RefID string `json:"ref_id"`
	Label string `json:"label,omitempty"`
}
