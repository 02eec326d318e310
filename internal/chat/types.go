package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message kinds, mirroring the stored type tag.
const (
	TypeText   = "text"
	TypeImage  = "image"
	TypeFile   = "file"
	TypeSystem = "system"
)

// MentionAll is the sentinel mention target meaning every active member.
const MentionAll = "all"

// Message is the wire/view shape of a room message. It is what the
// change-feed carries and what the store caches; handlers convert the
// gorm model into this shape once and reuse it everywhere.
type Message struct {
	ID          uuid.UUID    `json:"id"`
	RoomID      uuid.UUID    `json:"room_id"`
	SenderID    uuid.UUID    `json:"sender_id"`
	SenderName  string       `json:"sender_name"`
	Type        string       `json:"type"`
	Content     string       `json:"content"`
	FileURL     string       `json:"file_url,omitempty"`
	FileName    string       `json:"file_name,omitempty"`
	FileSize    int64        `json:"file_size,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Mentions    []string     `json:"mentions,omitempty"`
	ReplyTo     *uuid.UUID   `json:"reply_to,omitempty"`
	IsPinned    bool         `json:"is_pinned"`
	IsEdited    bool         `json:"is_edited"`
	IsDeleted   bool         `json:"is_deleted"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Attachment is a typed cross-entity reference (order, task, product...).
type Attachment struct {
	Kind  string `json:"kind"`
	RefID string `json:"ref_id"`
	Label string `json:"label,omitempty"`
}

// Member is the view shape of a room membership row.
type Member struct {
	RoomID      uuid.UUID  `json:"room_id"`
	UserID      uuid.UUID  `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

// Reaction is one user's emoji on one message.
type Reaction struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Emoji     string    `json:"emoji"`
}
