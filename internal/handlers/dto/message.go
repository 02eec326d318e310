package dto

import (
	"github.com/vantran/workchat/internal/chat"
)

// SendMessageRequest carries a new message. ClientID is the optimistic
// client-generated uuid; the server stores it verbatim so the change-feed
// echo dedups against the sender's local copy.
type SendMessageRequest struct {
	ClientID    string            `json:"client_id" binding:"omitempty,uuid"`
	Content     string            `json:"content"`
	Type        string            `json:"type" binding:"omitempty,oneof=text image file system"`
	FileURL     string            `json:"file_url"`
	FileName    string            `json:"file_name"`
	FileSize    int64             `json:"file_size"`
	Attachments []chat.Attachment `json:"attachments"`
	ReplyTo     string            `json:"reply_to" binding:"omitempty,uuid"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,max=32"`
}

type UpdateSettingsRequest struct {
	Mode         string   `json:"mode" binding:"required,oneof=all mentions dnd"`
	SoundMessage bool     `json:"sound_message"`
	SoundSystem  bool     `json:"sound_system"`
	BrowserPush  bool     `json:"browser_push"`
	QuietEnabled bool     `json:"quiet_enabled"`
	QuietStart   int      `json:"quiet_start" binding:"min=0,max=23"`
	QuietEnd     int      `json:"quiet_end" binding:"min=0,max=23"`
	MutedRooms   []string `json:"muted_rooms" binding:"omitempty,dive,uuid"`
}

// AlertPayload is the user-scoped notification directive pushed over the
// websocket when the policy engine fires.
type AlertPayload struct {
	Message  chat.Message  `json:"message"`
	Decision chat.Decision `json:"decision"`
}
