package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notification modes. They are mutually exclusive.
const (
	ModeAll      = "all"
	ModeMentions = "mentions"
	ModeDND      = "dnd"
)

// PriorityMarker makes a message bypass dnd, quiet hours and per-room
// mute: it always sounds and always attempts push.
const PriorityMarker = "!!"

// Settings is a user's alerting configuration, passed into Decide by
// value. Load/save lives behind SettingsPersistence.
type Settings struct {
	Mode         string             `json:"mode"`
	SoundMessage bool               `json:"sound_message"`
	SoundSystem  bool               `json:"sound_system"`
	BrowserPush  bool               `json:"browser_push"`
	QuietEnabled bool               `json:"quiet_enabled"`
	QuietStart   int                `json:"quiet_start"`
	QuietEnd     int                `json:"quiet_end"`
	MutedRooms   map[uuid.UUID]bool `json:"-"`
}

// DefaultSettings are applied for users who never touched the settings UI.
func DefaultSettings() Settings {
	return Settings{
		Mode:         ModeAll,
		SoundMessage: true,
		SoundSystem:  true,
		BrowserPush:  false,
		QuietEnabled: false,
		QuietStart:   22,
		QuietEnd:     7,
		MutedRooms:   map[uuid.UUID]bool{},
	}
}

// Validate rejects settings that cannot have come from the UI.
func (v Settings) Validate() error {
	switch v.Mode {
	case ModeAll, ModeMentions, ModeDND:
	default:
		return ErrInvalidMode
	}
	if v.QuietStart < 0 || v.QuietStart > 23 || v.QuietEnd < 0 || v.QuietEnd > 23 {
		return ErrInvalidQuietHour
	}
	return nil
}

// Decision is the outcome for a single foreign message. Push is an
// attempt; the browser permission gate lives at the delivery boundary.
type Decision struct {
	Sound    bool `json:"sound"`
	Push     bool `json:"push"`
	Priority bool `json:"priority"`
}

// IsPriority reports whether the trimmed text starts with the marker.
func IsPriority(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), PriorityMarker)
}

// InQuietHours reports whether the given hour falls inside [start, end),
// wrapping past midnight when start >= end.
func InQuietHours(start, end, hour int) bool {
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Decide applies the notification policy to a foreign message.
// Self-authored messages must be filtered before calling this.
func Decide(msg Message, userID uuid.UUID, settings Settings, roomMuted bool, now time.Time) Decision {
	if IsPriority(msg.Content) {
		return Decision{Sound: true, Push: true, Priority: true}
	}

	sound := settings.SoundMessage
	if msg.Type == TypeSystem {
		sound = settings.SoundSystem
	}
	push := settings.BrowserPush

	switch settings.Mode {
	case ModeDND:
		return Decision{}
	case ModeMentions:
		if !mentionsUser(msg.Mentions, userID) {
			return Decision{}
		}
	}

	if roomMuted || settings.MutedRooms[msg.RoomID] {
		return Decision{}
	}
	if settings.QuietEnabled && InQuietHours(settings.QuietStart, settings.QuietEnd, now.Hour()) {
		return Decision{}
	}

	return Decision{Sound: sound, Push: push}
}

func mentionsUser(mentions []string, userID uuid.UUID) bool {
	id := userID.String()
	for _, m := range mentions {
		if m == MentionAll || m == id {
			return true
		}
	}
	return false
}
