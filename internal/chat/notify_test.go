package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInQuietHours(t *testing.T) {
	tests := []struct {
		name  string
		start int
		end   int
		hour  int
		want  bool
	}{
		{"wrap late evening", 22, 7, 23, true},
		{"wrap early morning", 22, 7, 3, true},
		{"wrap midday outside", 22, 7, 12, false},
		{"wrap boundary start", 22, 7, 22, true},
		{"wrap boundary end", 22, 7, 7, false},
		{"plain inside", 9, 17, 12, true},
		{"plain before", 9, 17, 8, false},
		{"plain at end", 9, 17, 17, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InQuietHours(tt.start, tt.end, tt.hour); got != tt.want {
				t.Errorf("InQuietHours(%d, %d, %d) = %v, want %v", tt.start, tt.end, tt.hour, got, tt.want)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	userID := uuid.New()
	roomID := uuid.New()
	sender := uuid.New()

	base := Message{
		ID:       uuid.New(),
		RoomID:   roomID,
		SenderID: sender,
		Type:     TypeText,
		Content:  "standup in 5",
	}
	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	night := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)

	quietOn := DefaultSettings()
	quietOn.QuietEnabled = true

	dnd := DefaultSettings()
	dnd.Mode = ModeDND

	mentionsOnly := DefaultSettings()
	mentionsOnly.Mode = ModeMentions

	mutedHere := DefaultSettings()
	mutedHere.MutedRooms[roomID] = true

	pushOn := DefaultSettings()
	pushOn.BrowserPush = true

	noSystemSound := DefaultSettings()
	noSystemSound.SoundSystem = false

	withMention := base
	withMention.Mentions = []string{userID.String()}

	mentionAll := base
	mentionAll.Mentions = []string{MentionAll}

	priority := base
	priority.Content = "!! prod is down"

	system := base
	system.Type = TypeSystem

	tests := []struct {
		name      string
		msg       Message
		settings  Settings
		roomMuted bool
		now       time.Time
		want      Decision
	}{
		{"default sounds", base, DefaultSettings(), false, noon, Decision{Sound: true}},
		{"push enabled", base, pushOn, false, noon, Decision{Sound: true, Push: true}},
		{"dnd silences", base, dnd, false, noon, Decision{}},
		{"dnd mention still silenced", withMention, dnd, false, noon, Decision{}},
		{"mentions mode without mention", base, mentionsOnly, false, noon, Decision{}},
		{"mentions mode with mention", withMention, mentionsOnly, false, noon, Decision{Sound: true}},
		{"mentions mode with @all", mentionAll, mentionsOnly, false, noon, Decision{Sound: true}},
		{"muted room silences", base, mutedHere, false, noon, Decision{}},
		{"muted by caller flag", base, DefaultSettings(), true, noon, Decision{}},
		{"quiet hours silence", base, quietOn, false, night, Decision{}},
		{"quiet hours midday pass", base, quietOn, false, noon, Decision{Sound: true}},
		{"priority beats dnd", priority, dnd, false, noon, Decision{Sound: true, Push: true, Priority: true}},
		{"priority beats quiet hours", priority, quietOn, false, night, Decision{Sound: true, Push: true, Priority: true}},
		{"priority beats mute", priority, mutedHere, true, noon, Decision{Sound: true, Push: true, Priority: true}},
		{"system sound disabled", system, noSystemSound, false, noon, Decision{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.msg, userID, tt.settings, tt.roomMuted, tt.now)
			if got != tt.want {
				t.Errorf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsPriority(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"!! urgent", true},
		{"  !! leading spaces", true},
		{"!!no space after marker", true},
		{"hello !!", false},
		{"!single bang", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPriority(tt.content); got != tt.want {
			t.Errorf("IsPriority(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
