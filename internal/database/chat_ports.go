package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vantran/workchat/internal/chat"
	"github.com/vantran/workchat/internal/models"
)

// This file adapts the gorm repositories to the ports the chat engines
// consume, converting stored models into the wire/view shapes.

// MessageView converts a stored message into its wire shape. Soft-deleted
// messages keep their row but expose no content.
func MessageView(m *models.Message) chat.Message {
	view := chat.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Type:       m.Type,
		Content:    m.Content,
		FileURL:    m.FileURL,
		FileName:   m.FileName,
		FileSize:   m.FileSize,
		Mentions:   []string(m.Mentions),
		ReplyTo:    m.ReplyTo,
		IsPinned:   m.IsPinned,
		IsEdited:   m.IsEdited,
		IsDeleted:  m.IsDeleted,
		CreatedAt:  m.CreatedAt,
	}
	if m.IsDeleted {
		view.Content = ""
		view.FileURL = ""
	}
	for _, a := range m.Attachments {
		view.Attachments = append(view.Attachments, chat.Attachment{
			Kind:  a.Kind,
			RefID: a.RefID,
			Label: a.Label,
		})
	}
	return view
}

func MemberView(m *models.Member) chat.Member {
	return chat.Member{
		RoomID:      m.RoomID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Role:        m.Role,
		IsActive:    m.IsActive,
		LastReadAt:  m.LastReadAt,
	}
}

func ReactionView(r *models.Reaction) chat.Reaction {
	return chat.Reaction{
		MessageID: r.MessageID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Emoji:     r.Emoji,
	}
}

// FetchPage implements chat.PageFetcher.
func (d *Database) FetchPage(_ context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]chat.Message, error) {
	messages, err := d.GetRoomMessages(roomID, limit, before)
	if err != nil {
		return nil, err
	}
	views := make([]chat.Message, len(messages))
	for i := range messages {
		views[i] = MessageView(&messages[i])
	}
	return views, nil
}

// FetchPinned implements chat.PinnedFetcher.
func (d *Database) FetchPinned(_ context.Context, roomID uuid.UUID) ([]chat.Message, error) {
	messages, err := d.GetPinnedMessages(roomID)
	if err != nil {
		return nil, err
	}
	views := make([]chat.Message, len(messages))
	for i := range messages {
		views[i] = MessageView(&messages[i])
	}
	return views, nil
}

// FetchReactions implements chat.ReactionFetcher.
func (d *Database) FetchReactions(_ context.Context, messageID uuid.UUID) ([]chat.Reaction, error) {
	reactions, err := d.GetMessageReactions(messageID)
	if err != nil {
		return nil, err
	}
	views := make([]chat.Reaction, len(reactions))
	for i := range reactions {
		views[i] = ReactionView(&reactions[i])
	}
	return views, nil
}

// InsertReaction implements chat.ReactionWriter.
func (d *Database) InsertReaction(_ context.Context, r chat.Reaction) error {
	return d.SaveReaction(&models.Reaction{
		MessageID: r.MessageID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Emoji:     r.Emoji,
	})
}

// DeleteReaction implements chat.ReactionWriter's delete side.
func (d *Database) DeleteReaction(_ context.Context, messageID, userID uuid.UUID, emoji string) error {
	return d.RemoveReaction(messageID, userID, emoji)
}

// MarkRead implements chat.ReadMarker.
func (d *Database) MarkRead(_ context.Context, roomID, userID uuid.UUID, at time.Time) error {
	_, err := d.SetLastRead(roomID, userID, at)
	return err
}

// LoadSettings implements chat.SettingsPersistence.
func (d *Database) LoadSettings(_ context.Context, userID uuid.UUID) (chat.Settings, error) {
	row, err := d.GetSettings(userID)
	if err != nil {
		return chat.Settings{}, err
	}
	return SettingsView(row), nil
}

// SaveSettings implements chat.SettingsPersistence.
func (d *Database) SaveSettings(_ context.Context, userID uuid.UUID, s chat.Settings) error {
	muted := make(models.JSONStrings, 0, len(s.MutedRooms))
	for id, isMuted := range s.MutedRooms {
		if isMuted {
			muted = append(muted, id.String())
		}
	}
	return d.SaveSettingsRow(&models.NotificationSettings{
		UserID:       userID,
		Mode:         s.Mode,
		SoundMessage: s.SoundMessage,
		SoundSystem:  s.SoundSystem,
		BrowserPush:  s.BrowserPush,
		QuietEnabled: s.QuietEnabled,
		QuietStart:   s.QuietStart,
		QuietEnd:     s.QuietEnd,
		MutedRooms:   muted,
	})
}

// SettingsView converts the stored row into the engine's value type.
func SettingsView(row *models.NotificationSettings) chat.Settings {
	muted := make(map[uuid.UUID]bool, len(row.MutedRooms))
	for _, raw := range row.MutedRooms {
		if id, err := uuid.Parse(raw); err == nil {
			muted[id] = true
		}
	}
	return chat.Settings{
		Mode:         row.Mode,
		SoundMessage: row.SoundMessage,
		SoundSystem:  row.SoundSystem,
		BrowserPush:  row.BrowserPush,
		QuietEnabled: row.QuietEnabled,
		QuietStart:   row.QuietStart,
		QuietEnd:     row.QuietEnd,
		MutedRooms:   muted,
	}
}
