package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/vantran/workchat/internal/models"
)

// PinnedIndexLimit caps the pinned-message index per room.
const PinnedIndexLimit = 5

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) UpdateMessage(message *models.Message) error {
	return d.db.Save(message).Error
}

// SoftDeleteMessage hides the content but keeps the row, so history and
// reply chains stay intact.
func (d *Database) SoftDeleteMessage(id string) error {
	return d.db.Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "content": ""}).Error
}

func (d *Database) SetMessagePinned(id string, pinned bool) error {
	return d.db.Model(&models.Message{}).
		Where("id = ?", id).
		Update("is_pinned", pinned).Error
}

// GetRoomMessages fetches up to limit messages strictly older than before
// (the newest page when before is nil), descending by created_at. Callers
// reverse for display; a full page means there may be more.
func (d *Database) GetRoomMessages(roomID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.Where("room_id = ?", roomID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// GetPinnedMessages returns the room's pinned index: at most five, newest
// first.
func (d *Database) GetPinnedMessages(roomID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.
		Where("room_id = ? AND is_pinned = true AND is_deleted = false", roomID).
		Order("created_at DESC").
		Limit(PinnedIndexLimit).
		Find(&messages).Error
	return messages, err
}

// SearchMessages finds messages matching the query text, optionally
// scoped to one room, newest first.
func (d *Database) SearchMessages(tenantID uuid.UUID, roomID *uuid.UUID, query string, limit int) ([]models.Message, error) {
	var messages []models.Message

	q := d.db.
		Joins("JOIN rooms ON rooms.id = messages.room_id").
		Where("rooms.tenant_id = ?", tenantID).
		Where("messages.is_deleted = false").
		Where("messages.content ILIKE ?", "%"+query+"%")
	if roomID != nil {
		q = q.Where("messages.room_id = ?", *roomID)
	}

	err := q.
		Order("messages.created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// CountUnread counts foreign messages newer than lastReadAt in a room.
func (d *Database) CountUnread(roomID, userID uuid.UUID, lastReadAt time.Time) (int64, error) {
	var count int64
	err := d.db.Model(&models.Message{}).
		Where("room_id = ? AND created_at > ? AND sender_id != ?", roomID, lastReadAt, userID).
		Count(&count).Error
	return count, err
}

// TouchRoomPreview refreshes the denormalized last-message preview.
func (d *Database) TouchRoomPreview(msg *models.Message) error {
	preview := msg.Content
	switch msg.Type {
	case models.MessageTypeImage:
		preview = "[image]"
	case models.MessageTypeFile:
		preview = "[file] " + msg.FileName
	}
	return d.db.Model(&models.Room{}).
		Where("id = ?", msg.RoomID).
		Updates(map[string]interface{}{
			"last_message_text":   preview,
			"last_message_at":     msg.CreatedAt,
			"last_message_sender": msg.SenderName,
		}).Error
}
