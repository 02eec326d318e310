package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/vantran/workchat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveReaction inserts a reaction row. The composite primary key makes the
// insert idempotent under duplicate delivery.
func (d *Database) SaveReaction(r *models.Reaction) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(r).Error
}

func (d *Database) RemoveReaction(messageID, userID uuid.UUID, emoji string) error {
	return d.db.
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&models.Reaction{}).Error
}

// HasReaction reports whether the (message, user, emoji) row exists.
func (d *Database) HasReaction(messageID, userID uuid.UUID, emoji string) (bool, error) {
	var r models.Reaction
	err := d.db.First(&r, "message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetMessageReactions returns a single message's reactions in insertion
// order; feed consumers re-fetch per message, never per room.
func (d *Database) GetMessageReactions(messageID uuid.UUID) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := d.db.
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}
