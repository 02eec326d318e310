package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/vantran/workchat/internal/models"
)

func (d *Database) GetMember(roomID, userID uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := d.db.First(&member, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetActiveMembers lists the room's active members.
func (d *Database) GetActiveMembers(roomID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := d.db.
		Where("room_id = ? AND is_active = true", roomID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// SetLastRead advances the member's last-read timestamp.
func (d *Database) SetLastRead(roomID, userID uuid.UUID, at time.Time) (*models.Member, error) {
	err := d.db.Model(&models.Member{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_read_at", at).Error
	if err != nil {
		return nil, err
	}
	return d.GetMember(roomID, userID)
}

// IsActiveMember reports whether the user currently belongs to the room.
func (d *Database) IsActiveMember(roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.Member{}).
		Where("room_id = ? AND user_id = ? AND is_active = true", roomID, userID).
		Count(&count).Error
	return count > 0, err
}
