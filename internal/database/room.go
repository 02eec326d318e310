package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/vantran/workchat/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateRoom(room *models.Room) error {
	return d.db.Create(room).Error
}

func (d *Database) GetRoom(id string) (*models.Room, error) {
	var room models.Room
	if err := d.db.Preload("Members").First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (d *Database) UpdateRoom(room *models.Room) error {
	return d.db.Save(room).Error
}

// GetUserRooms returns every room where the user has an active membership.
func (d *Database) GetUserRooms(userID uuid.UUID) ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.
		Joins("JOIN members ON members.room_id = rooms.id").
		Where("members.user_id = ? AND members.is_active = true", userID).
		Preload("Members").
		Order("rooms.last_message_at DESC NULLS LAST").
		Find(&rooms).Error
	return rooms, err
}

// AddMember creates or reactivates a membership. A previously deactivated
// row is flipped back rather than duplicated, keeping history attached.
func (d *Database) AddMember(roomID, userID uuid.UUID, displayName, avatarURL, role string) error {
	var existing models.Member
	err := d.db.First(&existing, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err == nil {
		existing.IsActive = true
		existing.DisplayName = displayName
		return d.db.Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	member := models.Member{
		RoomID:      roomID,
		UserID:      userID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Role:        role,
		IsActive:    true,
		JoinedAt:    time.Now(),
	}
	return d.db.Create(&member).Error
}

// DeactivateMember marks a membership inactive. Rows are never deleted so
// old messages keep their author context.
func (d *Database) DeactivateMember(roomID, userID uuid.UUID) error {
	return d.db.Model(&models.Member{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_active", false).Error
}

// GetOrCreateDirectRoom finds the direct room between two users or makes
// one with exactly those two active members.
func (d *Database) GetOrCreateDirectRoom(tenantID, user1ID, user2ID uuid.UUID) (*models.Room, error) {
	var room models.Room

	err := d.db.
		Joins("JOIN members m1 ON m1.room_id = rooms.id").
		Joins("JOIN members m2 ON m2.room_id = rooms.id").
		Where("rooms.type = 'direct' AND rooms.tenant_id = ? AND m1.user_id = ? AND m2.user_id = ?",
			tenantID, user1ID, user2ID).
		First(&room).Error

	if err == nil {
		return d.GetRoom(room.ID.String())
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	room = models.Room{
		TenantID:  tenantID,
		Type:      models.RoomTypeDirect,
		CreatedBy: user1ID,
		CreatedAt: time.Now(),
	}
	if err := d.db.Create(&room).Error; err != nil {
		return nil, err
	}

	for _, userID := range []uuid.UUID{user1ID, user2ID} {
		user, err := d.GetUser(userID.String())
		if err != nil {
			return nil, err
		}
		if err := d.AddMember(room.ID, userID, user.Username, user.AvatarURL, models.RoleMember); err != nil {
			return nil, err
		}
	}

	return d.GetRoom(room.ID.String())
}
