package database

import (
	"github.com/google/uuid"
	"github.com/vantran/workchat/internal/models"
	"gorm.io/gorm"
)

// GetSettings loads a user's notification settings, creating the default
// row on first access.
func (d *Database) GetSettings(userID uuid.UUID) (*models.NotificationSettings, error) {
	var s models.NotificationSettings
	err := d.db.First(&s, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		s = models.NotificationSettings{
			UserID:       userID,
			Mode:         "all",
			SoundMessage: true,
			SoundSystem:  true,
			BrowserPush:  false,
			QuietEnabled: false,
			QuietStart:   22,
			QuietEnd:     7,
			MutedRooms:   models.JSONStrings{},
		}
		if err := d.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *Database) SaveSettingsRow(s *models.NotificationSettings) error {
	return d.db.Save(s).Error
}
