package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/models"
)

func (d *Database) SaveUser(user *models.User) error {
	if err := d.db.Create(user).Error; err != nil {
		return err
	}
	return nil
}

func (d *Database) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

func (d *Database) GetUser(id string) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(email string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) UpdateLastSeen(id string) error {
	return d.db.Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}

// ListTenantUsers returns the tenant's users, optionally filtered by a
// username prefix.
func (d *Database) ListTenantUsers(tenantID uuid.UUID, query string, limit int) ([]models.User, error) {
	var users []models.User
	q := d.db.Where("tenant_id = ?", tenantID)
	if query != "" {
		q = q.Where("username ILIKE ?", query+"%")
	}
	if err := q.Order("username ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
