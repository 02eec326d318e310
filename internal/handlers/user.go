package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/internal/websocket"
)

type UserHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewUserHandler(db *database.Database, hub *websocket.Hub) *UserHandler {
	return &UserHandler{db: db, hub: hub}
}

// GetMe returns the caller's profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"tenant_id":    user.TenantID,
		"username":     user.Username,
		"email":        user.Email,
		"avatar_url":   user.AvatarURL,
		"last_seen_at": user.LastSeenAt,
	})
}

// ListUsers returns the tenant's directory, for starting direct rooms
// and building group rooms. Optional `q` filters by username prefix.
func (h *UserHandler) ListUsers(c *gin.Context) {
	tenantID := c.MustGet(middleware.TenantIDKey).(uuid.UUID)

	users, err := h.db.ListTenantUsers(tenantID, c.Query("q"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	response := make([]gin.H, len(users))
	for i, user := range users {
		response[i] = gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"avatar_url": user.AvatarURL,
			"is_online":  h.hub.IsUserOnline(user.ID),
		}
	}

	c.JSON(http.StatusOK, gin.H{"users": response})
}
