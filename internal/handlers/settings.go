package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/chat"
	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/handlers/dto"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/internal/websocket"
)

type SettingsHandler struct {
	db       *database.Database
	hub      *websocket.Hub
	sessions *SessionManager
}

func NewSettingsHandler(db *database.Database, hub *websocket.Hub, sessions *SessionManager) *SettingsHandler {
	return &SettingsHandler{db: db, hub: hub, sessions: sessions}
}

// GetSettings returns the caller's notification settings, creating the
// default row on first access.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	settings, err := h.db.LoadSettings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settingsResponse(settings))
}

// UpdateSettings replaces the caller's notification settings and tells
// every open connection of that user to pick up the change.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	muted := make(map[uuid.UUID]bool, len(req.MutedRooms))
	for _, raw := range req.MutedRooms {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid muted room id"})
			return
		}
		muted[id] = true
	}

	settings := chat.Settings{
		Mode:         req.Mode,
		SoundMessage: req.SoundMessage,
		SoundSystem:  req.SoundSystem,
		BrowserPush:  req.BrowserPush,
		QuietEnabled: req.QuietEnabled,
		QuietStart:   req.QuietStart,
		QuietEnd:     req.QuietEnd,
		MutedRooms:   muted,
	}

	if err := h.db.SaveSettings(c.Request.Context(), userID, settings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	// Live sessions keep making notification decisions between the save
	// and the next reconnect, so hand them the new value directly.
	if h.sessions != nil {
		h.sessions.RefreshSettings(userID, settings)
	}

	response := settingsResponse(settings)
	if data, err := json.Marshal(response); err == nil {
		frame, err := json.Marshal(websocket.Event{
			Type:      websocket.TypeSettingsChanged,
			UserID:    userID,
			Data:      data,
			Timestamp: time.Now(),
		})
		if err == nil {
			h.hub.SendToUser(userID, frame)
		}
	}

	c.JSON(http.StatusOK, response)
}

func settingsResponse(s chat.Settings) gin.H {
	muted := make([]string, 0, len(s.MutedRooms))
	for id, isMuted := range s.MutedRooms {
		if isMuted {
			muted = append(muted, id.String())
		}
	}
	return gin.H{
		"mode":          s.Mode,
		"sound_message": s.SoundMessage,
		"sound_system":  s.SoundSystem,
		"browser_push":  s.BrowserPush,
		"quiet_enabled": s.QuietEnabled,
		"quiet_start":   s.QuietStart,
		"quiet_end":     s.QuietEnd,
		"muted_rooms":   muted,
	}
}
