package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/internal/models"
	"github.com/vantran/workchat/internal/websocket"
)

type RoomHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewRoomHandler(db *database.Database, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{db: db, hub: hub}
}

// CreateRoom creates a group room. Name and members are validated before
// any write.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	tenantID := c.MustGet(middleware.TenantIDKey).(uuid.UUID)

	var req struct {
		Name      string   `json:"name" binding:"required"`
		MemberIDs []string `json:"member_ids" binding:"required,min=1,dive,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room := &models.Room{
		TenantID:  tenantID,
		Type:      models.RoomTypeGroup,
		Name:      req.Name,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := h.db.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	creator, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load creator"})
		return
	}
	if err := h.db.AddMember(room.ID, userID, creator.Username, creator.AvatarURL, models.RoleAdmin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add creator to room"})
		return
	}

	for _, memberID := range req.MemberIDs {
		if memberID == userID.String() {
			continue
		}
		member, err := h.db.GetUser(memberID)
		if err != nil {
			continue
		}
		h.db.AddMember(room.ID, member.ID, member.Username, member.AvatarURL, models.RoleMember)
	}

	fullRoom, _ := h.db.GetRoom(room.ID.String())
	c.JSON(http.StatusCreated, formatRoomResponse(fullRoom))
}

// CreateDirectRoom creates or returns the direct room with another user.
func (h *RoomHandler) CreateDirectRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	tenantID := c.MustGet(middleware.TenantIDKey).(uuid.UUID)

	var req struct {
		UserID string `json:"user_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, _ := uuid.Parse(req.UserID)
	if userID == targetUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot create direct room with yourself"})
		return
	}

	room, err := h.db.GetOrCreateDirectRoom(tenantID, userID, targetUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create direct room"})
		return
	}

	c.JSON(http.StatusOK, formatRoomResponse(room))
}

// GetMyRooms lists the user's rooms with previews and unread counts.
func (h *RoomHandler) GetMyRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	rooms, err := h.db.GetUserRooms(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	roomsResponse := make([]gin.H, len(rooms))
	for i, room := range rooms {
		roomResponse := formatRoomResponse(&room)

		// Rooms never opened carry no unread badge; first open marks read.
		unread := int64(0)
		for _, member := range room.Members {
			if member.UserID == userID && member.LastReadAt != nil {
				unread, _ = h.db.CountUnread(room.ID, userID, *member.LastReadAt)
				break
			}
		}
		roomResponse["unread_count"] = unread
		roomResponse["online_count"] = len(h.hub.GetRoomUsers(room.ID))

		roomsResponse[i] = roomResponse
	}

	c.JSON(http.StatusOK, gin.H{"rooms": roomsResponse})
}

// GetRoom returns one room the user belongs to.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if !isActiveMember(room, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	response := formatRoomResponse(room)
	response["online_users"] = h.hub.GetRoomUsers(room.ID)

	c.JSON(http.StatusOK, response)
}

// JoinRoom adds the user to a group room.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.Type == models.RoomTypeDirect {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot join direct room"})
		return
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	if err := h.db.AddMember(room.ID, userID, user.Username, user.AvatarURL, models.RoleMember); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	h.announceMembership(room.ID, userID, websocket.TypeMemberJoined, user.Username)

	c.JSON(http.StatusOK, gin.H{"message": "joined room successfully"})
}

// LeaveRoom deactivates the membership; the row stays so history keeps
// its author context.
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.Type == models.RoomTypeDirect {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot leave direct room"})
		return
	}

	if err := h.db.DeactivateMember(room.ID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	h.announceMembership(room.ID, userID, websocket.TypeMemberLeft, "")

	c.JSON(http.StatusOK, gin.H{"message": "left room successfully"})
}

// GetRoomMembers lists room members with online state.
func (h *RoomHandler) GetRoomMembers(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if !isActiveMember(room, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	members := make([]gin.H, 0, len(room.Members))
	for _, member := range room.Members {
		members = append(members, gin.H{
			"user_id":      member.UserID,
			"display_name": member.DisplayName,
			"avatar_url":   member.AvatarURL,
			"role":         member.Role,
			"is_active":    member.IsActive,
			"is_online":    h.hub.IsUserOnline(member.UserID),
			"last_read_at": member.LastReadAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// announceMembership tells every connection with the room open that its
// member list changed. Ephemeral, so it rides the hub rather than the
// change feed.
func (h *RoomHandler) announceMembership(roomID, userID uuid.UUID, t websocket.EventType, username string) {
	data, err := json.Marshal(gin.H{"user_id": userID, "username": username})
	if err != nil {
		return
	}
	h.hub.BroadcastEvent(roomID, websocket.Event{
		Type:   t,
		UserID: userID,
		Data:   data,
	})
}

func isActiveMember(room *models.Room, userID uuid.UUID) bool {
	for _, member := range room.Members {
		if member.UserID == userID && member.IsActive {
			return true
		}
	}
	return false
}

func formatRoomResponse(room *models.Room) gin.H {
	members := make([]gin.H, 0, len(room.Members))
	for _, member := range room.Members {
		if !member.IsActive {
			continue
		}
		members = append(members, gin.H{
			"user_id":      member.UserID,
			"display_name": member.DisplayName,
			"avatar_url":   member.AvatarURL,
			"role":         member.Role,
		})
	}

	return gin.H{
		"id":         room.ID,
		"tenant_id":  room.TenantID,
		"name":       room.Name,
		"type":       room.Type,
		"created_by": room.CreatedBy,
		"created_at": room.CreatedAt,
		"members":    members,
		"last_message": gin.H{
			"text":   room.LastMessageText,
			"at":     room.LastMessageAt,
			"sender": room.LastMessageSender,
		},
	}
}
