package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/chat"
	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/handlers/dto"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/internal/models"
)

// messageStore is the slice of the database the message handler reads
// and writes through.
type messageStore interface {
	SaveMessage(message *models.Message) error
	GetMessage(id string) (*models.Message, error)
	UpdateMessage(message *models.Message) error
	SoftDeleteMessage(id string) error
	SetMessagePinned(id string, pinned bool) error
	GetRoomMessages(roomID uuid.UUID, limit int, before *time.Time) ([]models.Message, error)
	GetPinnedMessages(roomID uuid.UUID) ([]models.Message, error)
	SearchMessages(tenantID uuid.UUID, roomID *uuid.UUID, query string, limit int) ([]models.Message, error)
	TouchRoomPreview(msg *models.Message) error
	GetMember(roomID, userID uuid.UUID) (*models.Member, error)
	GetActiveMembers(roomID uuid.UUID) ([]models.Member, error)
	IsActiveMember(roomID, userID uuid.UUID) (bool, error)
	GetUser(id string) (*models.User, error)
}

type MessageHandler struct {
	db   messageStore
	feed feed.Feed
}

func NewMessageHandler(db messageStore, f feed.Feed) *MessageHandler {
	return &MessageHandler{db: db, feed: f}
}

// GetRoomMessages returns one history page, oldest first. A full page
// means there may be more; clients pass the oldest created_at back as
// `before` to fetch the next one.
func (h *MessageHandler) GetRoomMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if ok, _ := h.db.IsActiveMember(roomID, userID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	limit := chat.PageSizeFull
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp"})
			return
		}
		before = &t
	}

	rows, err := h.db.GetRoomMessages(roomID, limit, before)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	// Rows come newest first; the page is served oldest first.
	messages := make([]chat.Message, len(rows))
	for i := range rows {
		messages[len(rows)-1-i] = database.MessageView(&rows[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"has_more": len(rows) == limit,
	})
}

// SendMessage persists a message, updates the room preview and publishes
// the insert on the change feed; member sessions take delivery and
// notification decisions from there.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Content == "" && req.FileURL == "" && len(req.Attachments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		return
	}

	if ok, _ := h.db.IsActiveMember(roomID, userID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	members, err := h.db.GetActiveMembers(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}
	memberViews := make([]chat.Member, len(members))
	for i := range members {
		memberViews[i] = database.MemberView(&members[i])
	}

	msg := &models.Message{
		RoomID:     roomID,
		SenderID:   userID,
		SenderName: user.Username,
		Content:    req.Content,
		Type:       req.Type,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		Mentions:   models.JSONStrings(chat.ExtractMentions(req.Content, memberViews)),
		CreatedAt:  time.Now(),
	}
	if msg.Type == "" {
		msg.Type = models.MessageTypeText
	}
	// The client's optimistic id is stored verbatim so the feed echo
	// dedups against the local copy instead of duplicating it.
	if req.ClientID != "" {
		msg.ID = uuid.MustParse(req.ClientID)
	}
	if req.ReplyTo != "" {
		replyTo := uuid.MustParse(req.ReplyTo)
		if _, err := h.db.GetMessage(replyTo.String()); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply target not found"})
			return
		}
		msg.ReplyTo = &replyTo
	}
	for _, a := range req.Attachments {
		msg.Attachments = append(msg.Attachments, models.Attachment{
			Kind:  a.Kind,
			RefID: a.RefID,
			Label: a.Label,
		})
	}

	if err := h.db.SaveMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}
	if err := h.db.TouchRoomPreview(msg); err != nil {
		log.Printf("message: touch room preview: %v", err)
	}

	view := database.MessageView(msg)
	h.propagate(c.Request.Context(), feed.OpInsert, view)

	c.JSON(http.StatusCreated, view)
}

// EditMessage replaces the content of the author's own message.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	var req dto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.db.GetMessage(messageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own messages"})
		return
	}
	if msg.IsDeleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is deleted"})
		return
	}

	now := time.Now()
	msg.Content = req.Content
	msg.IsEdited = true
	msg.EditedAt = &now

	members, err := h.db.GetActiveMembers(msg.RoomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}
	memberViews := make([]chat.Member, len(members))
	for i := range members {
		memberViews[i] = database.MemberView(&members[i])
	}
	msg.Mentions = models.JSONStrings(chat.ExtractMentions(req.Content, memberViews))

	if err := h.db.UpdateMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update message"})
		return
	}

	view := database.MessageView(msg)
	h.propagate(c.Request.Context(), feed.OpUpdate, view)

	c.JSON(http.StatusOK, view)
}

// DeleteMessage soft-deletes: the row stays as a tombstone so replies
// and pagination keep their anchors.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	msg, err := h.db.GetMessage(messageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID {
		member, err := h.db.GetMember(msg.RoomID, userID)
		if err != nil || member.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own messages"})
			return
		}
	}

	if err := h.db.SoftDeleteMessage(messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	msg.IsDeleted = true
	view := database.MessageView(msg)
	h.propagate(c.Request.Context(), feed.OpUpdate, view)

	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}

// PinMessage pins a message for the whole room.
func (h *MessageHandler) PinMessage(c *gin.Context) {
	h.setPinned(c, true)
}

// UnpinMessage removes a pin.
func (h *MessageHandler) UnpinMessage(c *gin.Context) {
	h.setPinned(c, false)
}

func (h *MessageHandler) setPinned(c *gin.Context, pinned bool) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	messageID := c.Param("id")

	msg, err := h.db.GetMessage(messageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if ok, _ := h.db.IsActiveMember(msg.RoomID, userID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}
	if msg.IsDeleted && pinned {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot pin a deleted message"})
		return
	}

	if err := h.db.SetMessagePinned(messageID, pinned); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update pin"})
		return
	}

	msg.IsPinned = pinned
	view := database.MessageView(msg)
	h.propagate(c.Request.Context(), feed.OpUpdate, view)

	c.JSON(http.StatusOK, view)
}

// GetPinnedMessages returns the pinned index, newest pin first.
func (h *MessageHandler) GetPinnedMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	if ok, _ := h.db.IsActiveMember(roomID, userID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	rows, err := h.db.GetPinnedMessages(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pinned messages"})
		return
	}

	pinned := make([]chat.Message, len(rows))
	for i := range rows {
		pinned[i] = database.MessageView(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"pinned": pinned})
}

// SearchMessages searches message text within the caller's tenant,
// optionally scoped to one room.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	tenantID := c.MustGet(middleware.TenantIDKey).(uuid.UUID)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search query is required"})
		return
	}

	var roomID *uuid.UUID
	if raw := c.Query("room_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}
		roomID = &id
	}

	rows, err := h.db.SearchMessages(tenantID, roomID, query, chat.PageSizeFull)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	results := make([]chat.Message, len(rows))
	for i := range rows {
		results[i] = database.MessageView(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// propagate pushes a message change onto the change feed. Every member's
// session controller picks it up from there, including the ones on other
// nodes, and runs delivery and notification decisions.
func (h *MessageHandler) propagate(ctx context.Context, op string, view chat.Message) {
	ev, err := feed.Encode(feed.TableMessages, op, view.RoomID, view)
	if err != nil {
		log.Printf("message: encode feed event: %v", err)
	} else if err := h.feed.Publish(ctx, ev); err != nil {
		log.Printf("message: publish feed event: %v", err)
	}
}
