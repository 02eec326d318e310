package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/middleware"
)

type ReadHandler struct {
	db   *database.Database
	feed feed.Feed
}

func NewReadHandler(db *database.Database, f feed.Feed) *ReadHandler {
	return &ReadHandler{db: db, feed: f}
}

// MarkRead advances the caller's read watermark for a room to now and
// broadcasts the receipt so other members can update "seen by" lines.
func (h *ReadHandler) MarkRead(c *gin.Context) {
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

	member, err := h.db.SetLastRead(roomID, userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}

	// The feed echo fans the receipt out to every member's session.
	view := database.MemberView(member)
	if ev, err := feed.Encode(feed.TableMembers, feed.OpUpdate, roomID, view); err != nil {
		log.Printf("read: encode feed event: %v", err)
	} else if err := h.feed.Publish(c.Request.Context(), ev); err != nil {
		log.Printf("read: publish feed event: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"last_read_at": member.LastReadAt})
}

// GetUnreadCounts returns the per-room unread badge counts. Rooms never
// opened are excluded; opening a room marks it read.
func (h *ReadHandler) GetUnreadCounts(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	rooms, err := h.db.GetUserRooms(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	counts := make(map[string]int64, len(rooms))
	var total int64
	for _, room := range rooms {
		for _, member := range room.Members {
			if member.UserID != userID || member.LastReadAt == nil {
				continue
			}
			n, err := h.db.CountUnread(room.ID, userID, *member.LastReadAt)
			if err != nil {
				continue
			}
			if n > 0 {
				counts[room.ID.String()] = n
				total += n
			}
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": counts, "total": total})
}
