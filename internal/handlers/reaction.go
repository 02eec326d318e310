package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/chat"
	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/handlers/dto"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/internal/models"
)

type ReactionHandler struct {
	db   *database.Database
	feed feed.Feed
}

func NewReactionHandler(db *database.Database, f feed.Feed) *ReactionHandler {
	return &ReactionHandler{db: db, feed: f}
}

// ToggleReaction adds the caller's reaction, or removes it if already
// present. Repeating the call restores the previous state.
func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req dto.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.db.GetMessage(messageID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.IsDeleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot react to a deleted message"})
		return
	}
	if ok, _ := h.db.IsActiveMember(msg.RoomID, userID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	present, err := h.db.HasReaction(messageID, userID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle reaction"})
		return
	}

	op := feed.OpInsert
	if present {
		op = feed.OpDelete
		err = h.db.RemoveReaction(messageID, userID, req.Emoji)
	} else {
		err = h.db.SaveReaction(&models.Reaction{
			MessageID: messageID,
			UserID:    userID,
			UserName:  user.Username,
			Emoji:     req.Emoji,
		})
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle reaction"})
		return
	}

	reaction := chat.Reaction{
		MessageID: messageID,
		UserID:    userID,
		UserName:  user.Username,
		Emoji:     req.Emoji,
	}

	// Member sessions pick the change up from the feed and refetch the
	// message's reaction groups.
	if ev, err := feed.Encode(feed.TableReactions, op, msg.RoomID, reaction); err != nil {
		log.Printf("reaction: encode feed event: %v", err)
	} else if err := h.feed.Publish(c.Request.Context(), ev); err != nil {
		log.Printf("reaction: publish feed event: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"reacted":   !present,
		"reactions": h.groupReactions(messageID),
	})
}

// GetReactions returns the per-emoji groups for one message.
func (h *ReactionHandler) GetReactions(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.db.GetMessage(messageID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if ok, _ := h.db.IsActiveMember(msg.RoomID, userID); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": h.groupReactions(messageID)})
}

func (h *ReactionHandler) groupReactions(messageID uuid.UUID) []chat.EmojiGroup {
	reactions, err := h.db.FetchReactions(context.Background(), messageID)
	if err != nil {
		log.Printf("reaction: fetch reactions: %v", err)
		return nil
	}
	agg := chat.NewReactionAggregator(nil)
	agg.SetReactions(messageID, reactions)
	return agg.GroupByEmoji(messageID)
}
