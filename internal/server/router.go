package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/vantran/workchat/internal/handlers"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	rdb *redis.Client,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	roomH *handlers.RoomHandler,
	messageH *handlers.MessageHandler,
	reactionH *handlers.ReactionHandler,
	readH *handlers.ReadHandler,
	settingsH *handlers.SettingsHandler,
	uploadH *handlers.UploadHandler,
	wsH *handlers.WebSocketHandler,
) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/me", userH.GetMe)
		api.GET("/users", userH.ListUsers)

		api.POST("/rooms", roomH.CreateRoom)
		api.POST("/rooms/direct", roomH.CreateDirectRoom)
		api.GET("/rooms", roomH.GetMyRooms)
		api.GET("/rooms/:id", roomH.GetRoom)
		api.GET("/rooms/:id/members", roomH.GetRoomMembers)
		api.POST("/rooms/:id/join", roomH.JoinRoom)
		api.POST("/rooms/:id/leave", roomH.LeaveRoom)

		api.GET("/rooms/:id/messages", messageH.GetRoomMessages)
		api.POST("/rooms/:id/messages", messageH.SendMessage)
		api.GET("/rooms/:id/pinned", messageH.GetPinnedMessages)
		api.POST("/rooms/:id/read", readH.MarkRead)

		api.PUT("/messages/:id", messageH.EditMessage)
		api.DELETE("/messages/:id", messageH.DeleteMessage)
		api.POST("/messages/:id/pin", messageH.PinMessage)
		api.DELETE("/messages/:id/pin", messageH.UnpinMessage)
		api.POST("/messages/:id/reactions", reactionH.ToggleReaction)
		api.GET("/messages/:id/reactions", reactionH.GetReactions)

		api.GET("/search", messageH.SearchMessages)
		api.GET("/unread", readH.GetUnreadCounts)

		api.GET("/settings", settingsH.GetSettings)
		api.PUT("/settings", settingsH.UpdateSettings)

		api.POST("/upload", uploadH.UploadFile)
	}

	// WebSocket; token arrives in the query string.
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
