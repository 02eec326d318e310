package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/vantran/workchat/internal/database"
	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/handlers"
	"github.com/vantran/workchat/internal/storage"
	"github.com/vantran/workchat/internal/websocket"
	"github.com/vantran/workchat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	Feed       feed.Feed
	JWTManager *auth.JWTManager
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	// Business timezone; message date groups and quiet hours follow it.
	tz := os.Getenv("CHAT_TIMEZONE")
	if tz == "" {
		tz = "Asia/Ho_Chi_Minh"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatalf("invalid CHAT_TIMEZONE %q: %v", tz, err)
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	uploader, err := storage.NewLocalUploader(uploadDir, "/files")
	if err != nil {
		log.Fatalf("upload dir init failed: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	changeFeed := feed.NewRedisFeed(rdb)

	// Each websocket connection gets a sync controller subscribed to the
	// change feed for the user's rooms; quiet hours run on the business
	// clock.
	sessions := handlers.NewSessionManager(dbConn, changeFeed, loc)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	userH := handlers.NewUserHandler(dbConn, hub)
	roomH := handlers.NewRoomHandler(dbConn, hub)
	messageH := handlers.NewMessageHandler(dbConn, changeFeed)
	reactionH := handlers.NewReactionHandler(dbConn, changeFeed)
	readH := handlers.NewReadHandler(dbConn, changeFeed)
	settingsH := handlers.NewSettingsHandler(dbConn, hub, sessions)
	uploadH := handlers.NewUploadHandler(uploader)
	router := handlers.NewEventRouter(dbConn, changeFeed, sessions)
	wsH := handlers.NewWebSocketHandler(hub, router, sessions)

	engine := gin.Default()
	engine.Static("/files", uploadDir)
	APIEndpoints(engine, jwtMgr, rdb, authH, userH, roomH, messageH, reactionH, readH, settingsH, uploadH, wsH)

	return &Server{
		Router:     engine,
		DB:         dbConn,
		Redis:      rdb,
		Hub:        hub,
		Feed:       changeFeed,
		JWTManager: jwtMgr,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
