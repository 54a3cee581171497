package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/ripplechat/ripple/internal/config"
	"github.com/ripplechat/ripple/internal/database"
	postgresrepo "github.com/ripplechat/ripple/internal/repository/postgres"
	"github.com/ripplechat/ripple/internal/service"
	"github.com/ripplechat/ripple/internal/transport/http/handlers"
	"github.com/ripplechat/ripple/internal/transport/http/middleware"
	"github.com/ripplechat/ripple/internal/transport/ws"
	"github.com/ripplechat/ripple/internal/upload"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	if err := database.Migrate(context.Background(), pool); err != nil {
		log.Fatal(err)
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	chatRepo := postgresrepo.NewChatRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	friendRequestRepo := postgresrepo.NewFriendRequestRepo(pool)
	notificationRepo := postgresrepo.NewNotificationRepo(pool)

	// Real-time hub; it doubles as the presence source for delivery.
	hub := ws.NewHub()
	notifier := ws.NewHubNotifier(hub)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	userService := service.NewUserService(userRepo)
	chatService := service.NewChatService(chatRepo, userRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	notificationService.SetNotifier(notifier)
	deliveryService := service.NewDeliveryService(chatRepo, hub, notifier, notificationService)
	uploader := upload.NewDiskUploader(cfg.UploadDir, cfg.UploadBase)
	messageService := service.NewMessageService(messageRepo, chatRepo, uploader, deliveryService, notificationService)
	messageService.SetNotifier(notifier)
	friendService := service.NewFriendService(friendRequestRepo, userRepo, notificationService)

	hub.Bind(messageService, chatService)
	go hub.Run()

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageService)
	friendHandler := handlers.NewFriendHandler(friendService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := ws.NewHandler(hub, authService)

	// Auth middleware
	auth := middleware.Auth(authService)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// WebSocket (authenticates during the handshake)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Uploaded attachments
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Protected - Users
	mux.Handle("GET /api/v1/users/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /api/v1/users", auth(http.HandlerFunc(userHandler.Browse)))

	// Protected - Chats
	mux.Handle("POST /api/v1/chats", auth(http.HandlerFunc(chatHandler.CreateOneOnOne)))
	mux.Handle("POST /api/v1/chats/group", auth(http.HandlerFunc(chatHandler.CreateGroup)))
	mux.Handle("GET /api/v1/chats", auth(http.HandlerFunc(chatHandler.List)))
	mux.Handle("POST /api/v1/chats/{id}/active", auth(http.HandlerFunc(chatHandler.MarkActive)))
	mux.Handle("POST /api/v1/chats/{id}/members", auth(http.HandlerFunc(chatHandler.AddMember)))
	mux.Handle("DELETE /api/v1/chats/{id}/members/{uid}", auth(http.HandlerFunc(chatHandler.RemoveMember)))

	// Protected - Messages
	mux.Handle("POST /api/v1/chats/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("GET /api/v1/chats/{id}/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("DELETE /api/v1/chats/{id}/messages", auth(http.HandlerFunc(messageHandler.Delete)))
	mux.Handle("DELETE /api/v1/chats/{id}/history", auth(http.HandlerFunc(messageHandler.ClearChat)))

	// Protected - Friends
	mux.Handle("POST /api/v1/friends/requests", auth(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("GET /api/v1/friends/requests", auth(http.HandlerFunc(friendHandler.ListIncoming)))
	mux.Handle("POST /api/v1/friends/requests/{id}/accept", auth(http.HandlerFunc(friendHandler.Accept)))
	mux.Handle("POST /api/v1/friends/requests/{id}/reject", auth(http.HandlerFunc(friendHandler.Reject)))
	mux.Handle("GET /api/v1/friends", auth(http.HandlerFunc(friendHandler.ListFriends)))

	// Protected - Notifications
	mux.Handle("GET /api/v1/notifications", auth(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/v1/notifications/{id}/read", auth(http.HandlerFunc(notificationHandler.MarkRead)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
