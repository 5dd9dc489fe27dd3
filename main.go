package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"connect-service/internal/aggregator"
	"connect-service/internal/db"
	"connect-service/internal/handlers"
	"connect-service/internal/identity"
	"connect-service/internal/middleware"
	"connect-service/internal/observability"
	"connect-service/internal/rabbitmq"
	"connect-service/internal/realtime"
	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
	"connect-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	shutdownTracing := observability.InitTracing(ctx, "connect-service", getEnv("OTLP_ENDPOINT", ""))
	defer shutdownTracing(ctx)

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	identityProvider := identity.NewClient(getEnv("IDENTITY_URL", "http://localhost:9999"))

	memberRepo := repositories.NewMemberRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	connectionRepo := repositories.NewConnectionRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)

	bridge := realtime.NewBridge()
	listener, err := realtime.NewListener(db.DSN(), bridge)
	if err != nil {
		log.Fatalf("failed to open realtime listener: %v", err)
	}
	go listener.Run(ctx)

	auditPublisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "connect.events"))
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s reason=%q", rabbitmq.PublisherMode(auditPublisher), rabbitmq.PublisherNoopReason(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.connect", "connect-service", getEnv("ENVIRONMENT", "dev"))

	if eventsPublisher, err := observability.NewAMQPPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "connect.events")); err == nil {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	} else {
		log.Printf("ws event publisher disabled: %v", err)
	}

	hub := ws.NewHub()
	pageSize := getEnvInt("NOTIFICATION_PAGE_SIZE", aggregator.DefaultPageSize)
	sessions := aggregator.NewService(chatRepo, messageRepo, connectionRepo, notificationRepo, bridge, hub, pageSize)

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo)
	connectionHandler := handlers.NewConnectionHandler(connectionRepo, notificationRepo, memberRepo, hub, audit)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, pageSize, audit)
	badgeHandler := handlers.NewBadgeHandler(sessions, memberRepo)
	badgeWS := ws.NewBadgeWebSocketHandler(hub, sessions, identityProvider, memberRepo)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("connect-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(identityProvider, memberRepo)

	router.GET("/me", authMiddleware, badgeHandler.GetMe)
	router.GET("/me/badges", authMiddleware, badgeHandler.GetBadges)

	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/start", authMiddleware, chatHandler.StartChat)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.PostChatMessage)
	router.POST("/chats/:chat_id/read", authMiddleware, chatHandler.MarkChatRead)

	router.POST("/connections", authMiddleware, connectionHandler.CreateConnection)
	router.GET("/connections/pending", authMiddleware, connectionHandler.ListPendingConnections)
	router.POST("/connections/:connection_id/decision", authMiddleware, connectionHandler.DecideConnection)

	router.GET("/notifications", authMiddleware, notificationHandler.ListNotifications)
	router.POST("/notifications/:notification_id/read", authMiddleware, notificationHandler.MarkNotificationRead)
	router.POST("/notifications/read-all", authMiddleware, notificationHandler.MarkAllNotificationsRead)

	router.GET("/ws/badges", badgeWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
