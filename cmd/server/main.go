package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"icebreaker-backend/internal/config"
	"icebreaker-backend/internal/database"
	"icebreaker-backend/internal/handlers"
	"icebreaker-backend/internal/middleware"
	"icebreaker-backend/internal/services"
	"icebreaker-backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const cleanupInterval = time.Hour

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)
	database.SeedBalanceQuestions(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	roomService := services.NewRoomService(db)
	chatService := services.NewChatService(db)
	questionService := services.NewQuestionService(db)
	statsService := services.NewStatsService(db)
	gameService := services.NewGameService(db, hub, questionService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameService.StartCleanup(ctx, cleanupInterval)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	wsHandler := handlers.NewWSHandler(hub, chatService, questionService)
	router.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handlers.NewAuthHandler(authService)
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	api := router.Group("/api")
	api.Use(middleware.JWTAuth(authService))
	api.GET("/auth/me", authHandler.Me)

	roomHandler := handlers.NewRoomHandler(roomService, hub)
	rooms := api.Group("/rooms")
	{
		rooms.POST("/create", roomHandler.CreateRoom)
		rooms.POST("/join", roomHandler.JoinRoom)
		rooms.GET("/my", roomHandler.MyRooms)
		rooms.GET("/:id", roomHandler.GetRoom)
		rooms.DELETE("/:id", roomHandler.DeleteRoom)
		rooms.POST("/:id/leave", roomHandler.LeaveRoom)
	}

	chatHandler := handlers.NewChatHandler(chatService, roomService)
	chat := api.Group("/chat")
	{
		chat.POST("/send", chatHandler.Send)
		chat.GET("/history/:id", chatHandler.History)
		chat.GET("/recent/:id", chatHandler.RecentCount)
	}

	questionHandler := handlers.NewQuestionHandler(questionService, roomService, hub)
	questions := api.Group("/questions")
	{
		questions.GET("", questionHandler.List)
		questions.GET("/random", questionHandler.Random)
		questions.POST("/:id/answer", questionHandler.SubmitAnswer)
	}

	statsHandler := handlers.NewStatsHandler(statsService, roomService)
	api.GET("/stats/room/:id", statsHandler.GetRoomStats)

	gameHandler := handlers.NewGameHandler(gameService, roomService)
	games := api.Group("/games")
	{
		games.POST("/create", gameHandler.Create)
		games.POST("/join/:sessionId", gameHandler.Join)
		games.GET("/session/:sessionId", gameHandler.Get)
		games.POST("/start/:sessionId", gameHandler.Start)
		games.POST("/answer/:sessionId", gameHandler.Answer)
		games.POST("/next/:sessionId", gameHandler.Next)
		games.DELETE("/:sessionId", gameHandler.Delete)
		games.GET("/active/:roomId", gameHandler.ActiveForRoom)
		games.POST("/cleanup", gameHandler.Cleanup)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
