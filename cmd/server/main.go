package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/alicankorkmaz-sudo/Quizzi/cache"
	"github.com/alicankorkmaz-sudo/Quizzi/config"
	"github.com/alicankorkmaz-sudo/Quizzi/game"
	"github.com/alicankorkmaz-sudo/Quizzi/session"
	"github.com/alicankorkmaz-sudo/Quizzi/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	if len(allowedOrigins) == 0 {
		return r
	}

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {

	cfg := config.Load()

	// logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	if cfg.Server.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// question source: postgres when configured, bundled file otherwise
	var questions game.QuestionSource
	if cfg.DB.PostgresURL != "" {
		pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.DB.PostgresURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pgRepo.Close()
		questions = pgRepo
		slog.Info("question source: postgres")
	} else {
		memSource, err := storage.LoadQuestionFile(cfg.DB.QuestionFile)
		if err != nil {
			log.Fatal(err)
		}
		questions = memSource
		slog.Info("question source: file", "path", cfg.DB.QuestionFile)
	}

	// optional room summary mirror
	var summaryCache game.SummaryCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis unavailable, room summary mirror disabled", "error", err)
		} else {
			defer redisClient.Close()
			summaryCache = redisClient
		}
	}

	registry := session.NewRegistry()
	players := game.NewPlayerDirectory()
	directory := game.NewRoomDirectory(players, questions, registry, summaryCache, game.DefaultTimings())
	registry.SetHandler(game.NewDispatcher(directory, registry))

	r := CreateServer(cfg.Server.AllowedOrigins)
	handler := game.NewHandler(players, directory, questions, registry)
	handler.Register(r)

	slog.Info("server starting", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
