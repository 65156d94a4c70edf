package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reel-feed/pkg/config"
	"reel-feed/pkg/docstore"
	"reel-feed/pkg/jwt"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/middleware"
	"reel-feed/pkg/queue"
	"reel-feed/pkg/s3"
	feedHTTP "reel-feed/services/feed/internal/controller/http"
	"reel-feed/services/feed/internal/repo/persistent"
	"reel-feed/services/feed/internal/repo/session"
	"reel-feed/services/feed/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "reel-feed/services/feed/docs" // Swagger docs
)

const janitorInterval = time.Minute

// Infra holds the connections opened by main. Only Store is required.
type Infra struct {
	Store docstore.Store
	DB    *gorm.DB
	Redis *redis.Client
	Queue *queue.Client
	S3    *s3.Client
}

// NewEngine assembles the feed engine over the available backends.
func NewEngine(cfg *config.Config, log *logger.Logger, infra Infra) *usecase.Engine {
	var profiles persistent.ProfileRepository
	if cfg.ProfileBackend == config.ProfileBackendPostgres && infra.DB != nil {
		profiles = persistent.NewPostgresProfileRepository(infra.DB)
	} else {
		profiles = persistent.NewStoreProfileRepository(infra.Store)
	}

	var sessions usecase.SessionRepository
	if infra.Redis != nil {
		sessions = session.NewRedisStore(infra.Redis, cfg.SessionTTL)
	} else {
		log.Warn("Redis unavailable, feed order is kept in process memory")
		sessions = session.NewMemoryStore()
	}

	deps := usecase.Dependencies{
		Reels:         persistent.NewReelRepository(infra.Store),
		Wishlist:      persistent.NewWishlistRepository(infra.Store),
		Comments:      persistent.NewCommentRepository(infra.Store),
		Profiles:      profiles,
		SessionStore:  sessions,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        log,
	}
	if infra.Queue != nil {
		deps.Events = infra.Queue
	}
	if infra.S3 != nil {
		deps.Media = infra.S3
	}

	return usecase.NewEngine(deps)
}

// NewRouter registers the feed API on a gin engine.
func NewRouter(cfg *config.Config, log *logger.Logger, feedHandler *feedHTTP.FeedHandler, redisClient *redis.Client) *gin.Engine {
	jwtService := jwt.NewService(cfg.JWTSecret)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 200, time.Minute)) // 200 requests per minute

	sessions := api.Group("/sessions")
	{
		sessions.POST("", feedHandler.OpenSession)
		sessions.DELETE("/:session_id", feedHandler.CloseSession)
		sessions.GET("/:session_id/feed", feedHandler.GetFeed)

		sessions.POST("/:session_id/reels/:reel_id/like", feedHandler.ToggleLike)
		sessions.POST("/:session_id/reels/:reel_id/wishlist", feedHandler.ToggleWishlist)
		sessions.POST("/:session_id/reels/:reel_id/share", feedHandler.ShareReel)
		sessions.POST("/:session_id/reels/:reel_id/comments/open", feedHandler.OpenComments)
		sessions.POST("/:session_id/reels/:reel_id/comments", feedHandler.AddComment)

		sessions.GET("/:session_id/comments", feedHandler.GetComments)
		sessions.DELETE("/:session_id/comments", feedHandler.CloseComments)
		sessions.GET("/:session_id/comments/stream", feedHandler.StreamComments)

		sessions.POST("/:session_id/playback/scroll", feedHandler.Scroll)
		sessions.POST("/:session_id/playback/tap", feedHandler.Tap)
		sessions.POST("/:session_id/playback/double-tap", feedHandler.DoubleTap)
		sessions.POST("/:session_id/gestures", feedHandler.Gesture)
	}

	return r
}

func Run(cfg *config.Config, log *logger.Logger, infra Infra) {
	engine := NewEngine(cfg, log, infra)
	feedHandler := feedHTTP.NewFeedHandler(engine, log)
	r := NewRouter(cfg, log, feedHandler, infra.Redis)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go engine.RunJanitor(janitorCtx, janitorInterval, cfg.SessionTTL)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Feed service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down feed service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	stopJanitor()
	engine.Shutdown()

	if err := infra.Store.Close(); err != nil {
		log.Error("Error closing document store: %v", err)
	}

	if infra.DB != nil {
		sqlDB, err := infra.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("Error closing database: %v", err)
			}
		}
	}

	if infra.Redis != nil {
		if err := infra.Redis.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	if infra.Queue != nil {
		if err := infra.Queue.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	log.Info("Feed service exited")
	_ = log.Sync()
}
