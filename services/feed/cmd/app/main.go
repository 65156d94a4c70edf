package main

import (
	"context"

	"reel-feed/pkg/cache"
	"reel-feed/pkg/config"
	"reel-feed/pkg/database"
	"reel-feed/pkg/docstore"
	"reel-feed/pkg/logger"
	"reel-feed/pkg/queue"
	"reel-feed/pkg/s3"
	feedApp "reel-feed/services/feed/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title           Reel Feed API
// @version         1.0
// @description     Vertical reel feed with likes, wishlists, live comments and playback control
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := context.Background()

	var infra feedApp.Infra
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		log.Warn("Using the in-memory document store; data is lost on exit")
		infra.Store = docstore.NewMemoryStore()
		if cfg.SeedDemo {
			if err := feedApp.SeedDemo(ctx, infra.Store, cfg.S3BucketName, log); err != nil {
				log.Error("Failed to seed demo data: %v", err)
				panic(err)
			}
		}
	default:
		store, err := docstore.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.FirebaseCredentialsFile, log)
		if err != nil {
			log.Error("Failed to connect to Firestore: %v", err)
			panic(err)
		}
		infra.Store = store
	}

	if cfg.ProfileBackend == config.ProfileBackendPostgres {
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Error("Failed to connect to database: %v", err)
			panic(err)
		}
		infra.DB = db
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v (continuing without rate limiting)", err)
	} else {
		infra.Redis = redisClient
	}

	// Connect to RabbitMQ for publishing seller notifications
	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
	} else {
		infra.Queue = queueClient
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v (media locators are served as stored)", err)
	} else {
		infra.S3 = s3Client
	}

	feedApp.Run(cfg, log, infra)
}
