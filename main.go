package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docstack/docstack/handlers"
	"github.com/docstack/docstack/internal/blacklist"
	"github.com/docstack/docstack/internal/config"
	"github.com/docstack/docstack/internal/database"
	"github.com/docstack/docstack/internal/documents"
	"github.com/docstack/docstack/internal/health"
	"github.com/docstack/docstack/internal/storage"
	"github.com/docstack/docstack/internal/users"
	"github.com/docstack/docstack/pkg/logger"
	"github.com/docstack/docstack/pkg/metrics"
	"github.com/docstack/docstack/pkg/middleware"
)

// mongoPinger adapts *mongo.Client to the health.Pinger interface.
type mongoPinger struct {
	client  *mongo.Client
	timeout time.Duration
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return database.Ping(ctx, p.client, p.timeout)
}

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v storage=%s", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Backend)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = cfg.Upload.MaxFileSize

	// Lightweight CORS middleware: allow the configured frontend origin and
	// answer OPTIONS preflights directly.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Server.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and the token blacklist can
	// use it when configured. Both degrade gracefully without it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			redisClient = rc
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	revoked := blacklist.New(redisClient)

	// Connect to MongoDB with retry/backoff to tolerate startup races. The
	// document registry cannot run without it.
	const maxAttempts = 5
	backoff := time.Second
	var client *mongo.Client
	var errConn error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if errConn == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if errConn != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	logger.Infof("Connected to MongoDB: %s", cfg.MongoDB.Database)
	db := client.Database(cfg.MongoDB.Database)

	// file storage backend
	var store storage.Storage
	switch cfg.Storage.Backend {
	case "minio":
		store, err = storage.NewMinIO(storage.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			logger.Fatalf("failed to initialize MinIO storage: %v", err)
		}
		logger.Infof("Using MinIO storage: %s/%s", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
	default:
		store, err = storage.NewLocal(cfg.Upload.Dir)
		if err != nil {
			logger.Fatalf("failed to initialize local storage: %v", err)
		}
		logger.Infof("Using local storage: %s", cfg.Upload.Dir)
	}

	userSvc := users.NewService(users.NewMongoRepository(db.Collection("users")), cfg.Auth.BcryptCost)
	docSvc := documents.NewService(documents.NewMongoRepository(db.Collection("documents")), store, cfg.Upload.MaxFileSize, cfg.Upload.MaxFiles)
	monitor := health.NewMonitor(mongoPinger{client: client, timeout: cfg.MongoDB.Timeout}, cfg.Server.Environment)

	auth := middleware.RequireAuth(cfg.JWT.Secret, userSvc, revoked)

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			api.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.MaxRequests, win))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handlers.NewAuthHandler(cfg, userSvc, revoked).Register(api, auth)
	handlers.NewUsersHandler(userSvc).Register(api)
	handlers.NewDocumentsHandler(docSvc).Register(api, auth)
	handlers.NewAnalyticsHandler(docSvc, userSvc).Register(api, auth)
	handlers.NewHealthHandler(monitor).Register(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting docstack service on %s (env=%s)", addr, cfg.Server.Environment)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
