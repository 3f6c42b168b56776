package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"filevault/internal/gateway"
	"filevault/internal/gateway/middleware"
	"filevault/internal/modules/auth"
	"filevault/internal/modules/auth/infrastructure/cache"
	"filevault/internal/modules/auth/infrastructure/jwt"
	"filevault/internal/modules/files"
	s3store "filevault/internal/modules/files/infrastructure/s3"
	files_http "filevault/internal/modules/files/interfaces/http"
	"filevault/internal/modules/user"
	"filevault/internal/shared/infrastructure/config"
	"filevault/internal/shared/infrastructure/database"
	"filevault/internal/shared/infrastructure/queue"
	"filevault/pkg/migration"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	log.Println("Connecting to DB...")
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.Close()
	log.Println("Database Connected Successfully!")

	if err := migration.AutoMigrate(cfg.Database.URL(), cfg.Server.MigrationsPath, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	blobs, err := s3store.NewS3BlobStore(context.Background(), s3store.S3Config{
		BucketName:     cfg.Files.S3Bucket,
		Region:         cfg.Files.S3Region,
		Endpoint:       cfg.Files.S3Endpoint,
		PublicEndpoint: cfg.Files.S3PublicEndpoint,
		AccessKey:      cfg.Files.S3AccessKey,
		SecretKey:      cfg.Files.S3SecretKey,
		UseSSL:         cfg.Files.S3UseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	tokens := jwt.NewProvider(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshSecret, cfg.JWT.RefreshExpiry)

	authModule := auth.NewModule(db, tokens)

	filesModule, err := files.NewModule(db, blobs, files.Config{
		NameEncryptionKey: cfg.Files.NameEncryptionKey,
		MaxUploadBytes:    cfg.Files.MaxUploadBytes,
		UploadURLTTL:      cfg.Files.UploadURLTTL,
		DownloadURLTTL:    cfg.Files.DownloadURLTTL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize files module: %v", err)
	}

	storageEvents := queue.New(redisClient, queue.StorageEventsQueue, cfg.Queue.MaxAttempts)
	userEvents := queue.New(redisClient, queue.UserEventsQueue, cfg.Queue.MaxAttempts)
	userCache := cache.NewRedisUserCache(redisClient, 0)
	userModule := user.NewModule(authModule.UserRepository(), userCache, userEvents)

	authMiddleware := middleware.NewAuthMiddleware(authModule.Service())

	webhookHandler := files_http.NewWebhookHandler(storageEvents, cfg.Files.WebhookToken)

	mux := gateway.SetupRoutes(gateway.RouterConfig{
		AuthHandler:    authModule.HTTPHandler(),
		AuthMiddleware: authMiddleware,
		FileHandler:    filesModule.HTTPHandler(),
		WebhookHandler: webhookHandler,
		UserHandler:    userModule.HTTPHandler(),
	})

	var handler http.Handler = mux
	handler = middleware.PrometheusMiddleware(handler)
	handler = middleware.CORS(handler, cfg.Server.AllowedOrigins)

	server := gateway.NewServer(cfg.Server.Port, handler)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
