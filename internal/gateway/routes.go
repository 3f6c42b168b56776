package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filevault/internal/gateway/middleware"
	auth_http "filevault/internal/modules/auth/interfaces/http"
	files_http "filevault/internal/modules/files/interfaces/http"
	user_http "filevault/internal/modules/user/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthHandler    *auth_http.AuthHandler
	AuthMiddleware *middleware.AuthMiddleWare
	FileHandler    *files_http.FileHandler
	WebhookHandler *files_http.WebhookHandler
	UserHandler    *user_http.UserHandler
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	// Health Check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Auth Routes
	mux.HandleFunc("POST /auth/signup", config.AuthHandler.SignUp)
	mux.HandleFunc("POST /auth/signin", config.AuthHandler.SignIn)
	mux.HandleFunc("POST /auth/refresh", config.AuthHandler.Refresh)
	mux.Handle("POST /auth/logout", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.AuthHandler.Logout)))
	mux.Handle("GET /auth/me", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.AuthHandler.Me)))

	// File Routes
	mux.Handle("POST /files/presigned-url", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.FileHandler.CreatePresignedURLs)))
	mux.Handle("GET /files", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.FileHandler.List)))
	mux.Handle("GET /files/all", config.AuthMiddleware.RequireAdmin(http.HandlerFunc(config.FileHandler.ListAll)))
	mux.Handle("GET /files/{id}", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.FileHandler.Get)))
	mux.Handle("GET /files/{id}/download", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.FileHandler.Download)))
	mux.Handle("DELETE /files/{id}", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.FileHandler.Delete)))

	// Storage Webhook (token-guarded, not user-authenticated)
	mux.HandleFunc("POST /webhooks/storage", config.WebhookHandler.StorageNotification)

	// User Routes
	mux.Handle("GET /users/profile", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.UserHandler.GetProfile)))
	mux.Handle("PATCH /users/profile", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.UserHandler.UpdateProfile)))
	mux.Handle("DELETE /users/profile", config.AuthMiddleware.RequireAuth(http.HandlerFunc(config.UserHandler.DeleteAccount)))

	return mux
}
