package auth

import (
	"github.com/jmoiron/sqlx"

	"filevault/internal/modules/auth/application"
	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/auth/infrastructure/jwt"
	"filevault/internal/modules/auth/infrastructure/persistence/postgres"
	auth_http "filevault/internal/modules/auth/interfaces/http"
)

// Module represents the Auth module
type Module struct {
	service    *application.AuthService
	repository *postgres.PgUserRepository
	handler    *auth_http.AuthHandler
}

// NewModule creates and initializes the Auth module
func NewModule(db *sqlx.DB, tokens *jwt.Provider) *Module {
	repository := postgres.NewUserRepository(db)
	service := application.NewAuthService(repository, tokens)
	handler := auth_http.NewAuthHandler(service)

	return &Module{
		service:    service,
		repository: repository,
		handler:    handler,
	}
}

// Service returns the auth service for use by the gateway layer
func (m *Module) Service() *application.AuthService {
	return m.service
}

// UserRepository returns the user repository for use by other modules
func (m *Module) UserRepository() domain.UserRepository {
	return m.repository
}

// HTTPHandler returns the HTTP handler for the auth module
func (m *Module) HTTPHandler() *auth_http.AuthHandler {
	return m.handler
}
