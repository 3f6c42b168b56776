package user

import (
	"filevault/internal/modules/auth/domain"
	"filevault/internal/modules/user/application"
	user_http "filevault/internal/modules/user/interfaces/http"
)

// Module represents the User module
type Module struct {
	service *application.UserService
	handler *user_http.UserHandler
}

// NewModule creates and initializes the User module
func NewModule(repo domain.UserRepository, cache domain.UserCache, userEvents application.Enqueuer) *Module {
	service := application.NewUserService(repo, cache, userEvents)
	handler := user_http.NewUserHandler(service)

	return &Module{
		service: service,
		handler: handler,
	}
}

// Service returns the user service
func (m *Module) Service() *application.UserService {
	return m.service
}

// HTTPHandler returns the HTTP handler for the user module
func (m *Module) HTTPHandler() *user_http.UserHandler {
	return m.handler
}
