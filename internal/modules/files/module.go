package files

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"filevault/internal/modules/files/application"
	"filevault/internal/modules/files/domain"
	"filevault/internal/modules/files/infrastructure/persistence/postgres"
	files_http "filevault/internal/modules/files/interfaces/http"
)

// Module represents the Files module
type Module struct {
	service    *application.FileService
	repository *postgres.PgFileRepository
	handler    *files_http.FileHandler
}

// Config carries the upload policy knobs for the module.
type Config struct {
	NameEncryptionKey string
	MaxUploadBytes    int64
	UploadURLTTL      time.Duration
	DownloadURLTTL    time.Duration
}

// NewModule creates and initializes the Files module
func NewModule(db *sqlx.DB, blobs domain.BlobStore, cfg Config) (*Module, error) {
	repository := postgres.NewFileRepository(db)
	service, err := application.NewFileService(repository, blobs, cfg.NameEncryptionKey,
		cfg.MaxUploadBytes, cfg.UploadURLTTL, cfg.DownloadURLTTL)
	if err != nil {
		return nil, err
	}
	handler := files_http.NewFileHandler(service)

	return &Module{
		service:    service,
		repository: repository,
		handler:    handler,
	}, nil
}

// Service returns the file service
func (m *Module) Service() *application.FileService {
	return m.service
}

// Repository returns the file repository for the worker processors
func (m *Module) Repository() domain.FileRepository {
	return m.repository
}

// HTTPHandler returns the HTTP handler for the files module
func (m *Module) HTTPHandler() *files_http.FileHandler {
	return m.handler
}

// NewProcessors builds the queue processors backed by the module's
// repository.
func NewProcessors(db *sqlx.DB, logger *slog.Logger) (*application.StorageEventProcessor, *application.UserDeletionProcessor) {
	repository := postgres.NewFileRepository(db)
	return application.NewStorageEventProcessor(repository, logger),
		application.NewUserDeletionProcessor(repository, logger)
}
