package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"filevault/internal/gateway/middleware"
	"filevault/internal/modules/files/application"
	"filevault/internal/modules/files/domain"
	"filevault/internal/shared/utils"
)

// FileService defines the interface for file operations
type FileService interface {
	IssueUploadGrants(ctx context.Context, actor application.Actor, requests []application.UploadRequest) ([]application.UploadGrantResult, error)
	List(ctx context.Context, actor application.Actor, params application.ListParams) (*application.ListResult, error)
	GetMetadata(ctx context.Context, actor application.Actor, fileID uuid.UUID) (*domain.FileRecord, error)
	GenerateDownloadGrant(ctx context.Context, actor application.Actor, fileID uuid.UUID) (*application.DownloadGrant, error)
	SoftDelete(ctx context.Context, actor application.Actor, fileID uuid.UUID) error
}

type FileHandler struct {
	service FileService
}

func NewFileHandler(service FileService) *FileHandler {
	return &FileHandler{service: service}
}

// CreatePresignedURLs handles POST /files/presigned-url.
func (h *FileHandler) CreatePresignedURLs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	var req PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	requests := make([]application.UploadRequest, 0, len(req.Files))
	for _, f := range req.Files {
		requests = append(requests, application.UploadRequest{
			FileName:     f.FileName,
			ContentType:  f.ContentType,
			DeclaredSize: f.DeclaredSize,
		})
	}

	grants, err := h.service.IssueUploadGrants(r.Context(), actor, requests)
	if err != nil {
		writeFileError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, grants)
}

// List handles GET /files (own files only).
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// ListAll handles GET /files/all. The admin route guard runs before this.
func (h *FileHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *FileHandler) list(w http.ResponseWriter, r *http.Request, all bool) {
	actor, ok := actorFromContext(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return
	}

	query := r.URL.Query()
	params := application.ListParams{
		All:   all,
		Query: query.Get("q"),
		From:  parseTime(query.Get("from")),
		To:    parseTime(query.Get("to")),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		params.Limit = limit
	}

	result, err := h.service.List(r.Context(), actor, params)
	if err != nil {
		writeFileError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, toListResponse(result.Items, result.Total, result.Page, result.Limit))
}

// Get handles GET /files/{id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := h.actorAndFileID(w, r)
	if !ok {
		return
	}

	record, err := h.service.GetMetadata(r.Context(), actor, fileID)
	if err != nil {
		writeFileError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, toFileResponse(record))
}

// Download handles GET /files/{id}/download.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := h.actorAndFileID(w, r)
	if !ok {
		return
	}

	grant, err := h.service.GenerateDownloadGrant(r.Context(), actor, fileID)
	if err != nil {
		writeFileError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, grant)
}

// Delete handles DELETE /files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, fileID, ok := h.actorAndFileID(w, r)
	if !ok {
		return
	}

	if err := h.service.SoftDelete(r.Context(), actor, fileID); err != nil {
		writeFileError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "File deleted."})
}

func (h *FileHandler) actorAndFileID(w http.ResponseWriter, r *http.Request) (application.Actor, uuid.UUID, bool) {
	actor, ok := actorFromContext(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("not authenticated"))
		return application.Actor{}, uuid.Nil, false
	}

	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "FILE_NOT_FOUND", domain.ErrFileNotFound)
		return application.Actor{}, uuid.Nil, false
	}
	return actor, fileID, true
}

func actorFromContext(r *http.Request) (application.Actor, bool) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	if !ok {
		return application.Actor{}, false
	}
	role, _ := r.Context().Value(middleware.ContextKeyRole).(string)
	return application.Actor{ID: userID, Role: role}, true
}

// parseTime accepts RFC3339 or bare dates; anything else is ignored.
func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func writeFileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoFiles):
		utils.WriteError(w, http.StatusBadRequest, "NO_FILES", err)
	case errors.Is(err, domain.ErrUnsupportedFileType):
		utils.WriteError(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", err)
	case errors.Is(err, domain.ErrUploadTooLarge):
		utils.WriteError(w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", err)
	case errors.Is(err, domain.ErrFileNotFound):
		utils.WriteError(w, http.StatusNotFound, "FILE_NOT_FOUND", err)
	case errors.Is(err, domain.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, "FORBIDDEN_RESOURCE", err)
	default:
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", errors.New("internal error"))
	}
}
