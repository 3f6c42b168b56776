package application

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"filevault/internal/modules/files/domain"
)

// Actor identifies the authenticated caller for authorization decisions.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool { return a.Role == "ADMIN" }

// UploadRequest describes one file in a batch upload grant request.
type UploadRequest struct {
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	DeclaredSize int64  `json:"declaredSize"`
}

// UploadGrantResult pairs a provisional file id with its presigned POST.
type UploadGrantResult struct {
	FileID uuid.UUID         `json:"fileId"`
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// DownloadGrant is a short-lived presigned GET URL.
type DownloadGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ListResult carries one page of records plus the pre-pagination total.
type ListResult struct {
	Items []*domain.FileRecord
	Total int64
	Page  int
	Limit int
}

// ListParams are the caller-supplied listing filters, pre-normalization.
type ListParams struct {
	All   bool
	Query string
	From  *time.Time
	To    *time.Time
	Page  int
	Limit int
}

var allowedContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
}

const (
	defaultPageLimit  = 20
	adminAllPageLimit = 50
	maxPageLimit      = 100
)

// FileService coordinates the upload lifecycle: grant issuance, listing,
// downloads and soft deletion.
type FileService struct {
	repo           domain.FileRepository
	blobs          domain.BlobStore
	nameCipher     cipher.AEAD
	maxUploadBytes int64
	uploadTTL      time.Duration
	downloadTTL    time.Duration
}

// NewFileService builds the service. encryptionKey must be the base64
// encoding of a 32-byte key; anything else is a startup error.
func NewFileService(repo domain.FileRepository, blobs domain.BlobStore, encryptionKey string, maxUploadBytes int64, uploadTTL, downloadTTL time.Duration) (*FileService, error) {
	key, err := base64.StdEncoding.DecodeString(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode file name encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("file name encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FileService{
		repo:           repo,
		blobs:          blobs,
		nameCipher:     aead,
		maxUploadBytes: maxUploadBytes,
		uploadTTL:      uploadTTL,
		downloadTTL:    downloadTTL,
	}, nil
}

// IssueUploadGrants validates the whole batch before touching storage or the
// database, then issues one presigned POST per entry. Rows already committed
// when a later entry fails are left in place; their uploads simply never
// complete.
func (s *FileService) IssueUploadGrants(ctx context.Context, actor Actor, requests []UploadRequest) ([]UploadGrantResult, error) {
	if len(requests) == 0 {
		return nil, domain.ErrNoFiles
	}
	for _, req := range requests {
		if !allowedContentTypes[req.ContentType] {
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedFileType, req.FileName, req.ContentType)
		}
		if req.DeclaredSize > s.maxUploadBytes {
			return nil, fmt.Errorf("%w: %s", domain.ErrUploadTooLarge, req.FileName)
		}
	}

	results := make([]UploadGrantResult, 0, len(requests))
	for _, req := range requests {
		fileID := uuid.New()
		storageKey := fmt.Sprintf("%s/%s/%s", actor.ID, fileID, cleanName(req.FileName))

		encName, err := s.encryptName(req.FileName)
		if err != nil {
			return nil, err
		}

		record := &domain.FileRecord{
			ID:            fileID,
			OwnerID:       actor.ID,
			OriginalName:  req.FileName,
			EncryptedName: encName,
			StorageKey:    storageKey,
			SizeBytes:     req.DeclaredSize,
			MimeType:      req.ContentType,
			Status:        domain.StatusPending,
		}
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, err
		}

		grant, err := s.blobs.PresignUpload(ctx, storageKey, req.ContentType, s.maxUploadBytes, s.uploadTTL)
		if err != nil {
			return nil, err
		}
		results = append(results, UploadGrantResult{FileID: fileID, URL: grant.URL, Fields: grant.Fields})
	}
	return results, nil
}

// List returns active files. Members see only their own; All requires the
// ADMIN role.
func (s *FileService) List(ctx context.Context, actor Actor, params ListParams) (*ListResult, error) {
	if params.All && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	filter := domain.FileFilter{
		Query:    params.Query,
		From:     params.From,
		To:       params.To,
		Statuses: []domain.FileStatus{domain.StatusActive},
	}
	if !params.All {
		ownerID := actor.ID
		filter.OwnerID = &ownerID
	}

	filter.Page = params.Page
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.Limit = params.Limit
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
		if params.All {
			filter.Limit = adminAllPageLimit
		}
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// GetMetadata returns a single visible record. Absent rows, soft-deleted
// rows and rows owned by someone else all look identical to non-admins.
func (s *FileService) GetMetadata(ctx context.Context, actor Actor, fileID uuid.UUID) (*domain.FileRecord, error) {
	return s.getVisible(ctx, actor, fileID)
}

// GenerateDownloadGrant mints a short-lived presigned GET for the file.
func (s *FileService) GenerateDownloadGrant(ctx context.Context, actor Actor, fileID uuid.UUID) (*DownloadGrant, error) {
	record, err := s.getVisible(ctx, actor, fileID)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.PresignDownload(ctx, record.StorageKey, record.OriginalName, s.downloadTTL)
	if err != nil {
		return nil, err
	}
	return &DownloadGrant{URL: url, ExpiresAt: time.Now().Add(s.downloadTTL)}, nil
}

// SoftDelete marks the file deleted. The transition is one-way; a repeated
// delete is indistinguishable from an absent file.
func (s *FileService) SoftDelete(ctx context.Context, actor Actor, fileID uuid.UUID) error {
	record, err := s.getVisible(ctx, actor, fileID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.SoftDelete(ctx, record.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrFileNotFound
	}
	return nil
}

func (s *FileService) getVisible(ctx context.Context, actor Actor, fileID uuid.UUID) (*domain.FileRecord, error) {
	record, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if record.Status == domain.StatusSoftDeleted {
		return nil, domain.ErrFileNotFound
	}
	if record.OwnerID != actor.ID && !actor.IsAdmin() {
		log.Printf("file %s access denied for user %s", fileID, actor.ID)
		return nil, domain.ErrFileNotFound
	}
	return record, nil
}

func (s *FileService) encryptName(name string) (string, error) {
	nonce := make([]byte, s.nameCipher.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := s.nameCipher.Seal(nonce, nonce, []byte(name), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// cleanName strips any path components and replaces characters unsafe in
// object keys.
func cleanName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		cleaned = "file"
	}
	return cleaned
}
