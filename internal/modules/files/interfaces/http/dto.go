package http

import (
	"strconv"
	"time"

	"filevault/internal/modules/files/domain"
)

// PresignRequest is the body of POST /files/presigned-url.
type PresignRequest struct {
	Files []FileEntry `json:"files"`
}

// FileEntry describes one file the client intends to upload.
type FileEntry struct {
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	DeclaredSize int64  `json:"declaredSize"`
}

// FileResponse is the public shape of a file record. SizeBytes is serialized
// as a string so javascript clients never lose precision on large values.
type FileResponse struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	OriginalName  string     `json:"originalName"`
	SizeBytes     string     `json:"sizeBytes"`
	MimeType      string     `json:"mimeType"`
	Status        string     `json:"status"`
	SoftDeletedAt *time.Time `json:"softDeletedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ListResponse is one page of files plus the pre-pagination total.
type ListResponse struct {
	Items []FileResponse `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func toFileResponse(record *domain.FileRecord) FileResponse {
	return FileResponse{
		ID:            record.ID.String(),
		OwnerID:       record.OwnerID.String(),
		OriginalName:  record.OriginalName,
		SizeBytes:     strconv.FormatInt(record.SizeBytes, 10),
		MimeType:      record.MimeType,
		Status:        string(record.Status),
		SoftDeletedAt: record.SoftDeletedAt,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func toListResponse(items []*domain.FileRecord, total int64, page, limit int) ListResponse {
	out := make([]FileResponse, 0, len(items))
	for _, record := range items {
		out = append(out, toFileResponse(record))
	}
	return ListResponse{Items: out, Total: total, Page: page, Limit: limit}
}
