package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FileStatus tracks a file through its lifecycle. PENDING rows exist from
// the moment an upload URL is issued; the storage notification promotes
// them to ACTIVE. SOFT_DELETED is terminal.
type FileStatus string

const (
	StatusPending     FileStatus = "PENDING"
	StatusActive      FileStatus = "ACTIVE"
	StatusSoftDeleted FileStatus = "SOFT_DELETED"
)

// FileRecord is the metadata row for one uploaded object.
type FileRecord struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Seq           int64      `db:"seq" json:"-"`
	OwnerID       uuid.UUID  `db:"owner_id" json:"ownerId"`
	OriginalName  string     `db:"original_name" json:"originalName"`
	EncryptedName string     `db:"encrypted_name" json:"-"`
	StorageKey    string     `db:"storage_key" json:"-"`
	SizeBytes     int64      `db:"size_bytes" json:"sizeBytes"`
	MimeType      string     `db:"mime_type" json:"mimeType"`
	Status        FileStatus `db:"status" json:"status"`
	SoftDeletedAt *time.Time `db:"soft_deleted_at" json:"softDeletedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// FileFilter narrows List queries. A nil OwnerID means all owners.
type FileFilter struct {
	OwnerID  *uuid.UUID
	Query    string
	From     *time.Time
	To       *time.Time
	Page     int
	Limit    int
	Statuses []FileStatus
}

// FileRepository is the persistence boundary for file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *FileRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*FileRecord, error)
	GetByStorageKey(ctx context.Context, key string) (*FileRecord, error)
	MarkActiveByStorageKey(ctx context.Context, key string, sizeBytes int64) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
	SoftDeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	List(ctx context.Context, filter FileFilter) ([]*FileRecord, int64, error)
}
