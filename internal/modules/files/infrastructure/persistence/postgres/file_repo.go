package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"filevault/internal/modules/files/domain"
)

type PgFileRepository struct {
	db *sqlx.DB
}

// NewFileRepository creates a PostgreSQL-backed file repository implementing
// domain.FileRepository.
func NewFileRepository(db *sqlx.DB) *PgFileRepository {
	return &PgFileRepository{db: db}
}

// Create inserts a new provisional record. Status defaults to PENDING when
// unset.
func (r *PgFileRepository) Create(ctx context.Context, file *domain.FileRecord) error {
	if file.Status == "" {
		file.Status = domain.StatusPending
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}
	if file.UpdatedAt.IsZero() {
		file.UpdatedAt = time.Now()
	}

	query := `INSERT INTO file_uploads
	          (id, owner_id, original_name, encrypted_name, storage_key, size_bytes, mime_type, status, created_at, updated_at)
	          VALUES (:id, :owner_id, :original_name, :encrypted_name, :storage_key, :size_bytes, :mime_type, :status, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, file)
	return err
}

// GetByID implements domain.FileRepository
func (r *PgFileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FileRecord, error) {
	file := &domain.FileRecord{}
	query := `SELECT * FROM file_uploads WHERE id = $1`

	err := r.db.GetContext(ctx, file, query, id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetByStorageKey implements domain.FileRepository
func (r *PgFileRepository) GetByStorageKey(ctx context.Context, key string) (*domain.FileRecord, error) {
	file := &domain.FileRecord{}
	query := `SELECT * FROM file_uploads WHERE storage_key = $1`

	err := r.db.GetContext(ctx, file, query, key)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// MarkActiveByStorageKey promotes a PENDING record to ACTIVE and records the
// storage-confirmed size. The status guard makes redelivered notifications
// and notifications for deleted records no-ops; it reports whether a row
// actually transitioned.
func (r *PgFileRepository) MarkActiveByStorageKey(ctx context.Context, key string, sizeBytes int64) (bool, error) {
	query := `UPDATE file_uploads
	          SET status = $1, size_bytes = $2, updated_at = $3
	          WHERE storage_key = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query, domain.StatusActive, sizeBytes, time.Now(), key, domain.StatusPending)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// SoftDelete stamps the record deleted unless it already is. Reports whether
// a row transitioned.
func (r *PgFileRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	query := `UPDATE file_uploads
	          SET status = $1, soft_deleted_at = $2, updated_at = $3
	          WHERE id = $4 AND status != $5`

	result, err := r.db.ExecContext(ctx, query, domain.StatusSoftDeleted, now, now, id, domain.StatusSoftDeleted)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// SoftDeleteByOwner bulk-deletes every record still visible for the owner
// and returns how many rows transitioned.
func (r *PgFileRepository) SoftDeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	now := time.Now()
	query := `UPDATE file_uploads
	          SET status = $1, soft_deleted_at = $2, updated_at = $3
	          WHERE owner_id = $4 AND status != $5`

	result, err := r.db.ExecContext(ctx, query, domain.StatusSoftDeleted, now, now, ownerID, domain.StatusSoftDeleted)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type fileRow struct {
	domain.FileRecord
	Total int64 `db:"total"`
}

// List returns one page of records matching the filter plus the
// pre-pagination total, newest first with insertion order breaking ties.
func (r *PgFileRepository) List(ctx context.Context, filter domain.FileFilter) ([]*domain.FileRecord, int64, error) {
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", argIndex))
			args = append(args, status)
			argIndex++
		}
		whereClauses = append(whereClauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.OwnerID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, *filter.OwnerID)
		argIndex++
	}
	if filter.Query != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("original_name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Query+"%")
		argIndex++
	}
	if filter.From != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
	}

	where := ""
	if len(whereClauses) > 0 {
		where = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT *, COUNT(*) OVER() AS total
	                      FROM file_uploads %s
	                      ORDER BY created_at DESC, seq ASC
	                      LIMIT $%d OFFSET $%d`, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows := []fileRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	files := make([]*domain.FileRecord, 0, len(rows))
	var total int64
	for i := range rows {
		record := rows[i].FileRecord
		files = append(files, &record)
		total = rows[i].Total
	}
	return files, total, nil
}
