package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"filevault/internal/modules/files/domain"
)

// StorageEvent mirrors the S3 notification shape delivered by the object
// store when an upload completes.
type StorageEvent struct {
	Records []StorageEventRecord `json:"Records"`
}

type StorageEventRecord struct {
	S3 struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size"`
		} `json:"object"`
	} `json:"s3"`
}

// StorageEventProcessor reconciles completed uploads: PENDING records become
// ACTIVE with the storage-confirmed size. Duplicate deliveries and
// notifications for already-deleted records are no-ops; the status-guarded
// update makes redelivery safe without locks.
type StorageEventProcessor struct {
	repo   domain.FileRepository
	logger *slog.Logger
}

func NewStorageEventProcessor(repo domain.FileRepository, logger *slog.Logger) *StorageEventProcessor {
	return &StorageEventProcessor{repo: repo, logger: logger}
}

// Handle processes one storage notification job.
func (p *StorageEventProcessor) Handle(ctx context.Context, payload []byte) error {
	var event StorageEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode storage event: %w", err)
	}

	for _, record := range event.Records {
		key, err := decodeObjectKey(record.S3.Object.Key)
		if err != nil {
			p.logger.Warn("storage event with undecodable object key",
				"key", record.S3.Object.Key, "error", err)
			continue
		}

		activated, err := p.repo.MarkActiveByStorageKey(ctx, key, record.S3.Object.Size)
		if err != nil {
			return err
		}
		if activated {
			p.logger.Info("upload confirmed",
				"key", key, "size", record.S3.Object.Size, "bucket", record.S3.Bucket.Name)
			continue
		}

		// Not activated: either we never issued this key, or the record
		// already left PENDING.
		_, err = p.repo.GetByStorageKey(ctx, key)
		if errors.Is(err, domain.ErrFileNotFound) {
			p.logger.Warn("storage event for unknown object key", "key", key)
			continue
		}
		if err != nil {
			return err
		}
		p.logger.Info("duplicate upload confirmation ignored", "key", key)
	}
	return nil
}

// decodeObjectKey reverses the URL encoding S3 applies to object keys in
// event payloads, where spaces arrive as '+'.
func decodeObjectKey(raw string) (string, error) {
	return url.QueryUnescape(raw)
}
