package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"filevault/internal/modules/files/domain"
)

// UserDeletedEvent is enqueued when an account is removed.
type UserDeletedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// UserDeletionProcessor soft-deletes every file owned by a removed account.
// The bulk update skips rows already soft-deleted, so redelivery changes
// nothing.
type UserDeletionProcessor struct {
	repo   domain.FileRepository
	logger *slog.Logger
}

func NewUserDeletionProcessor(repo domain.FileRepository, logger *slog.Logger) *UserDeletionProcessor {
	return &UserDeletionProcessor{repo: repo, logger: logger}
}

// Handle processes one user-deletion job.
func (p *UserDeletionProcessor) Handle(ctx context.Context, payload []byte) error {
	var event UserDeletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode user deletion event: %w", err)
	}

	if event.UserID == "" {
		p.logger.Warn("user deletion event without userId, skipping")
		return nil
	}
	ownerID, err := uuid.Parse(event.UserID)
	if err != nil {
		p.logger.Warn("user deletion event with malformed userId, skipping",
			"userId", event.UserID, "error", err)
		return nil
	}

	count, err := p.repo.SoftDeleteByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	p.logger.Info("soft deleted files for removed user", "userId", ownerID, "count", count)
	return nil
}
