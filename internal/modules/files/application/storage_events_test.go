package application

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/modules/files/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storageEventPayload(key string, size int64) []byte {
	return []byte(`{"Records":[{"s3":{"bucket":{"name":"files"},"object":{"key":"` + key + `","size":` + strconv.FormatInt(size, 10) + `}}}]}`)
}

func TestStorageEvents_ActivatesPendingWithConfirmedSize(t *testing.T) {
	repo := new(mockFileRepository)
	p := NewStorageEventProcessor(repo, discardLogger())
	ctx := context.Background()

	repo.On("MarkActiveByStorageKey", ctx, "owner/file/report.csv", int64(4096)).Return(true, nil).Once()

	err := p.Handle(ctx, storageEventPayload("owner/file/report.csv", 4096))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStorageEvents_DecodesURLEncodedKey(t *testing.T) {
	repo := new(mockFileRepository)
	p := NewStorageEventProcessor(repo, discardLogger())
	ctx := context.Background()

	// S3 encodes the key; '+' means a space.
	repo.On("MarkActiveByStorageKey", ctx, "owner/file/my report.csv", int64(10)).Return(true, nil).Once()

	err := p.Handle(ctx, storageEventPayload("owner/file/my+report.csv", 10))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStorageEvents_UnknownKeyIsSkipped(t *testing.T) {
	repo := new(mockFileRepository)
	p := NewStorageEventProcessor(repo, discardLogger())
	ctx := context.Background()

	repo.On("MarkActiveByStorageKey", ctx, "unknown/key", int64(10)).Return(false, nil).Once()
	repo.On("GetByStorageKey", ctx, "unknown/key").Return(nil, domain.ErrFileNotFound).Once()

	err := p.Handle(ctx, storageEventPayload("unknown/key", 10))
	assert.NoError(t, err)
}

func TestStorageEvents_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := new(mockFileRepository)
	p := NewStorageEventProcessor(repo, discardLogger())
	ctx := context.Background()

	repo.On("MarkActiveByStorageKey", ctx, "owner/file/report.csv", int64(10)).Return(false, nil).Once()
	repo.On("GetByStorageKey", ctx, "owner/file/report.csv").Return(&domain.FileRecord{
		Status: domain.StatusActive,
	}, nil).Once()

	err := p.Handle(ctx, storageEventPayload("owner/file/report.csv", 10))
	assert.NoError(t, err)
}

func TestStorageEvents_MalformedPayloadFails(t *testing.T) {
	p := NewStorageEventProcessor(new(mockFileRepository), discardLogger())
	err := p.Handle(context.Background(), []byte("not json"))
	assert.Error(t, err)
}

func TestStorageEvents_RepositoryErrorPropagates(t *testing.T) {
	repo := new(mockFileRepository)
	p := NewStorageEventProcessor(repo, discardLogger())
	ctx := context.Background()

	repo.On("MarkActiveByStorageKey", ctx, "k", int64(10)).Return(false, assert.AnError).Once()

	err := p.Handle(ctx, storageEventPayload("k", 10))
	assert.Error(t, err)
}
