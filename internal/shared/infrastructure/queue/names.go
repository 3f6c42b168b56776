package queue

// Queue names shared between the API server (producer) and the worker
// binary (consumer).
const (
	StorageEventsQueue = "s3-upload-notifications"
	UserEventsQueue    = "user-events"
)
