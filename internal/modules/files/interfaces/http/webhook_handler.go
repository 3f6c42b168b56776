package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"filevault/internal/shared/utils"
)

// Enqueuer publishes jobs for async processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload interface{}) error
}

// WebhookHandler receives bucket notification POSTs from the object store
// and forwards them to the storage events queue. Reconciliation itself
// happens in the worker.
type WebhookHandler struct {
	events Enqueuer
	token  string
}

// NewWebhookHandler creates the handler. When token is non-empty the
// endpoint requires it as a Bearer token; the object store is configured
// with the same value.
func NewWebhookHandler(events Enqueuer, token string) *WebhookHandler {
	return &WebhookHandler{events: events, token: token}
}

// StorageNotification handles POST /webhooks/storage.
func (h *WebhookHandler) StorageNotification(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.token)) != 1 {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", errors.New("invalid webhook token"))
			return
		}
	}

	var event json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	if err := h.events.Enqueue(r.Context(), event); err != nil {
		utils.WriteError(w, http.StatusBadGateway, "QUEUE_UNAVAILABLE", errors.New("failed to enqueue notification"))
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "Accepted."})
}
