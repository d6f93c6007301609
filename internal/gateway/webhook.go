package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/alekspetrov/standup/internal/alice"
	"github.com/alekspetrov/standup/internal/dialog"
	"github.com/alekspetrov/standup/internal/logging"
)

// WebhookHandler answers the platform's turn requests.
type WebhookHandler struct {
	processor *dialog.Processor
}

// NewWebhookHandler wraps a dialog processor.
func NewWebhookHandler(processor *dialog.Processor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// ServeTurn decodes one turn request, runs the processor and writes the
// response envelope. A repository failure yields a bare 500 with no partial
// response; the platform renders its own generic apology for those.
func (h *WebhookHandler) ServeTurn(w http.ResponseWriter, r *http.Request) {
	ctx := logging.ContextWithCorrelationID(r.Context(), uuid.NewString())
	logger := logging.WithContext(ctx)

	var req alice.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("malformed turn request", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	turn := alice.NewTurn(&req)
	logger.Debug("turn received",
		"user_id", turn.UserID(),
		"new_session", turn.IsNewSession(),
		"command", turn.Command())

	resp, err := h.processor.HandleTurn(ctx, turn)
	if err != nil {
		logger.Error("turn processing failed", "user_id", turn.UserID(), "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
