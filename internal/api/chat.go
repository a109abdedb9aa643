package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aadhi-11/careerguide/internal/chat"
)

// maxRequestBody caps JSON request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// chatHandler handles the chat endpoint.
type chatHandler struct {
	service *chat.Service
	logger  *slog.Logger
}

// chatRequest is the request body for POST /api/v1/chat.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// send processes one chat turn. sessionId is optional; omitting it or
// sending an unknown id starts a new conversation. Provider failures do
// not surface here, the service substitutes its fallback reply.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	reply, err := h.service.Send(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "invalid_message", "message must be a non-empty string", h.logger)
			return
		}
		h.logger.Error("processing chat turn",
			"session_id", req.SessionID,
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to process message", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, reply, h.logger)
}
