package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/aadhi-11/careerguide/internal/session"
)

// sessionHandler handles session CRUD endpoints.
type sessionHandler struct {
	store  session.Store
	logger *slog.Logger
}

// sessionListResponse is the envelope for GET /api/v1/sessions.
type sessionListResponse struct {
	Sessions   []*session.Session `json:"sessions"`
	Pagination session.Page       `json:"pagination"`
}

// list returns sessions ordered by recency, most recently updated first.
// Query parameters:
//   - page: 1-based page number (default 1)
//   - pageSize: sessions per page (default 20, max 50)
func (h *sessionHandler) list(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1, 1, 1_000_000)
	pageSize := parseIntParam(r, "pageSize", session.DefaultPageSize, 1, session.MaxPageSize)

	sessions, pagination, err := h.store.ListSessions(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("listing sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list sessions", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, sessionListResponse{
		Sessions:   sessions,
		Pagination: pagination,
	}, h.logger)
}

// createSessionRequest is the request body for POST /api/v1/sessions.
type createSessionRequest struct {
	Title string `json:"title"`
}

// create creates a new, empty session. An omitted title gets the
// placeholder; the first chat turn will overwrite it.
func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	sess, err := h.store.CreateSession(r.Context(), req.Title)
	if err != nil {
		if errors.Is(err, session.ErrTitleTooLong) {
			writeError(w, http.StatusBadRequest, "invalid_title", "title too long (max 100 characters)", h.logger)
			return
		}
		h.logger.Error("creating session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, sess, h.logger)
}

// get returns a single session including its full message history.
func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("loading session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load session", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, sess, h.logger)
}

// messages returns only the ordered message history of a session.
func (h *sessionHandler) messages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("loading session messages", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load messages", h.logger)
		return
	}

	messages := sess.Messages
	if messages == nil {
		messages = []session.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages}, h.logger)
}

// appendMessageRequest is the request body for POST /api/v1/sessions/{id}/messages.
type appendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// appendMessage appends a single message to a session. This is the raw
// store operation for imports and tooling; interactive turns go through
// POST /api/v1/chat, which persists both sides of the exchange.
func (h *sessionHandler) appendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req appendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_content", "content must be a non-empty string", h.logger)
		return
	}

	sess, err := h.store.AppendMessage(r.Context(), id, req.Role, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
		case errors.Is(err, session.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid_role", "role must be user or assistant", h.logger)
		default:
			h.logger.Error("appending message", "session_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to append message", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusCreated, sess, h.logger)
}

// updateTitleRequest is the request body for PATCH /api/v1/sessions/{id}.
type updateTitleRequest struct {
	Title string `json:"title"`
}

// update renames a session.
func (h *sessionHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateTitleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	sess, err := h.store.UpdateTitle(r.Context(), id, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
		case errors.Is(err, session.ErrTitleTooLong):
			writeError(w, http.StatusBadRequest, "invalid_title", "title too long (max 100 characters)", h.logger)
		default:
			h.logger.Error("updating session title", "session_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update session", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, sess, h.logger)
}

// delete removes a session and all its messages.
func (h *sessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "session not found", h.logger)
			return
		}
		h.logger.Error("deleting session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete session", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}

// pathID parses the {id} path segment. Writes a 400 and returns false on a
// malformed id.
func (h *sessionHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "session id must be a UUID", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// decodeBody decodes a JSON request body with a size cap. An empty body
// decodes to the zero value so optional-body endpoints work without one.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
