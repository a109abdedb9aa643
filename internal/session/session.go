// Package session provides persistence for conversation sessions and their
// messages.
//
// A Session owns an ordered list of Messages. Ordering within a session is
// strictly by creation time ascending, ties broken by insertion order. The
// session's LastMessage and UpdatedAt fields always reflect the most recently
// appended message; AppendMessage updates them atomically with the insert.
//
// Two Store implementations exist: Postgres (durable, pgx-backed) and Memory
// (mutex-guarded map for development and tests). Both are safe for concurrent
// use by multiple goroutines.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role constants define the closed set of valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role is one of the permitted message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// Session represents a conversation session.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Messages is the full ordered history. Populated by GetSession,
	// UpdateTitle and AppendMessage; left empty by ListSessions, where
	// LastMessage serves as the preview.
	Messages []Message `json:"messages"`
}

// Message represents a single conversation turn.
type Message struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page describes the pagination state of a ListSessions result.
type Page struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Store is the persistence contract for sessions and messages.
//
// All mutating operations are durable before returning. Concurrent appends
// to the same session must not lose updates; implementations serialize
// per-session mutation. Operations on different sessions do not block each
// other.
type Store interface {
	// CreateSession creates a session with an empty message list. An empty
	// title defaults to DefaultTitle. Returns ErrTitleTooLong if the title
	// exceeds MaxTitleLength.
	CreateSession(ctx context.Context, title string) (*Session, error)

	// GetSession retrieves a session with its full message history, ordered
	// ascending by creation time. Returns ErrNotFound for unknown ids.
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)

	// ListSessions returns sessions ordered by UpdatedAt descending.
	// page is 1-indexed; out-of-range values are clamped. pageSize is
	// clamped to MaxPageSize, with DefaultPageSize substituted for
	// non-positive values.
	ListSessions(ctx context.Context, page, pageSize int) ([]*Session, Page, error)

	// UpdateTitle replaces the session title and returns the updated session
	// with messages. Returns ErrNotFound for unknown ids and ErrTitleTooLong
	// for oversized titles.
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*Session, error)

	// AppendMessage creates a message at the end of the session's history and
	// updates LastMessage and UpdatedAt in the same atomic step. Returns the
	// full updated session. Returns ErrNotFound if the session does not
	// exist and ErrInvalidRole for roles outside the closed set.
	AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string) (*Session, error)

	// AppendExchange persists a user turn and the assistant reply as one
	// atomic unit, so a store failure can never leave a lone user message
	// behind. LastMessage and UpdatedAt reflect the assistant turn.
	AppendExchange(ctx context.Context, sessionID uuid.UUID, userContent, assistantContent string) (*Session, error)

	// DeleteSession removes the session and all its messages atomically.
	// Returns ErrNotFound for unknown ids; no silent success on a missing id.
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
