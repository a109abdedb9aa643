package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the durable Store implementation backed by PostgreSQL.
//
// Per-session mutation is serialized by locking the session row
// (SELECT ... FOR UPDATE) inside the AppendMessage transaction, so
// concurrent appends to the same session cannot lose the
// last_message/updated_at update. Appends to different sessions lock
// different rows and proceed in parallel.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a Postgres store on top of an existing connection pool.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

var _ Store = (*Postgres)(nil)

// CreateSession creates a new session with an empty message list.
func (s *Postgres) CreateSession(ctx context.Context, title string) (*Session, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	sess := &Session{Title: title, Messages: []Message{}}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO sessions (title) VALUES ($1)
		 RETURNING id, last_message, created_at, updated_at`,
		title,
	).Scan(&sess.ID, &sess.LastMessage, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logger.Debug("created session", "id", sess.ID, "title", sess.Title)
	return sess, nil
}

// GetSession retrieves a session and its messages ordered by creation time.
func (s *Postgres) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.getSession(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}

	sess.Messages, err = s.getMessages(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// ListSessions lists sessions ordered by updated_at descending, without
// message bodies; LastMessage carries the preview.
func (s *Postgres) ListSessions(ctx context.Context, page, pageSize int) ([]*Session, Page, error) {
	page, pageSize = normalizePage(page, pageSize)

	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM sessions`).Scan(&totalCount); err != nil {
		return nil, Page{}, fmt.Errorf("counting sessions: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, last_message, created_at, updated_at
		 FROM sessions
		 ORDER BY updated_at DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, Page{}, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*Session, 0, pageSize)
	for rows.Next() {
		sess := &Session{Messages: []Message{}}
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.LastMessage, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, Page{}, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, Page{}, fmt.Errorf("iterating session rows: %w", err)
	}

	return sessions, buildPage(page, pageSize, totalCount), nil
}

// UpdateTitle replaces the session title.
func (s *Postgres) UpdateTitle(ctx context.Context, id uuid.UUID, title string) (*Session, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	sess := &Session{}
	err = s.pool.QueryRow(ctx,
		`UPDATE sessions SET title = $2 WHERE id = $1
		 RETURNING id, title, last_message, created_at, updated_at`,
		id, title,
	).Scan(&sess.ID, &sess.Title, &sess.LastMessage, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating title for session %s: %w", id, err)
	}

	sess.Messages, err = s.getMessages(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// AppendMessage inserts a message and updates the session summary fields in
// a single transaction. now() in PostgreSQL is the transaction timestamp, so
// the message's created_at and the session's updated_at come out identical.
func (s *Postgres) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string) (*Session, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	// Lock the session row so concurrent appends to the same session are
	// serialized and cannot leave last_message/updated_at stale.
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("locking session %s: %w", sessionID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content,
	); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET last_message = $2, updated_at = now() WHERE id = $1`,
		sessionID, content,
	); err != nil {
		return nil, fmt.Errorf("updating session summary: %w", err)
	}

	sess, err := s.getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Messages, err = s.getMessages(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing append: %w", err)
	}

	s.logger.Debug("appended message", "session_id", sessionID, "role", role)
	return sess, nil
}

// AppendExchange persists the user turn and the assistant reply in a single
// transaction. Both messages share the transaction timestamp; their relative
// order is preserved by the insertion sequence.
func (s *Postgres) AppendExchange(ctx context.Context, sessionID uuid.UUID, userContent, assistantContent string) (*Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("locking session %s: %w", sessionID, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3), ($1, $4, $5)`,
		sessionID, RoleUser, userContent, RoleAssistant, assistantContent,
	); err != nil {
		return nil, fmt.Errorf("inserting exchange: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET last_message = $2, updated_at = now() WHERE id = $1`,
		sessionID, assistantContent,
	); err != nil {
		return nil, fmt.Errorf("updating session summary: %w", err)
	}

	sess, err := s.getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Messages, err = s.getMessages(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing exchange: %w", err)
	}

	s.logger.Debug("appended exchange", "session_id", sessionID)
	return sess, nil
}

// DeleteSession removes the session; messages go with it via ON DELETE CASCADE.
func (s *Postgres) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted session", "id", id)
	return nil
}

// querier abstracts pool vs. transaction for read helpers.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Postgres) getSession(ctx context.Context, q querier, id uuid.UUID) (*Session, error) {
	sess := &Session{}
	err := q.QueryRow(ctx,
		`SELECT id, title, last_message, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Title, &sess.LastMessage, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return sess, nil
}

// getMessages loads all messages for a session ordered by creation time,
// ties broken by the insertion sequence.
func (s *Postgres) getMessages(ctx context.Context, q querier, sessionID uuid.UUID) ([]Message, error) {
	rows, err := q.Query(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM messages
		 WHERE session_id = $1
		 ORDER BY created_at, seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting messages for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}
