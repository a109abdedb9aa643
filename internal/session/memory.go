package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is the in-memory Store implementation.
//
// It exists for development mode and unit tests; nothing survives a process
// restart. All operations copy on the way out, so callers can never mutate
// stored state through a returned Session.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*memorySession
	seq      int64 // insertion counter, breaks timestamp ties
	logger   *slog.Logger
}

// memorySession is the stored form of a session. Message order is insertion
// order, which by construction is also created-at order.
type memorySession struct {
	session    Session
	messages   []Message
	updatedSeq int64
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		sessions: make(map[uuid.UUID]*memorySession),
		logger:   logger,
	}
}

var _ Store = (*Memory)(nil)

// CreateSession creates a new session with an empty message list.
func (s *Memory) CreateSession(_ context.Context, title string) (*Session, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.seq++
	rec := &memorySession{
		session: Session{
			ID:        uuid.New(),
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		updatedSeq: s.seq,
	}
	s.sessions[rec.session.ID] = rec

	s.logger.Debug("created session", "id", rec.session.ID, "title", title)
	return rec.snapshot(), nil
}

// GetSession retrieves a session and its messages.
func (s *Memory) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.snapshot(), nil
}

// ListSessions lists sessions ordered by UpdatedAt descending, most recently
// touched first.
func (s *Memory) ListSessions(_ context.Context, page, pageSize int) ([]*Session, Page, error) {
	page, pageSize = normalizePage(page, pageSize)

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*memorySession, 0, len(s.sessions))
	for _, rec := range s.sessions {
		all = append(all, rec)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].session.UpdatedAt.Equal(all[j].session.UpdatedAt) {
			return all[i].session.UpdatedAt.After(all[j].session.UpdatedAt)
		}
		return all[i].updatedSeq > all[j].updatedSeq
	})

	totalCount := len(all)
	start := (page - 1) * pageSize
	if start > totalCount {
		start = totalCount
	}
	end := min(start+pageSize, totalCount)

	sessions := make([]*Session, 0, end-start)
	for _, rec := range all[start:end] {
		sess := rec.snapshot()
		sess.Messages = []Message{} // list responses carry previews only
		sessions = append(sessions, sess)
	}

	return sessions, buildPage(page, pageSize, totalCount), nil
}

// UpdateTitle replaces the session title.
func (s *Memory) UpdateTitle(_ context.Context, id uuid.UUID, title string) (*Session, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.session.Title = title

	return rec.snapshot(), nil
}

// AppendMessage appends a message and updates LastMessage/UpdatedAt under a
// single lock acquisition, so concurrent appends cannot interleave.
func (s *Memory) AppendMessage(_ context.Context, sessionID uuid.UUID, role, content string) (*Session, error) {
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()
	s.seq++
	rec.messages = append(rec.messages, Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	rec.session.LastMessage = content
	rec.session.UpdatedAt = now
	rec.updatedSeq = s.seq

	s.logger.Debug("appended message", "session_id", sessionID, "role", role)
	return rec.snapshot(), nil
}

// AppendExchange appends the user turn and the assistant reply under one
// lock acquisition, so the pair is observed together or not at all.
func (s *Memory) AppendExchange(_ context.Context, sessionID uuid.UUID, userContent, assistantContent string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()
	for _, turn := range []struct{ role, content string }{
		{RoleUser, userContent},
		{RoleAssistant, assistantContent},
	} {
		rec.messages = append(rec.messages, Message{
			ID:        uuid.New(),
			SessionID: sessionID,
			Role:      turn.role,
			Content:   turn.content,
			CreatedAt: now,
		})
	}
	s.seq++
	rec.session.LastMessage = assistantContent
	rec.session.UpdatedAt = now
	rec.updatedSeq = s.seq

	s.logger.Debug("appended exchange", "session_id", sessionID)
	return rec.snapshot(), nil
}

// DeleteSession removes the session and all its messages.
func (s *Memory) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)

	s.logger.Debug("deleted session", "id", id)
	return nil
}

// snapshot returns a deep copy of the session with its messages.
// Caller must hold at least the read lock.
func (rec *memorySession) snapshot() *Session {
	sess := rec.session
	sess.Messages = make([]Message, len(rec.messages))
	copy(sess.Messages, rec.messages)
	return &sess
}
