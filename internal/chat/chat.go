// Package chat implements the conversation core: context windowing, prompt
// assembly, response normalization, and the per-request orchestration that
// ties them to the session store and the model provider.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aadhi-11/careerguide/internal/session"
)

const (
	// FallbackReply is returned when the model provider fails. It satisfies
	// the terminal-question invariant on its own, so it skips Normalize.
	FallbackReply = "I apologize, but I'm having trouble connecting to the AI service right now. " +
		"However, I'd be happy to help you with your career questions! " +
		"Could you tell me more about your current career situation and what specific guidance you're looking for?"

	// titleMaxLen is the number of leading characters of the first user
	// message used as the session title before the ellipsis cut.
	titleMaxLen = 30
)

// ErrEmptyMessage indicates a missing or blank user message. Surfaced to the
// HTTP layer as a 400 before any store access.
var ErrEmptyMessage = errors.New("message must be a non-empty string")

// Generator is the outbound text-completion collaborator.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config contains all required parameters for the chat Service.
type Config struct {
	Store     session.Store
	Generator Generator
	Logger    *slog.Logger

	// HistoryWindow bounds the number of prior messages sent as context.
	// Zero uses DefaultWindow.
	HistoryWindow int

	// Retry configures model-call retries. Zero value uses defaults.
	Retry RetryConfig
}

// validate checks that all required dependencies are present.
func (cfg Config) validate() error {
	if cfg.Store == nil {
		return errors.New("session store is required")
	}
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	return nil
}

// Service orchestrates one chat turn: resolve session, window context,
// assemble the prompt, call the model, normalize, persist the turn pair.
//
// Service is stateless; all dependencies are injected at construction and
// it is safe for concurrent use.
type Service struct {
	store     session.Store
	generator Generator
	logger    *slog.Logger
	window    int
	retry     RetryConfig
}

// New creates a chat Service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	window := cfg.HistoryWindow
	if window <= 0 {
		window = DefaultWindow
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialInterval == 0 {
		retry = DefaultRetryConfig()
	}

	return &Service{
		store:     cfg.Store,
		generator: cfg.Generator,
		logger:    logger,
		window:    window,
		retry:     retry,
	}, nil
}

// Reply is the result of one chat turn.
type Reply struct {
	SessionID uuid.UUID `json:"sessionId"`
	Reply     string    `json:"reply"`
}

// Send processes one user turn.
//
// sessionID may be empty (a fresh session is created for this conversation)
// or reference a session that no longer exists (the missing history is
// absorbed into an empty context rather than surfaced as an error). The
// model is called with no store locks held. On provider failure the fixed
// FallbackReply is substituted, the failure is logged, and the caller still
// receives a successful reply. The user turn and the assistant turn are
// persisted as one atomic pair after the model call; on validation failure
// nothing is written at all.
func (s *Service) Send(ctx context.Context, sessionID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	sess, history := s.resolveSession(ctx, sessionID)

	prompt := BuildPrompt(SystemPrompt, Window(history, s.window), message)

	reply, err := s.generateWithRetry(ctx, prompt)
	if err != nil {
		// Provider failures never reach the caller raw; operators see them
		// in the log, users get the conversational fallback.
		s.logger.Error("model call failed, using fallback reply",
			"session_id", sessionID,
			"error", err,
		)
		reply = FallbackReply
	} else {
		reply = Normalize(reply)
	}

	if sess == nil {
		// First turn of a new conversation: the session is created only
		// after the model call, titled from the user's opening message.
		sess, err = s.store.CreateSession(ctx, deriveTitle(message))
		if err != nil {
			return nil, fmt.Errorf("creating session: %w", err)
		}
	} else if len(history) == 0 && sess.Title == session.DefaultTitle {
		// Placeholder title is overwritten once, by the first user message.
		if _, err := s.store.UpdateTitle(ctx, sess.ID, deriveTitle(message)); err != nil {
			return nil, fmt.Errorf("titling session: %w", err)
		}
	}

	if _, err := s.store.AppendExchange(ctx, sess.ID, message, reply); err != nil {
		return nil, fmt.Errorf("persisting exchange: %w", err)
	}

	return &Reply{SessionID: sess.ID, Reply: reply}, nil
}

// resolveSession loads the session named by sessionID. An empty, malformed,
// or unknown id yields (nil, nil): the turn proceeds with an empty context
// and a session is created at persistence time.
func (s *Service) resolveSession(ctx context.Context, sessionID string) (*session.Session, []session.Message) {
	if sessionID == "" {
		return nil, nil
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		s.logger.Warn("malformed session id, starting fresh", "session_id", sessionID)
		return nil, nil
	}

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.logger.Error("loading session history", "session_id", id, "error", err)
		}
		return nil, nil
	}

	return sess, sess.Messages
}

// deriveTitle builds a session title from the first user message,
// truncated with an ellipsis marker when it runs long.
func deriveTitle(message string) string {
	if utf8.RuneCountInString(message) <= titleMaxLen {
		return message
	}
	runes := []rune(message)
	return string(runes[:titleMaxLen]) + "..."
}
