package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aadhi-11/careerguide/internal/config"
	"github.com/aadhi-11/careerguide/internal/log"
	"github.com/aadhi-11/careerguide/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage stored chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store session.Store) error {
			return runSessionsList(ctx, store)
		})
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store session.Store) error {
			return runSessionsShow(ctx, store, args[0])
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and all its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store session.Store) error {
			return runSessionsDelete(ctx, store, args[0])
		})
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// withStore loads config, opens a Postgres-backed store, runs fn, and
// closes the pool. The sessions commands always talk to the database
// directly, they never need the model provider.
func withStore(ctx context.Context, fn func(context.Context, session.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.MemoryStore {
		return fmt.Errorf("sessions commands require a PostgreSQL store, but memory_store is enabled")
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, session.NewPostgres(pool, logger))
}

func runSessionsList(ctx context.Context, store session.Store) error {
	sessions, page, err := store.ListSessions(ctx, 1, session.MaxPageSize)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Sessions (%d total):\n\n", page.TotalCount)
	for _, s := range sessions {
		fmt.Printf("  %s  %-40q  updated %s\n", s.ID, s.Title, formatTime(s.UpdatedAt))
	}
	if page.HasNextPage {
		fmt.Printf("\nShowing first %d of %d sessions.\n", len(sessions), page.TotalCount)
	}

	return nil
}

func runSessionsShow(ctx context.Context, store session.Store, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session id: %s", rawID)
	}

	sess, err := store.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	fmt.Printf("Session: %s\n", sess.ID)
	fmt.Printf("Title: %s\n", sess.Title)
	fmt.Printf("Created: %s\n", formatTime(sess.CreatedAt))
	fmt.Printf("Updated: %s\n", formatTime(sess.UpdatedAt))
	fmt.Printf("Messages: %d\n\n", len(sess.Messages))

	for _, msg := range sess.Messages {
		label := "You"
		if msg.Role == session.RoleAssistant {
			label = "Assistant"
		}
		fmt.Printf("%s> %s\n\n", label, msg.Content)
	}

	return nil
}

func runSessionsDelete(ctx context.Context, store session.Store, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid session id: %s", rawID)
	}

	if err := store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	fmt.Printf("Deleted session %s\n", id)
	return nil
}

// formatTime formats time in a human-readable relative format.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
