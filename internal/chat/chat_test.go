package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aadhi-11/careerguide/internal/log"
	"github.com/aadhi-11/careerguide/internal/session"
)

// stubGenerator returns a fixed reply or error and records prompts.
type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestService(t *testing.T, gen Generator) (*Service, *session.Memory) {
	t.Helper()
	store := session.NewMemory(log.NewNop())
	svc, err := New(Config{
		Store:     store,
		Generator: gen,
		Logger:    log.NewNop(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, store
}

func TestService_Send_NewSession(t *testing.T) {
	gen := &stubGenerator{reply: "Great question! What draws you to data science?"}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	reply, err := svc.Send(ctx, "", "Should I learn data science?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply.SessionID == uuid.Nil {
		t.Fatal("SessionID is the nil UUID")
	}
	if reply.Reply != "Great question! What draws you to data science?" {
		t.Errorf("Reply = %q", reply.Reply)
	}

	sess, err := store.GetSession(ctx, reply.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("Messages length = %d, want 2 (user + assistant)", len(sess.Messages))
	}
	if sess.Messages[0].Role != session.RoleUser || sess.Messages[0].Content != "Should I learn data science?" {
		t.Errorf("Messages[0] = %+v", sess.Messages[0])
	}
	if sess.Messages[1].Role != session.RoleAssistant || sess.Messages[1].Content != reply.Reply {
		t.Errorf("Messages[1] = %+v", sess.Messages[1])
	}
	if sess.Title != "Should I learn data science?" {
		t.Errorf("Title = %q, want the opening message", sess.Title)
	}
}

func TestService_Send_NormalizesReply(t *testing.T) {
	gen := &stubGenerator{reply: "Try Python."}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	reply, err := svc.Send(ctx, "", "Which language first?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	want := "Try Python. " + FollowUpQuestion
	if reply.Reply != want {
		t.Errorf("Reply = %q, want %q", reply.Reply, want)
	}

	// The normalized form, not the raw model output, is persisted.
	sess, _ := store.GetSession(ctx, reply.SessionID)
	if sess.Messages[1].Content != want {
		t.Errorf("persisted assistant content = %q, want %q", sess.Messages[1].Content, want)
	}
}

func TestService_Send_ContinuesSession(t *testing.T) {
	gen := &stubGenerator{reply: "Sounds good! What's next on your list?"}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	first, err := svc.Send(ctx, "", "I want to become a designer.")
	if err != nil {
		t.Fatalf("Send() first turn error = %v", err)
	}

	second, err := svc.Send(ctx, first.SessionID.String(), "Where do I start?")
	if err != nil {
		t.Fatalf("Send() second turn error = %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("second turn SessionID = %s, want %s", second.SessionID, first.SessionID)
	}

	sess, _ := store.GetSession(ctx, first.SessionID)
	if len(sess.Messages) != 4 {
		t.Fatalf("Messages length = %d, want 4", len(sess.Messages))
	}

	// The second prompt carries the first exchange as context.
	lastPrompt := gen.prompts[len(gen.prompts)-1]
	if !strings.Contains(lastPrompt, "Previous conversation context:") {
		t.Error("second prompt missing history section")
	}
	if !strings.Contains(lastPrompt, "User: I want to become a designer.") {
		t.Error("second prompt missing prior user turn")
	}
	if !strings.Contains(lastPrompt, "Current user message: Where do I start?") {
		t.Error("second prompt missing current message")
	}
}

func TestService_Send_WindowsLongHistory(t *testing.T) {
	gen := &stubGenerator{reply: "Keep at it! What else?"}
	store := session.NewMemory(log.NewNop())
	svc, err := New(Config{
		Store:         store,
		Generator:     gen,
		Logger:        log.NewNop(),
		HistoryWindow: 4,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	sess, _ := store.CreateSession(ctx, "long chat")
	for i := range 6 {
		if _, err := store.AppendExchange(ctx, sess.ID,
			"question "+string(rune('a'+i)), "answer "+string(rune('a'+i))); err != nil {
			t.Fatalf("AppendExchange(%d) error = %v", i, err)
		}
	}

	if _, err := svc.Send(ctx, sess.ID.String(), "latest question"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	prompt := gen.prompts[0]
	// 12 historical messages windowed to the last 4.
	if strings.Contains(prompt, "question a") || strings.Contains(prompt, "answer d") {
		t.Error("prompt contains messages outside the window")
	}
	for _, want := range []string{"question e", "answer e", "question f", "answer f"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing windowed message %q", want)
		}
	}
}

func TestService_Send_EmptyMessage(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{reply: "hi?"})

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Send(context.Background(), "", msg); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Send(%q) error = %v, want ErrEmptyMessage", msg, err)
		}
	}
}

func TestService_Send_ProviderFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("API key not valid")}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	reply, err := svc.Send(ctx, "", "Help me plan my career.")
	if err != nil {
		t.Fatalf("Send() error = %v, provider failures must not surface", err)
	}
	if reply.Reply != FallbackReply {
		t.Errorf("Reply = %q, want FallbackReply", reply.Reply)
	}

	// The pair is persisted even on fallback.
	sess, err := store.GetSession(ctx, reply.SessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("Messages length = %d, want 2", len(sess.Messages))
	}
	if sess.Messages[1].Content != FallbackReply {
		t.Errorf("persisted assistant content = %q, want FallbackReply", sess.Messages[1].Content)
	}
}

func TestService_Send_UnknownSessionStartsFresh(t *testing.T) {
	gen := &stubGenerator{reply: "Welcome! What brings you here?"}
	svc, _ := newTestService(t, gen)

	unknown := uuid.New().String()
	reply, err := svc.Send(context.Background(), unknown, "hello")
	if err != nil {
		t.Fatalf("Send() error = %v, unknown session must be absorbed", err)
	}
	if reply.SessionID.String() == unknown {
		t.Error("unknown session id must not be reused")
	}

	// A prompt with no history section was sent.
	if strings.Contains(gen.prompts[0], "Previous conversation context:") {
		t.Error("prompt for absorbed session must have empty context")
	}
}

func TestService_Send_MalformedSessionStartsFresh(t *testing.T) {
	gen := &stubGenerator{reply: "Hi there! What can I help with?"}
	svc, _ := newTestService(t, gen)

	reply, err := svc.Send(context.Background(), "not-a-uuid", "hello")
	if err != nil {
		t.Fatalf("Send() error = %v, malformed id must be absorbed", err)
	}
	if reply.SessionID == uuid.Nil {
		t.Error("SessionID is the nil UUID")
	}
}

func TestService_Send_TitleTruncation(t *testing.T) {
	gen := &stubGenerator{reply: "Let's dig in! Where are you now?"}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	long := "I have been working in accounting for ten years and want a change"
	reply, err := svc.Send(ctx, "", long)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sess, _ := store.GetSession(ctx, reply.SessionID)
	want := string([]rune(long)[:titleMaxLen]) + "..."
	if sess.Title != want {
		t.Errorf("Title = %q, want %q", sess.Title, want)
	}
}

func TestService_Send_PlaceholderTitleOverwritten(t *testing.T) {
	gen := &stubGenerator{reply: "Nice! What's the goal?"}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	// A session created over the API carries the placeholder title until
	// its first chat turn.
	sess, _ := store.CreateSession(ctx, "")

	if _, err := svc.Send(ctx, sess.ID.String(), "short question"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	got, _ := store.GetSession(ctx, sess.ID)
	if got.Title != "short question" {
		t.Errorf("Title = %q, want first message to replace placeholder", got.Title)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Generator: &stubGenerator{}}); err == nil {
		t.Error("New() without store expected error")
	}
	if _, err := New(Config{Store: session.NewMemory(log.NewNop())}); err == nil {
		t.Error("New() without generator expected error")
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle("short"); got != "short" {
		t.Errorf("deriveTitle(short) = %q", got)
	}

	long := strings.Repeat("a", titleMaxLen+5)
	got := deriveTitle(long)
	if got != strings.Repeat("a", titleMaxLen)+"..." {
		t.Errorf("deriveTitle(long) = %q", got)
	}

	// Multibyte input truncates on rune boundaries.
	wide := strings.Repeat("職", titleMaxLen+1)
	got = deriveTitle(wide)
	if got != strings.Repeat("職", titleMaxLen)+"..." {
		t.Errorf("deriveTitle(wide) = %q", got)
	}
}
