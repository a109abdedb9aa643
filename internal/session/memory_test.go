package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/aadhi-11/careerguide/internal/log"
)

func newTestStore() *Memory {
	return NewMemory(log.NewNop())
}

func TestMemory_CreateSession_DefaultTitle(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if sess.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", sess.Title, DefaultTitle)
	}
	if sess.LastMessage != "" {
		t.Errorf("LastMessage = %q, want empty", sess.LastMessage)
	}
	if len(sess.Messages) != 0 {
		t.Errorf("Messages length = %d, want 0", len(sess.Messages))
	}
	if sess.ID == uuid.Nil {
		t.Error("ID is the nil UUID")
	}
}

func TestMemory_CreateSession_TitleTooLong(t *testing.T) {
	store := newTestStore()

	_, err := store.CreateSession(context.Background(), strings.Repeat("x", MaxTitleLength+1))
	if !errors.Is(err, ErrTitleTooLong) {
		t.Fatalf("CreateSession() error = %v, want ErrTitleTooLong", err)
	}
}

func TestMemory_GetSession_NotFound(t *testing.T) {
	store := newTestStore()

	_, err := store.GetSession(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSession() error = %v, want ErrNotFound", err)
	}
}

func TestMemory_AppendMessage_Ordering(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "ordering")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	const n = 25
	for i := range n {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if _, err := store.AppendMessage(ctx, sess.ID, role, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("AppendMessage(%d) error = %v", i, err)
		}
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(got.Messages) != n {
		t.Fatalf("Messages length = %d, want %d", len(got.Messages), n)
	}
	for i, msg := range got.Messages {
		if want := fmt.Sprintf("message %d", i); msg.Content != want {
			t.Errorf("Messages[%d].Content = %q, want %q", i, msg.Content, want)
		}
	}
	if want := fmt.Sprintf("message %d", n-1); got.LastMessage != want {
		t.Errorf("LastMessage = %q, want %q", got.LastMessage, want)
	}
}

func TestMemory_AppendMessage_InvalidRole(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "roles")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if _, err := store.AppendMessage(ctx, sess.ID, "system", "nope"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("AppendMessage() error = %v, want ErrInvalidRole", err)
	}
}

func TestMemory_AppendExchange(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "exchange")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := store.AppendExchange(ctx, sess.ID, "how do I learn Go?", "Start with the tour.")
	if err != nil {
		t.Fatalf("AppendExchange() error = %v", err)
	}

	if len(got.Messages) != 2 {
		t.Fatalf("Messages length = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != RoleUser || got.Messages[0].Content != "how do I learn Go?" {
		t.Errorf("Messages[0] = %+v, want user turn first", got.Messages[0])
	}
	if got.Messages[1].Role != RoleAssistant || got.Messages[1].Content != "Start with the tour." {
		t.Errorf("Messages[1] = %+v, want assistant turn second", got.Messages[1])
	}
	if got.LastMessage != "Start with the tour." {
		t.Errorf("LastMessage = %q, want assistant content", got.LastMessage)
	}
}

func TestMemory_AppendExchange_NotFound(t *testing.T) {
	store := newTestStore()

	_, err := store.AppendExchange(context.Background(), uuid.New(), "hi", "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("AppendExchange() error = %v, want ErrNotFound", err)
	}
}

func TestMemory_ListSessions_Pagination(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	// 12 sessions at page size 7 should give 2 pages of 7 and 5.
	for i := range 12 {
		if _, err := store.CreateSession(ctx, fmt.Sprintf("session %d", i)); err != nil {
			t.Fatalf("CreateSession(%d) error = %v", i, err)
		}
	}

	first, page, err := store.ListSessions(ctx, 1, 7)
	if err != nil {
		t.Fatalf("ListSessions(1) error = %v", err)
	}
	if len(first) != 7 {
		t.Errorf("page 1 length = %d, want 7", len(first))
	}
	if page.TotalCount != 12 {
		t.Errorf("TotalCount = %d, want 12", page.TotalCount)
	}
	if page.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page.TotalPages)
	}
	if !page.HasNextPage {
		t.Error("HasNextPage = false, want true")
	}
	if page.HasPreviousPage {
		t.Error("HasPreviousPage = true, want false")
	}

	second, page, err := store.ListSessions(ctx, 2, 7)
	if err != nil {
		t.Fatalf("ListSessions(2) error = %v", err)
	}
	if len(second) != 5 {
		t.Errorf("page 2 length = %d, want 5", len(second))
	}
	if page.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if !page.HasPreviousPage {
		t.Error("HasPreviousPage = false, want true")
	}

	// No overlap between pages.
	seen := make(map[uuid.UUID]bool)
	for _, s := range first {
		seen[s.ID] = true
	}
	for _, s := range second {
		if seen[s.ID] {
			t.Errorf("session %s appears on both pages", s.ID)
		}
	}
}

func TestMemory_ListSessions_RecencyOrder(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	a, _ := store.CreateSession(ctx, "a")
	b, _ := store.CreateSession(ctx, "b")

	// Touching the older session moves it to the front.
	if _, err := store.AppendMessage(ctx, a.ID, RoleUser, "bump"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	sessions, _, err := store.ListSessions(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("length = %d, want 2", len(sessions))
	}
	if sessions[0].ID != a.ID {
		t.Errorf("sessions[0].ID = %s, want bumped session %s", sessions[0].ID, a.ID)
	}
	if sessions[1].ID != b.ID {
		t.Errorf("sessions[1].ID = %s, want %s", sessions[1].ID, b.ID)
	}
}

func TestMemory_ListSessions_EmptyPage(t *testing.T) {
	store := newTestStore()

	sessions, page, err := store.ListSessions(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("length = %d, want 0", len(sessions))
	}
	if page.TotalCount != 0 || page.TotalPages != 0 {
		t.Errorf("page = %+v, want zero totals", page)
	}
	if page.HasNextPage || page.HasPreviousPage {
		t.Errorf("page = %+v, want no next/previous on empty store", page)
	}
}

func TestMemory_UpdateTitle(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, _ := store.CreateSession(ctx, "before")

	got, err := store.UpdateTitle(ctx, sess.ID, "after")
	if err != nil {
		t.Fatalf("UpdateTitle() error = %v", err)
	}
	if got.Title != "after" {
		t.Errorf("Title = %q, want %q", got.Title, "after")
	}

	if _, err := store.UpdateTitle(ctx, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateTitle(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemory_DeleteSession(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, _ := store.CreateSession(ctx, "doomed")
	if _, err := store.AppendMessage(ctx, sess.ID, RoleUser, "hello"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := store.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := store.GetSession(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteSession(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteSession() second call error = %v, want ErrNotFound", err)
	}
}

func TestMemory_SnapshotIsolation(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	sess, _ := store.CreateSession(ctx, "isolated")
	if _, err := store.AppendMessage(ctx, sess.ID, RoleUser, "original"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	got, _ := store.GetSession(ctx, sess.ID)
	got.Title = "mutated"
	got.Messages[0].Content = "mutated"

	fresh, _ := store.GetSession(ctx, sess.ID)
	if fresh.Title != "isolated" {
		t.Errorf("Title = %q, stored state mutated through snapshot", fresh.Title)
	}
	if fresh.Messages[0].Content != "original" {
		t.Errorf("Content = %q, stored state mutated through snapshot", fresh.Messages[0].Content)
	}
}
