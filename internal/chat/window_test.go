package chat

import (
	"fmt"
	"testing"

	"github.com/aadhi-11/careerguide/internal/session"
)

func makeHistory(n int) []session.Message {
	msgs := make([]session.Message, n)
	for i := range msgs {
		role := session.RoleUser
		if i%2 == 1 {
			role = session.RoleAssistant
		}
		msgs[i] = session.Message{Role: role, Content: fmt.Sprintf("message %d", i)}
	}
	return msgs
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		history   int
		limit     int
		wantLen   int
		wantFirst string
	}{
		{"longer than limit", 15, 10, 10, "message 5"},
		{"shorter than limit", 3, 10, 3, "message 0"},
		{"exactly at limit", 10, 10, 10, "message 0"},
		{"empty history", 0, 10, 0, ""},
		{"zero limit uses default", 15, 0, DefaultWindow, "message 5"},
		{"negative limit uses default", 15, -1, DefaultWindow, "message 5"},
		{"limit of one", 15, 1, 1, "message 14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := makeHistory(tt.history)
			got := Window(history, tt.limit)

			if len(got) != tt.wantLen {
				t.Fatalf("Window() length = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Content != tt.wantFirst {
				t.Errorf("Window()[0].Content = %q, want %q", got[0].Content, tt.wantFirst)
			}
			// Suffix take preserves original order.
			for i := 1; i < len(got); i++ {
				want := fmt.Sprintf("message %d", tt.history-tt.wantLen+i)
				if got[i].Content != want {
					t.Errorf("Window()[%d].Content = %q, want %q", i, got[i].Content, want)
				}
			}
		})
	}
}
