package chat

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "ends with question mark passes through",
			in:   "What interests you most?",
			want: "What interests you most?",
		},
		{
			name: "ends with exclamation passes through",
			in:   "Go for it!",
			want: "Go for it!",
		},
		{
			name: "mid-text question gains closing period",
			in:   "Have you tried Go? It is worth a look",
			want: "Have you tried Go? It is worth a look.",
		},
		{
			name: "no question gains follow-up",
			in:   "Try Python.",
			want: "Try Python. " + FollowUpQuestion,
		},
		{
			name: "empty input yields follow-up alone",
			in:   "",
			want: FollowUpQuestion,
		},
		{
			name: "whitespace-only input yields follow-up alone",
			in:   "  \n\t  ",
			want: FollowUpQuestion,
		},
		{
			name: "horizontal whitespace collapses",
			in:   "Learn   Go\tand    SQL.",
			want: "Learn Go and SQL. " + FollowUpQuestion,
		},
		{
			name: "single newlines are preserved",
			in:   "- resume\n- portfolio\n- referrals\nWhich one first?",
			want: "- resume\n- portfolio\n- referrals\nWhich one first?",
		},
		{
			name: "blank line runs collapse to one paragraph break",
			in:   "First point.\n\n\n\nSecond point?",
			want: "First point.\n\nSecond point?",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  Solid plan!  ",
			want: "Solid plan!",
		},
		{
			name: "CRLF input handled",
			in:   "Line one.\r\nLine two?",
			want: "Line one.\nLine two?",
		},
		{
			name: "spaces around newlines stripped",
			in:   "First line.   \n   Second line?",
			want: "First line.\nSecond line?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"What interests you most?",
		"Have you tried Go? It is worth a look",
		"Try Python.",
		"",
		"- a\n- b\n\n\nWhich?",
		"Learn   Go\tand SQL",
		"Keep going!",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalize_NeverEmpty(t *testing.T) {
	inputs := []string{"", " ", "\n\n", "\t", "ok"}
	for _, in := range inputs {
		if got := Normalize(in); got == "" {
			t.Errorf("Normalize(%q) returned empty string", in)
		}
	}
}
