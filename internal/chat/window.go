package chat

import "github.com/aadhi-11/careerguide/internal/session"

// DefaultWindow is the default context window: 5 exchanges, one user and one
// assistant turn each.
const DefaultWindow = 10

// Window returns the last limit messages of history in their original order,
// or the entire history when it is shorter. It is a pure suffix take: no
// role pairing is enforced and no message is rewritten or truncated.
// Non-positive limits fall back to DefaultWindow.
func Window(history []session.Message, limit int) []session.Message {
	if limit <= 0 {
		limit = DefaultWindow
	}
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
