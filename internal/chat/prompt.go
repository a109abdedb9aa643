package chat

import (
	"strings"

	"github.com/aadhi-11/careerguide/internal/session"
)

// SystemPrompt is the fixed instruction header sent with every model call.
// The ends-with-a-question policy stated here is additionally enforced by
// Normalize, so a model that ignores the instruction still produces a
// conforming reply.
const SystemPrompt = `You are a friendly, experienced career mentor having a casual chat. Be brief, warm, and conversational like you're talking to a friend over coffee.

IMPORTANT: Every response MUST end with a question to keep the conversation flowing.

Your style:
- Keep responses short (2-3 sentences max)
- Use bullet points for lists when helpful
- Be encouraging and relatable
- Share quick, actionable tips
- Ask engaging follow-up questions
- Use casual, friendly language

Remember: Be brief, friendly, and always end with a question!`

// roleLabel maps a message role to its prompt label.
func roleLabel(role string) string {
	if role == session.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// BuildPrompt assembles the model-ready prompt: the instruction header,
// the windowed history (only when non-empty) rendered as "Role: content"
// blocks joined by blank lines, and the current user message under its own
// label. Historical content is never summarized or truncated here —
// Window is the only size control.
func BuildPrompt(system string, history []session.Message, userMessage string) string {
	var b strings.Builder
	b.WriteString(system)

	if len(history) > 0 {
		b.WriteString("\n\nPrevious conversation context:\n")
		for i, msg := range history {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(roleLabel(msg.Role))
			b.WriteString(": ")
			b.WriteString(msg.Content)
		}
	}

	b.WriteString("\n\nCurrent user message: ")
	b.WriteString(userMessage)

	return b.String()
}
