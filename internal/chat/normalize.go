package chat

import (
	"regexp"
	"strings"
)

// FollowUpQuestion is appended when a reply contains no question at all,
// keeping the conversation open-ended.
const FollowUpQuestion = "What would you like to know more about?"

var (
	// horizontalWS matches runs of spaces and tabs. Newlines are excluded:
	// collapsing them would flatten intentional line breaks and bullet
	// lists in longer replies.
	horizontalWS = regexp.MustCompile(`[ \t]+`)

	// newlineEdges matches horizontal whitespace hugging a newline.
	newlineEdges = regexp.MustCompile(` *\n *`)

	// extraBlankLines matches more than one consecutive blank line.
	extraBlankLines = regexp.MustCompile(`\n{3,}`)
)

// Normalize post-processes raw model output into a user-presentable reply.
//
// Steps, in order, each total and idempotent:
//  1. collapse runs of blank lines to a single paragraph break
//  2. collapse horizontal whitespace runs to single spaces, preserving
//     single newlines
//  3. trim leading/trailing whitespace
//  4. enforce the terminal-question invariant: a reply ending in '?' or '!'
//     passes through; one containing a '?' elsewhere gains closing
//     punctuation; one with no question gains FollowUpQuestion
//
// The result is never empty and always satisfies the terminal-punctuation
// invariant; empty input yields FollowUpQuestion alone.
func Normalize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = horizontalWS.ReplaceAllString(s, " ")
	s = newlineEdges.ReplaceAllString(s, "\n")
	s = extraBlankLines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	if s == "" {
		return FollowUpQuestion
	}

	if strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		return s
	}

	if strings.Contains(s, "?") {
		// A question exists mid-reply; just close the trailing sentence.
		// The period check keeps Normalize idempotent.
		if strings.HasSuffix(s, ".") {
			return s
		}
		return s + "."
	}

	return s + " " + FollowUpQuestion
}
