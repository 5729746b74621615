package usecases

import (
	"project_sheetbot/internal/entities"
	"regexp"
	"strings"
)

var mentionPattern = regexp.MustCompile(`@\d+`)

// NormalizeText extracts the first non-empty text representation of msg.
// In group chats every "@<digits>" mention is removed and the result trimmed.
// An empty result means the message must be ignored.
func NormalizeText(msg entities.IncomingMessage) string {
	text := msg.Conversation
	if text == "" {
		text = msg.ExtendedText
	}
	if msg.IsGroup {
		text = StripMentions(text)
	}
	return text
}

// StripMentions removes "@<digits>" tokens and surrounding whitespace.
func StripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}
