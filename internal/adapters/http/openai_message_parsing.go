package httpadapter

import (
	"strings"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

// splitConversation takes the last user message as the question and the
// user/assistant messages before it as history. System and tool messages
// carry no conversational content for this service and are skipped.
func splitConversation(messages []chatMessage) (string, []domain.Turn, bool) {
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == string(domain.RoleUser) && extractMessageText(messages[i]) != "" {
			last = i
			break
		}
	}
	if last == -1 {
		return "", nil, false
	}

	history := make([]domain.Turn, 0, last)
	for _, msg := range messages[:last] {
		role := domain.Role(msg.Role)
		if role != domain.RoleUser && role != domain.RoleAssistant {
			continue
		}
		text := extractMessageText(msg)
		if text == "" {
			continue
		}
		history = append(history, domain.Turn{Role: role, Content: text})
	}
	return extractMessageText(messages[last]), history, true
}

// extractMessageText returns the text of a message. Content may be a plain
// string or a list of parts; only text parts count, so image or audio parts
// leave nothing behind.
func extractMessageText(message chatMessage) string {
	switch content := message.Content.(type) {
	case string:
		return strings.TrimSpace(content)
	case []any:
		var parts []string
		for _, item := range content {
			if text := partText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

func partText(part any) string {
	switch typed := part.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		if kind, _ := typed["type"].(string); kind != "" && kind != "text" {
			return ""
		}
		text, _ := typed["text"].(string)
		return strings.TrimSpace(text)
	default:
		return ""
	}
}
