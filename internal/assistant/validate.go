package assistant

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxInputChars caps the total user-authored characters in one request.
const DefaultMaxInputChars = 16000

// Validate performs the structural checks on a decoded request body.
// The size guard counts user-role content from the current request only,
// before sanitization, so clients cannot smuggle oversized turns inside
// messages that sanitization would later drop.
func Validate(req *Request, maxInputChars int) error {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	if req == nil || len(req.Messages) == 0 {
		return &ValidationError{Message: "messages must be a non-empty list"}
	}
	hasUser := false
	userChars := 0
	for _, m := range req.Messages {
		if m.Role == RoleUser {
			hasUser = true
			userChars += utf8.RuneCountInString(m.Content)
		}
	}
	if !hasUser {
		return &ValidationError{Message: "at least one message must have role \"user\""}
	}
	if userChars > maxInputChars {
		return &PayloadTooLargeError{Limit: maxInputChars}
	}
	return nil
}

// Sanitize drops messages whose role is neither user nor assistant and
// coerces missing content to the empty string. Order is preserved.
func Sanitize(messages []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// LatestUserMessage returns the trimmed content of the most recent user turn.
func LatestUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

// NormalizeMode maps a declared mode hint onto the known set; anything else
// reads as unset.
func NormalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeProspect:
		return ModeProspect
	case ModeOwner:
		return ModeOwner
	case ModeNavigation:
		return ModeNavigation
	default:
		return ""
	}
}
