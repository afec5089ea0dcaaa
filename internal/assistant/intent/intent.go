// Package intent is the battery of pure, stateless pattern matchers evaluated
// over the latest user message. Detectors are mutually exclusive short-circuits
// and are checked by the pipeline in a fixed priority order: meta questions,
// developer reset, developer override, then blocked topics.
//
// All patterns anchor on word boundaries so unrelated substrings never match
// ("price" must not fire on "rice", "legal" must not fire on "delegate").
package intent

import (
	"regexp"
	"strings"
)

// Intent tags recorded on the interaction and echoed in the envelope.
const (
	TagAssistantOrigin = "assistant_origin"
	TagKnowledgeSource = "knowledge_source"
	TagArchetypeReset  = "archetype_reset"
	TagOverride        = "archetype_override"
)

// MetaAnswer is the fixed narrative returned for origin/knowledge questions.
// It bypasses scoring and retrieval entirely.
const MetaAnswer = "I'm Waypoint, the Meridian Motorcycles assistant. I was built by the " +
	"Meridian digital team, and my answers are grounded in Meridian's own model guides, " +
	"owner documentation, and published ride stories. I don't browse the wider web, and " +
	"when I'm not sure about something I'll say so."

var metaPatterns = []struct {
	re  *regexp.Regexp
	tag string
}{
	{regexp.MustCompile(`(?i)\bwho\s+(built|made|created|developed|designed)\s+(you|this\s+(assistant|chat|bot))\b`), TagAssistantOrigin},
	{regexp.MustCompile(`(?i)\b(are\s+you|is\s+this)\s+(a\s+)?(real\s+person|human|bot|an?\s+ai)\b`), TagAssistantOrigin},
	{regexp.MustCompile(`(?i)\bwho\s+are\s+you\b`), TagAssistantOrigin},
	{regexp.MustCompile(`(?i)\bwhat\s+(data|information|knowledge|sources?)\s+(are\s+you|is\s+this|do\s+you)\b.*\b(trained|based|grounded|drawing)\b`), TagKnowledgeSource},
	{regexp.MustCompile(`(?i)\bwhere\s+(do|does)\s+(you|your)\b.*\b(answers?|information|knowledge)\b.*\bcome\s+from\b`), TagKnowledgeSource},
	{regexp.MustCompile(`(?i)\bhow\s+do\s+you\s+know\s+(all\s+)?(this|that|about)\b`), TagKnowledgeSource},
}

// DetectMeta reports whether the message asks who built the assistant or what
// it is grounded in, and which flavor matched.
func DetectMeta(message string) (string, bool) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return "", false
	}
	for _, p := range metaPatterns {
		if p.re.MatchString(msg) {
			return p.tag, true
		}
	}
	return "", false
}
