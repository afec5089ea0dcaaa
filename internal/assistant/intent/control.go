package intent

import (
	"regexp"
	"strings"
)

// Developer control phrases. These are exact-form sentences (whole trimmed
// message, optional closing punctuation), not substring matches, so regular
// conversation can never trip them.
var (
	resetRe    = regexp.MustCompile(`(?i)^please\s+clear\s+your\s+memory\s+of\s+my\s+archetype[.!]?$`)
	overrideRe = regexp.MustCompile(`(?i)^(?:please\s+)?change\s+my\s+archetype\s+to\s+([a-z]+)[.!]?$`)
)

// ResetAck is returned when the reset phrase clears sticky archetype state.
const ResetAck = "Done — I've cleared what I'd inferred about your riding style. " +
	"We're starting fresh."

// DetectReset matches the exact archetype-reset control sentence.
func DetectReset(message string) bool {
	return resetRe.MatchString(strings.TrimSpace(message))
}

// DetectOverride matches the archetype-override control sentence and returns
// the requested archetype name, lowercased. Callers validate the name against
// the canonical set.
func DetectOverride(message string) (string, bool) {
	m := overrideRe.FindStringSubmatch(strings.TrimSpace(message))
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
