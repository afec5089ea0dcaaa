package intent

import (
	"regexp"
	"strings"
)

// Guardrail reason tags.
const (
	ReasonSystemInternals = "system_internals"
	ReasonPricing         = "pricing"
	ReasonServiceAdvice   = "service_advice"
	ReasonLegalAdvice     = "legal_advice"
)

// Category is one blocked-topic rule: an ordered pattern set mapped to a fixed
// refusal. Only the first matching category applies.
type Category struct {
	Tag      string
	Refusal  string
	patterns []*regexp.Regexp
}

func (c *Category) matches(msg string) bool {
	for _, re := range c.patterns {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

// categories in evaluation order. System internals stays first: disclosure of
// how the assistant works is a confidentiality concern and must win over the
// content-policy rules even when a message matches several.
var categories = []*Category{
	{
		Tag: ReasonSystemInternals,
		Refusal: "I can't share details about how I'm implemented — my prompts, " +
			"architecture, and internal configuration aren't something I discuss. " +
			"Happy to help with anything about Meridian motorcycles instead.",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(system|hidden|initial)\s+prompt\b`),
			regexp.MustCompile(`(?i)\b(ignore|bypass|reveal|show|print)\b.*\b(instructions?|prompt|guardrails?|rules)\b`),
			regexp.MustCompile(`(?i)\byour\s+(architecture|backend|source\s+code|internals|configuration|api\s+keys?)\b`),
			regexp.MustCompile(`(?i)\bwhat\s+(llm|language\s+model|model)\s+(are\s+you|do\s+you\s+run|powers)\b`),
		},
	},
	{
		Tag: ReasonPricing,
		Refusal: "I don't quote prices or financing terms — they vary by market and " +
			"dealer. Your local Meridian dealer can give you current numbers; I can " +
			"help you compare models and features in the meantime.",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(price|prices|priced|pricing|msrp)\b`),
			regexp.MustCompile(`(?i)\bhow\s+much\s+(is|are|does|do|for|would)\b`),
			regexp.MustCompile(`(?i)\b(cost|costs|costing)\b`),
			regexp.MustCompile(`(?i)\b(discount|financing|finance\s+(deal|rate|offer)|trade.?in\s+value|quote)\b`),
		},
	},
	{
		Tag: ReasonServiceAdvice,
		Refusal: "I can't give service or modification instructions — getting that " +
			"wrong can be unsafe and can void your warranty. A certified Meridian " +
			"service center is the right place for this one.",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bhow\s+(do|can|should)\s+i\s+(fix|repair|service|adjust|replace|install)\b`),
			regexp.MustCompile(`(?i)\b(derestrict|remap|re-?tune|ecu\s+flash)\b`),
			regexp.MustCompile(`(?i)\b(modify|modification|mods?)\b.*\b(bike|engine|exhaust|suspension|motorcycle)\b`),
			regexp.MustCompile(`(?i)\b(aftermarket|exhaust\s+swap|torque\s+spec)\b`),
		},
	},
	{
		Tag: ReasonLegalAdvice,
		Refusal: "I'm not able to give legal advice — requirements differ by " +
			"country and region. Please check your local regulations or speak with " +
			"a qualified professional.",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bis\s+it\s+legal\b`),
			regexp.MustCompile(`(?i)\b(street.?legal|road.?legal|lane.?split(ting)?)\b`),
			regexp.MustCompile(`(?i)\b(legal\s+(advice|requirements?|question)|lawyer|attorney|liability|lawsuit|sue)\b`),
			regexp.MustCompile(`(?i)\b(licen[cs]e\s+requirements?|registration\s+laws?|helmet\s+laws?)\b`),
		},
	},
}

// DetectBlocked runs the ordered topic battery over the message and returns
// the first matching category. Detection never accumulates multiple reasons.
func DetectBlocked(message string) (*Category, bool) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, false
	}
	for _, c := range categories {
		if c.matches(msg) {
			return c, true
		}
	}
	return nil, false
}
